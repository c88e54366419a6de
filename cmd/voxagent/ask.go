package main

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"voxagent/internal/config"
)

var speakFlag bool

var askCmd = &cobra.Command{
	Use:   "ask <request>",
	Short: "Run a single session for a typed request",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c := cfg.WithSource(config.SourceConsole)
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := assemble(ctx, c, options{
			source: sourceNone,
			speak:  speakFlag,
		})
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.controller.Handle(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}

		log.Debug("Answered", "session", out.SessionID, "steps", out.Steps, "tool_calls", out.ToolCalls)
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&speakFlag, "speak", false, "Also speak the answer")
}
