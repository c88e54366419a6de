package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	sourceFlag  string
	triggerFlag bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Listen for requests and answer them until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if sourceFlag != "" {
			cfg.Listen.Source = sourceFlag
		}
		if cmd.Flags().Changed("trigger") {
			cfg.Listen.Trigger = triggerFlag
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := assemble(ctx, cfg, options{
			source: cfg.Listen.Source,
			speak:  true,
			ipc:    true,
		})
		if err != nil {
			return err
		}
		defer a.Close()

		log.Info("Ready", "source", cfg.Listen.Source, "trigger", cfg.Listen.Trigger, "model", cfg.OpenAI.Model)

		err = a.controller.Run(ctx, a.listener)
		if errors.Is(err, context.Canceled) {
			log.Info("Shutting down")
			return nil
		}
		return err
	},
}

func init() {
	runCmd.Flags().StringVarP(&sourceFlag, "source", "s", "", "Utterance source (mic, console, files, bus)")
	runCmd.Flags().BoolVarP(&triggerFlag, "trigger", "t", false, "Wait for an IPC trigger before listening")
}
