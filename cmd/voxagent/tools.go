package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voxagent/internal/agent"
	"voxagent/internal/tools"
)

var promptFlag bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool catalog the model sees",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := tools.FromConfig(cfg.Tools, nil, nil)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if promptFlag {
			fmt.Fprintln(out, agent.SystemPrompt(reg.Catalog()))
			return nil
		}
		fmt.Fprint(out, reg.Catalog())
		return nil
	},
}

func init() {
	toolsCmd.Flags().BoolVar(&promptFlag, "prompt", false, "Print the full system prompt")
}
