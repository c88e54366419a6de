package main

import (
	"fmt"
	log "log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"voxagent/internal/config"
)

var (
	configFlag string
	envFlag    string
	logFlag    string
	modelFlag  string
	proxyFlag  string

	cfg config.Config
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

var rootCmd = &cobra.Command{
	Use:   "voxagent",
	Short: "Voice assistant that plans, calls tools and answers out loud",
	Long: `voxagent listens for a request, lets the model reason about it one step
at a time (START, PLAN, TOOL, OUTPUT), runs the tools it asks for and speaks
the final answer.

Examples:
  voxagent run                          Listen on the microphone
  voxagent run --source console         Type requests instead of speaking
  voxagent run --trigger                Wait for "voxagent-ctl trigger"
  voxagent ask "What is 2 + 3 * 5 / 10?"
  voxagent tools                        Show the tool catalog`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", ".env", "Env file path")
	rootCmd.PersistentFlags().StringVarP(&logFlag, "log", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Chat model (e.g. gpt-4o)")
	rootCmd.PersistentFlags().StringVarP(&proxyFlag, "proxy", "p", "", "SOCKS5 proxy address for API calls")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(toolsCmd)
}

// setup loads the configuration, applies flag overrides and installs the
// default logger.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	if err := config.LoadEnv(&c, envFlag); err != nil {
		return err
	}

	if logFlag != "" {
		c.Log.Level = logFlag
	}
	if modelFlag != "" {
		c.OpenAI.Model = modelFlag
	}
	if proxyFlag != "" {
		c.Proxy.Addr = proxyFlag
	}

	level, ok := logLevelMap[c.Log.Level]
	if !ok {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: level,
	})))

	cfg = c
	log.Debug("Loaded configuration", "config", configFlag, "model", cfg.OpenAI.Model)
	return nil
}
