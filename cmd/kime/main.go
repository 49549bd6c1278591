// kime hosts the composition engine outside the browser.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kimeweb/internal/config"
	"kimeweb/internal/logging"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	logOutput  string
	logFile    string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "kime",
		Short:         "Korean input method engine host",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default: platform config dir)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text|json)")
	root.PersistentFlags().StringVar(&opts.logOutput, "log-output", "stderr", "Log output (stderr|stdout|file|both|discard)")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Log file for file and both outputs (default: platform log dir)")

	root.AddCommand(
		newServeCommand(opts),
		newReplayCommand(opts),
		newCheckCommand(opts),
	)
	return root
}

// resolvedConfigPath returns the --config value or the platform default.
func (o *rootOptions) resolvedConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.ConfigPath()
}

// logger builds the process logger from the shared flags. File outputs
// rotate through the logging package; stderr goes to the command's error
// stream.
func (o *rootOptions) logger(cmd *cobra.Command) (*logging.Logger, error) {
	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(o.logFormat)
	if err != nil {
		return nil, err
	}
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Format = format
	if o.logFile != "" {
		cfg.FilePath = o.logFile
	}
	switch strings.ToLower(o.logOutput) {
	case "", "stderr":
		return logging.NewWriter(cmd.ErrOrStderr(), cfg)
	case "stdout", "file", "both", "discard":
		cfg.Output = strings.ToLower(o.logOutput)
		return logging.New(cfg)
	default:
		return nil, fmt.Errorf("unknown log output %q", o.logOutput)
	}
}
