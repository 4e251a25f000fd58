package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipnext/internal/logging"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPNEXT_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPNEXT_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipnext")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/clipnext/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/clipnext", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPNEXT")
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for service, debug for interactive)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addClientFlags adds the flags shared by every client sub-command.
func addClientFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("server", "", "clipnext server address host:port (default: local IPC socket)")
	f.String("token", "", "shared secret")
	f.Bool("tls", false, "use TLS derived from the token when connecting over TCP")
	addConfigFlag(cmd)
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	logging.Setup(logging.Options{
		Format:      v.GetString("log-format"),
		Level:       v.GetString("log-level"),
		Interactive: v.GetBool("no-background") || logging.IsTTY(os.Stderr),
	})
}
