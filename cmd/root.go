// Package cmd provides the basalt command-line interface.
//
// Configuration sources, in precedence order: command-line flags, BASALT_
// prefixed environment variables, and the project's basalt.yaml discovered
// by walking upward from the working directory (or given explicitly with
// --config).
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/basalt-ssg/basalt/internal/config"
	"github.com/basalt-ssg/basalt/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "basalt",
	Short: "A Markdown static site generator with a live-rebuilding dev server",
	Long: `Basalt is a static site generator: Markdown sources with YAML or TOML
front matter are rendered through theme templates into a static site,
with a development server that rebuilds on change.

Quick start:
  basalt new mysite      Create a new project
  basalt build           Build the site into target/
  basalt serve           Start the dev server with live rebuild
  basalt edit hello      Open a content file in your editor`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initEnv)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is basalt.yaml, discovered upward)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initEnv() {
	viper.SetEnvPrefix("BASALT")
	viper.AutomaticEnv()
}

// loadConfig resolves the project configuration for commands that need an
// existing project.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFrom(cfgFile)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Load(wd)
}

// newLogger builds the process logger from the persistent flags.
func newLogger() logging.Logger {
	return logging.NewLogger(&logging.Config{
		Level:  logging.ParseLevel(viper.GetString("log-level")),
		Format: viper.GetString("log-format"),
		Output: os.Stderr,
	})
}
