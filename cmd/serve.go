package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/basalt-ssg/basalt/internal/config"
	"github.com/basalt-ssg/basalt/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the development server with live rebuild",
	Long: `Start the development server: the site is served from the target
directory while the project tree is watched, and any relevant change
schedules a rebuild. Bursts of changes collapse into a single rebuild,
and rebuilds never overlap.

While the server runs, its drafts setting can be toggled from another
terminal with "basalt serve drafts".`,
	RunE: runServe,
}

var serveDraftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Toggle the drafts setting of a running dev server",
	Long: `Toggle (or set, with --on/--off) the drafts setting of the dev
server running in this project. The new value takes effect on the
server's next rebuild.`,
	RunE: runServeDrafts,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.AddCommand(serveDraftsCmd)

	serveCmd.Flags().StringP("host", "H", "", "host to bind (default 127.0.0.1, or 0.0.0.0 in Docker)")
	serveCmd.Flags().IntP("port", "p", 5050, "port to bind")
	serveCmd.Flags().Bool("pre-build", true, "build once before serving")
	serveCmd.Flags().Bool("drafts", false, "start with draft contents enabled")
	serveCmd.Flags().Bool("clean", true, "remove the target directory before each build")
	serveCmd.Flags().Bool("reload", true, "serve the browser live-reload endpoint")
	serveCmd.Flags().BoolP("open", "o", false, "open the site in the browser")
	serveCmd.Flags().Bool("color", true, "colorize the request log")

	viper.BindPFlag("serve.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("serve.port", serveCmd.Flags().Lookup("port"))

	serveDraftsCmd.Flags().Bool("on", false, "enable drafts instead of toggling")
	serveDraftsCmd.Flags().Bool("off", false, "disable drafts instead of toggling")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	host := viper.GetString("serve.host")
	if host == "" {
		host = "127.0.0.1"
		if config.InDocker() {
			host = "0.0.0.0"
		}
	}
	port := viper.GetInt("serve.port")
	preBuild, _ := cmd.Flags().GetBool("pre-build")
	drafts, _ := cmd.Flags().GetBool("drafts")
	clean, _ := cmd.Flags().GetBool("clean")
	reload, _ := cmd.Flags().GetBool("reload")
	color, _ := cmd.Flags().GetBool("color")
	open, _ := cmd.Flags().GetBool("open")

	ctrl := server.NewController(cfg, server.Options{
		Host:          host,
		Port:          port,
		PreBuild:      preBuild,
		WithDrafts:    drafts,
		Clean:         clean,
		EnableReload:  reload,
		HandleSignals: true,
		UseColor:      color,
		OpenBrowser:   open,
	}, newLogger())

	return ctrl.Run(cmd.Context())
}

func runServeDrafts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	on, _ := cmd.Flags().GetBool("on")
	off, _ := cmd.Flags().GetBool("off")
	if on && off {
		return fmt.Errorf("--on and --off are mutually exclusive")
	}
	var value *bool
	if on || off {
		value = &on
	}

	state, err := server.LoadRunState(cfg.RunStateFile())
	if err != nil {
		return err
	}
	if state == nil {
		// No server running (or it crashed): start from the drafts-off
		// default so the next server start sees the requested value.
		state = &server.RunState{Path: cfg.RunStateFile(), DraftsEnabled: false}
	}

	state.Toggle(value)
	if err := state.Persist(); err != nil {
		return err
	}

	setting := server.TokenNoDrafts
	if state.DraftsEnabled {
		setting = server.TokenDrafts
	}
	fmt.Fprintf(cmd.OutOrStdout(), "drafts setting is now %q (takes effect on the next rebuild)\n", setting)
	return nil
}
