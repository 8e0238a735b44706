package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/basalt-ssg/basalt/internal/site"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the site into the target directory",
	RunE:  runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().Bool("drafts", false, "include draft contents in the build")
	buildCmd.Flags().Bool("clean", true, "remove the target directory before building")

	viper.BindPFlag("build.drafts", buildCmd.Flags().Lookup("drafts"))
	viper.BindPFlag("build.clean", buildCmd.Flags().Lookup("clean"))
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	drafts := viper.GetBool("build.drafts")
	clean := viper.GetBool("build.clean")
	cfg.WithDrafts = drafts

	builder := site.NewBuilder(newLogger())
	return builder.Build(cmd.Context(), cfg, site.BuildOptions{
		Clean:      clean,
		WithDrafts: drafts,
	})
}
