package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/basalt-ssg/basalt/internal/scaffolding"
)

var newCmd = &cobra.Command{
	Use:   "new [dirname]",
	Short: "Create a new basalt project",
	Long: `Create a new basalt project: the directory layout, an initial
basalt.yaml, and a minimal starter theme.

With no dirname the project is created in the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().StringP("name", "n", "", "name of the site (defaults to the directory name)")
	newCmd.Flags().StringP("url", "u", "", "URL of the site")
	newCmd.Flags().String("description", "", "description of the site")
	newCmd.Flags().String("author", "", "site author (defaults to the git user name)")
	newCmd.Flags().String("language", "", "site language (defaults to the system locale)")
	newCmd.Flags().BoolP("force", "f", false, "create the project even in a non-empty directory")
}

func runNew(cmd *cobra.Command, args []string) error {
	opts := scaffolding.ProjectOptions{}
	if len(args) > 0 {
		opts.Dir = args[0]
	}
	opts.Name, _ = cmd.Flags().GetString("name")
	opts.URL, _ = cmd.Flags().GetString("url")
	opts.Description, _ = cmd.Flags().GetString("description")
	opts.Author, _ = cmd.Flags().GetString("author")
	opts.Language, _ = cmd.Flags().GetString("language")
	opts.Force, _ = cmd.Flags().GetBool("force")

	projectDir, err := scaffolding.CreateProject(opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "project created at %s\n", projectDir)
	return nil
}
