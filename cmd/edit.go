package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/basalt-ssg/basalt/internal/config"
	"github.com/basalt-ssg/basalt/internal/errors"
	"github.com/basalt-ssg/basalt/internal/site"
)

var editCmd = &cobra.Command{
	Use:   "edit <query>",
	Short: "Open a source file in your editor",
	Long: `Open the source file best matching the query in $EDITOR. With
--create, a new draft is created under the given section's drafts
directory instead of searching.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().StringP("create", "c", "", "create a new draft in the given section")
	editCmd.Flags().StringP("title", "t", "", "title for the created draft")
	editCmd.Flags().Bool("drafts", true, "include draft files in the lookup")
}

func runEdit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	query := args[0]

	section, _ := cmd.Flags().GetString("create")
	includeDrafts, _ := cmd.Flags().GetBool("drafts")

	var path string
	if section != "" {
		title, _ := cmd.Flags().GetString("title")
		path, err = createDraft(cfg, section, query, title)
	} else {
		path, err = site.FindSource(cfg, query, includeDrafts)
	}
	if err != nil {
		return err
	}

	return openEditor(path)
}

// createDraft writes a front matter skeleton under the section's drafts
// directory and returns its path. Existing files are left untouched.
func createDraft(cfg *config.Config, section, query, title string) (string, error) {
	name := query
	if !strings.HasSuffix(name, config.MarkdownExt) {
		name += config.MarkdownExt
	}

	dir := filepath.Join(cfg.SourcesDir(), section, config.DraftsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.IO("could not create drafts directory", err).WithPath(dir)
	}

	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	content := site.InferFrontMatter(query, title)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", errors.IO("could not create draft", err).WithPath(path)
	}
	return path, nil
}

func openEditor(path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		return errors.Config("EDITOR is not set", nil)
	}

	ec := exec.Command(editor, path)
	ec.Stdin = os.Stdin
	ec.Stdout = os.Stdout
	ec.Stderr = os.Stderr
	if err := ec.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}
	return nil
}
