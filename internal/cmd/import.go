package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/juju/clock"
	"github.com/spf13/cobra"

	"github.com/glexport/glexport/internal/config"
	"github.com/glexport/glexport/internal/orchestrator"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an exported archive into a target project path",
	Long: `Import uploads a previously exported archive and creates (or overwrites)
the project at the given namespaced path. The server performs the import
asynchronously; the command polls until it finishes or fails.`,
	RunE: runImport,
}

var (
	importFilepath    string
	importProjectPath string
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importFilepath, "file", "f", "", "path to an exported project archive")
	importCmd.Flags().StringVarP(&importProjectPath, "project", "p", "", "destination project path, e.g. group/name")
}

func runImport(cmd *cobra.Command, args []string) error {
	if importFilepath == "" || importProjectPath == "" {
		return fmt.Errorf("you have to specify both --file and --project")
	}
	if _, err := os.Stat(importFilepath); err != nil {
		return fmt.Errorf("archive file %s: %w", importFilepath, err)
	}

	log := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if errs := cfg.ValidateForImport(); len(errs) > 0 {
		return config.ValidationErrors(errs)
	}
	cfg.Normalize(log)

	client, err := newClient(cfg, log)
	if err != nil {
		return err
	}

	importer := &orchestrator.Importer{
		API:          client,
		Clock:        clock.WallClock,
		PollInterval: time.Second,
		Log:          log,
	}

	fmt.Printf("%s %s\n", mutedStyle.Render("importing"), importProjectPath)
	if err := importer.Import(importProjectPath, importFilepath); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", okStyle.Render("import success for"), importProjectPath)
	return nil
}
