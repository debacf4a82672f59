package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/juju/clock"
	"github.com/spf13/cobra"

	"github.com/glexport/glexport/internal/config"
	"github.com/glexport/glexport/internal/gitlab"
	"github.com/glexport/glexport/internal/logging"
	"github.com/glexport/glexport/internal/orchestrator"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export matching projects and download their archives",
	Long: `Export triggers a server-side export job for every project matching the
configured include patterns (minus excluded ones), polls each job until its
archive is ready, downloads the archive to the backup destination, and prunes
archives older than the retention period.

The process exit status is the number of projects that failed; 0 means a full
success.`,
	RunE: runExport,
}

var (
	exportForce bool
	exportNoop  bool
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().BoolVarP(&exportForce, "force", "f", false, "overwrite backup file if it exists")
	exportCmd.Flags().BoolVarP(&exportNoop, "noop", "n", false, "only print what would be done, without doing it")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return config.ValidationErrors(errs)
	}
	cfg.Normalize(log)

	client, err := newClient(cfg, log)
	if err != nil {
		return err
	}

	runner := &orchestrator.Runner{
		API:    client,
		Clock:  clock.WallClock,
		Config: cfg,
		Log:    log,
		Force:  exportForce,
		Noop:   exportNoop,
		OnStart: func(p gitlab.Project) {
			fmt.Printf("%s %s\n", mutedStyle.Render("exporting"), p.PathWithNamespace)
		},
		OnResult: func(r orchestrator.Result) {
			if r.OK() {
				fmt.Printf("%s %s -> %s (%s)\n",
					okStyle.Render("done"), r.Project.PathWithNamespace, r.Archive, humanize.Bytes(uint64(r.Bytes)))
				return
			}
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", errStyle.Render("failed"), r.Project.PathWithNamespace, r.Err)
		},
	}

	summary, err := runner.Run()
	if err != nil {
		return err
	}

	if summary.Noop {
		fmt.Println(boldStyle.Render("Projects that would be exported:"))
		for _, path := range summary.Selection.Paths() {
			fmt.Println("  " + path)
		}
		return nil
	}

	failed := summary.Failed()
	fmt.Printf("%s %d project(s), %d failed\n", boldStyle.Render("Backup finished:"), len(summary.Results), failed)
	if failed > 0 {
		// Exit status carries the cumulative failure count.
		os.Exit(failed)
	}
	return nil
}

// newClient builds the API client from the access configuration.
func newClient(cfg *config.Config, log *logging.Logger) (*gitlab.Client, error) {
	verify, bundle := cfg.Gitlab.Access.TLS()
	return gitlab.New(cfg.Gitlab.Access.GitlabURL, cfg.Gitlab.Access.Token, gitlab.Options{
		Membership: cfg.Gitlab.Membership,
		Archived:   cfg.Gitlab.IncludeArchived,
		SSLVerify:  verify,
		CABundle:   bundle,
	}, log)
}
