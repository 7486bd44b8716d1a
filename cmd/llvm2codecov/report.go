package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/praetorian-inc/llvm2codecov/pkg/codecov"
	"github.com/praetorian-inc/llvm2codecov/pkg/report"
	"github.com/praetorian-inc/llvm2codecov/pkg/store"
	"github.com/praetorian-inc/llvm2codecov/pkg/types"
	"github.com/spf13/cobra"
)

var (
	reportDatastore string
	reportRun       string
	reportFormat    string
	reportColor     string
)

var reportCmd = &cobra.Command{
	Use:   "report [codecov.json]",
	Short: "Show coverage statistics",
	Long: `Print per-file line coverage statistics of a Codecov JSON file, or of a
run recorded in a datastore (the latest run unless --run is given).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDatastore, "datastore", "", "Datastore to read the run from")
	reportCmd.Flags().StringVar(&reportRun, "run", "", "Run ID (default latest)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportFormat != "human" && reportFormat != "json" {
		return fmt.Errorf("unknown format %q (want human or json)", reportFormat)
	}

	var (
		sum *report.Summary
		run *types.Run
		err error
	)
	switch {
	case len(args) == 1 && reportDatastore != "":
		return errors.New("pass either a codecov file or --datastore, not both")
	case len(args) == 1:
		sum, err = summarizeFile(args[0])
	default:
		path := reportDatastore
		if path == "" {
			cfg, cfgErr := loadConfig()
			if cfgErr != nil {
				return cfgErr
			}
			path = cfg.Datastore
		}
		if path == "" {
			return errors.New("no input: pass a codecov file or --datastore")
		}
		sum, run, err = summarizeRun(path, reportRun)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if reportFormat == "json" {
		return sum.WriteJSON(out)
	}

	enabled, err := report.ColorEnabled(reportColor, outputFile(out))
	if err != nil {
		return err
	}
	s := report.NewStyles(enabled)
	if run != nil {
		fmt.Fprintf(out, "%s %s (%s, %s)\n\n",
			s.Heading.Sprint("Run"),
			s.Name.Sprint(run.ID),
			run.Input,
			run.CreatedAt.Format("2006-01-02 15:04:05 UTC"))
	}
	return sum.WriteHuman(out, s)
}

func summarizeFile(path string) (*report.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()

	r, err := codecov.Decode(f)
	if err != nil {
		return nil, err
	}
	return report.FromReport(r), nil
}

func summarizeRun(path, runID string) (*report.Summary, *types.Run, error) {
	s, err := openDatastore(path)
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()

	var run *types.Run
	if runID != "" {
		run, err = s.GetRun(runID)
	} else {
		run, err = s.LatestRun()
	}
	if err != nil {
		return nil, nil, err
	}

	files, err := s.GetFiles(run.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieving files: %w", err)
	}
	return report.FromSummaries(files), run, nil
}

// openDatastore opens an existing datastore without creating one.
func openDatastore(path string) (store.Store, error) {
	if path == ":memory:" {
		return nil, errors.New("cannot report from in-memory store")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("datastore not found: %s", path)
	}

	s, err := store.New(store.Config{Path: path})
	if err != nil {
		return nil, fmt.Errorf("opening datastore: %w", err)
	}
	return s, nil
}

// outputFile returns w as a file when it is one, for terminal detection.
func outputFile(w io.Writer) *os.File {
	f, _ := w.(*os.File)
	return f
}
