package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/llvm2codecov/pkg/codecov"
	"github.com/praetorian-inc/llvm2codecov/pkg/config"
	"github.com/praetorian-inc/llvm2codecov/pkg/convert"
	"github.com/praetorian-inc/llvm2codecov/pkg/filter"
	"github.com/praetorian-inc/llvm2codecov/pkg/llvm"
	"github.com/praetorian-inc/llvm2codecov/pkg/report"
	"github.com/praetorian-inc/llvm2codecov/pkg/source"
	"github.com/praetorian-inc/llvm2codecov/pkg/store"
	"github.com/praetorian-inc/llvm2codecov/pkg/types"
	"github.com/spf13/cobra"
)

var (
	convertOutput       string
	convertWorkers      int
	convertNoShrinkwrap bool
	convertStrict       bool
	convertSourceRoot   string
	convertRevision     string
	convertExclude      []string
	convertDatastore    string
	convertSummary      bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [input.json]",
	Short: "Convert an llvm-cov export to Codecov JSON",
	Long: `Read an "llvm-cov export -format=text" report from a file, or from stdin
when no file or "-" is given, and write Codecov line coverage JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output file (default stdout)")
	convertCmd.Flags().IntVar(&convertWorkers, "workers", 0, "Files converted concurrently (0 = number of CPUs)")
	convertCmd.Flags().BoolVar(&convertNoShrinkwrap, "no-shrinkwrap", false, "Keep region boundaries as reported")
	convertCmd.Flags().BoolVar(&convertStrict, "strict", false, "Fail on regions left open at the end of a file")
	convertCmd.Flags().StringVar(&convertSourceRoot, "source-root", "", "Directory relative filenames are resolved against")
	convertCmd.Flags().StringVar(&convertRevision, "revision", "", "Read sources from this git revision instead of the worktree")
	convertCmd.Flags().StringSliceVar(&convertExclude, "exclude", nil, "Gitignore-style pattern of files to drop (repeatable)")
	convertCmd.Flags().StringVar(&convertDatastore, "datastore", "", "SQLite database recording the run")
	convertCmd.Flags().BoolVar(&convertSummary, "summary", false, "Print per-file statistics to stderr")
}

// applyConvertFlags overrides config values with explicitly set flags.
func applyConvertFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = convertWorkers
	}
	if flags.Changed("no-shrinkwrap") {
		enabled := !convertNoShrinkwrap
		cfg.Shrinkwrap = &enabled
	}
	if flags.Changed("strict") {
		cfg.Strict = convertStrict
	}
	if flags.Changed("source-root") {
		cfg.Source.Root = convertSourceRoot
	}
	if flags.Changed("revision") {
		cfg.Source.Revision = convertRevision
	}
	if flags.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, convertExclude...)
	}
	if flags.Changed("datastore") {
		cfg.Datastore = convertDatastore
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyConvertFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cmd)
	ctx := commandContext(cmd)

	input := "-"
	if len(args) == 1 {
		input = args[0]
	}
	exp, err := readExport(cmd, input)
	if err != nil {
		return err
	}

	var provider source.Provider
	if cfg.ShrinkwrapEnabled() {
		provider, err = source.New(source.Config{
			Root:        cfg.Source.Root,
			Revision:    cfg.Source.Revision,
			MaxFileSize: cfg.Source.MaxFileSize,
		})
		if err != nil {
			return fmt.Errorf("opening sources: %w", err)
		}
	}

	converter := convert.New(convert.Config{
		Source:     provider,
		Shrinkwrap: cfg.ShrinkwrapEnabled(),
		Strict:     cfg.Strict,
		Workers:    cfg.Workers,
		Filter:     filter.New(cfg.Source.Root, cfg.Exclude...),
		Logger:     logger,
	})

	res, err := converter.Convert(ctx, exp)
	if err != nil {
		return err
	}

	if err := writeReport(cmd, convertOutput, res.Report); err != nil {
		return err
	}

	logger.Info("conversion complete",
		"files", res.Stats.Files,
		"excluded", res.Stats.Excluded,
		"shrinkwrapped", res.Stats.Shrinkwrapped,
		"fallbacks", res.Stats.Fallbacks)

	if cfg.Datastore != "" {
		runID, err := recordRun(cfg.Datastore, input, res)
		if err != nil {
			return fmt.Errorf("recording run: %w", err)
		}
		logger.Info("recorded run", "run", runID, "datastore", cfg.Datastore)
	}

	if convertSummary {
		enabled, err := report.ColorEnabled(report.ColorAuto, os.Stderr)
		if err != nil {
			return err
		}
		return report.FromReport(res.Report).WriteHuman(cmd.ErrOrStderr(), report.NewStyles(enabled))
	}
	return nil
}

func readExport(cmd *cobra.Command, input string) (*llvm.Export, error) {
	if input == "-" {
		return llvm.Decode(cmd.InOrStdin())
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	return llvm.Decode(f)
}

// writeReport writes the report to stdout, or atomically to path so a failed
// write never leaves a partial file behind.
func writeReport(cmd *cobra.Command, path string, r *codecov.Report) error {
	if path == "" || path == "-" {
		return r.Encode(cmd.OutOrStdout())
	}
	return writeFileAtomic(path, r.Encode)
}

func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming output: %w", err)
	}
	return nil
}

func recordRun(path, input string, res *convert.Result) (string, error) {
	s, err := store.New(store.Config{Path: path})
	if err != nil {
		return "", fmt.Errorf("opening datastore: %w", err)
	}
	defer s.Close()

	run := types.NewRun(input)
	if err := s.AddRun(run); err != nil {
		return "", err
	}
	for _, fr := range res.Files {
		if err := s.AddFile(run.ID, fr.Coverage.Summarize()); err != nil {
			return "", err
		}
	}
	return run.ID, nil
}
