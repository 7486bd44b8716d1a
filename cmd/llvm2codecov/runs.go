package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var runsDatastore string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Long:  "List the conversion runs recorded in a datastore, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsDatastore, "datastore", "", "Datastore to list runs from")
}

func runRuns(cmd *cobra.Command, args []string) error {
	path := runsDatastore
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Datastore
	}
	if path == "" {
		return errors.New("no datastore: pass --datastore or set it in the config file")
	}

	s, err := openDatastore(path)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.GetRuns()
	if err != nil {
		return fmt.Errorf("retrieving runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}
	fmt.Fprintf(out, "%-36s  %-23s  %5s  %s\n", "ID", "CREATED", "FILES", "INPUT")
	for _, r := range runs {
		fmt.Fprintf(out, "%-36s  %-23s  %5d  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05 UTC"), r.Files, r.Input)
	}
	return nil
}
