package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vmunix/mediaroute/internal/app"
	"github.com/vmunix/mediaroute/internal/processor"
)

// ProcessResult is the outcome of one file passed to the process command.
type ProcessResult struct {
	Path        string `json:"path"`
	FileID      int64  `json:"file_id,omitempty"`
	Status      string `json:"status"`
	Type        string `json:"type,omitempty"`
	Language    string `json:"language,omitempty"`
	Destination string `json:"destination,omitempty"`
	Extracted   bool   `json:"extracted"`
	Saved       int64  `json:"saved_bytes,omitempty"`
	Error       string `json:"error,omitempty"`
}

var processCmd = &cobra.Command{
	Use:   "process [flags] <file>...",
	Short: "Process files once, outside the daemon",
	Long: `Run the full pipeline on each file: detect, extract, name and transfer.
Results are recorded in the history database like daemon runs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcessCmd,
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().Bool("dry-run", false, "Plan destinations without transferring or deleting")
}

func runProcessCmd(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	if dryRun {
		cfg.Scan.DryRun = true
	}

	db, err := app.OpenDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	a, err := app.Build(cfg, db, cliLogger(cfg.Log.Level))
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := commandContext(cmd)
	results := make([]ProcessResult, 0, len(args))
	failed := 0
	for _, path := range args {
		res, err := a.Processor.ProcessFile(ctx, path)
		r := toProcessResult(path, res, err)
		if err != nil {
			failed++
		}
		results = append(results, r)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, results)
	} else {
		for _, r := range results {
			printProcessResult(out, r)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func toProcessResult(path string, res *processor.Result, err error) ProcessResult {
	r := ProcessResult{Path: path, Status: "failed"}
	if res != nil && res.File != nil {
		f := res.File
		r.FileID = f.ID
		r.Status = string(f.Status)
		r.Type = string(f.Type)
		r.Language = string(f.Language)
		r.Destination = f.DestinationPath
		r.Extracted = res.Extracted
		r.Saved = f.SizeReductionBytes
	}
	if err != nil {
		r.Error = err.Error()
		if errors.Is(err, processor.ErrSourceMissing) {
			r.Status = "missing"
		}
	}
	return r
}

func printProcessResult(w io.Writer, r ProcessResult) {
	switch {
	case r.Error != "":
		fmt.Fprintf(w, "FAIL  %s\n      %s\n", r.Path, r.Error)
	case r.Status == "dry-run":
		fmt.Fprintf(w, "PLAN  %s\n   -> %s\n", r.Path, r.Destination)
	default:
		fmt.Fprintf(w, "OK    %s\n   -> %s\n", r.Path, r.Destination)
	}
	if r.Extracted && r.Saved > 0 {
		fmt.Fprintf(w, "      extracted tracks, saved %s\n", humanize.IBytes(uint64(r.Saved)))
	}
}
