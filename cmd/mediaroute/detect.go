package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediaroute/internal/config"
	"github.com/vmunix/mediaroute/internal/detect"
	"github.com/vmunix/mediaroute/internal/naming"
	"github.com/vmunix/mediaroute/internal/probe"
	"github.com/vmunix/mediaroute/internal/processor"
)

// DetectResult is the classification of one file and, when a config is
// available, where it would be sent.
type DetectResult struct {
	Path            string   `json:"path"`
	Type            string   `json:"type"`
	Language        string   `json:"language"`
	LanguageSource  string   `json:"language_source"`
	Resolution      string   `json:"resolution,omitempty"`
	Subtitles       []string `json:"subtitles,omitempty"`
	NeedsExtraction bool     `json:"needs_extraction"`
	Destination     string   `json:"destination,omitempty"`
	Orphan          bool     `json:"orphan,omitempty"`
	ProbeError      string   `json:"probe_error,omitempty"`
}

var detectCmd = &cobra.Command{
	Use:   "detect [flags] <file>...",
	Short: "Classify files and show their planned destination",
	Long: `Detect type, language bucket, resolution and subtitles for each file.
With --probe, embedded audio tracks are inspected with ffprobe. When a
config is found, the destination path is planned without transferring.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetectCmd,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().Bool("probe", false, "Inspect embedded tracks with ffprobe")
	detectCmd.Flags().String("ffprobe", "ffprobe", "Path to ffprobe")
}

func runDetectCmd(cmd *cobra.Command, args []string) error {
	useProbe, _ := cmd.Flags().GetBool("probe")
	ffprobePath, _ := cmd.Flags().GetString("ffprobe")

	var prober *probe.FFProbe
	if useProbe {
		prober = probe.NewFFProbe(ffprobePath, 30*time.Second, cliLogger("info"))
	}

	var planner *destinationPlanner
	if cfg, err := loadConfig(false); err == nil {
		planner = newDestinationPlanner(cfg)
	}

	d := detect.New()
	results := make([]DetectResult, 0, len(args))
	for _, path := range args {
		var meta *probe.Result
		r := DetectResult{Path: path}
		if prober != nil {
			m, err := prober.Probe(commandContext(cmd), path)
			if err != nil {
				r.ProbeError = err.Error()
			} else {
				meta = m
			}
		}

		attrs := d.Detect(path, meta)
		r.Type = string(attrs.Type)
		r.Language = string(attrs.Language)
		r.LanguageSource = attrs.LanguageSource
		r.Resolution = attrs.Resolution
		r.Subtitles = attrs.Subtitles
		r.NeedsExtraction = attrs.NeedsExtraction
		if planner != nil {
			if t, err := planner.plan(path, attrs); err == nil {
				r.Destination = t.Path
				r.Orphan = t.Orphan
			}
		}
		results = append(results, r)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, results)
		return nil
	}
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		printDetectResult(out, r)
	}
	return nil
}

type destinationPlanner struct {
	routes  processor.Routes
	builder *naming.Builder
}

func newDestinationPlanner(cfg *config.Config) *destinationPlanner {
	return &destinationPlanner{
		routes: processor.Routes{
			Movies: config.LanguageMap(cfg.Routing.Movies),
			TV:     config.LanguageMap(cfg.Routing.TV),
		},
		builder: naming.NewBuilder(cfg.Routing.MovieTemplate, cfg.Routing.EpisodeTemplate),
	}
}

func (p *destinationPlanner) plan(path string, attrs detect.Attributes) (naming.Target, error) {
	base, err := p.routes.Base(attrs.Type, attrs.Language)
	if err != nil {
		return naming.Target{}, err
	}
	return p.builder.Build(naming.Input{
		Filename:   filepath.Base(path),
		Type:       attrs.Type,
		Language:   attrs.Language,
		Resolution: attrs.Resolution,
		Base:       base,
	})
}

func printDetectResult(w io.Writer, r DetectResult) {
	fmt.Fprintf(w, "File:        %s\n", r.Path)
	fmt.Fprintf(w, "Type:        %s\n", r.Type)
	fmt.Fprintf(w, "Language:    %s (%s)\n", r.Language, r.LanguageSource)
	if r.Resolution != "" {
		fmt.Fprintf(w, "Resolution:  %s\n", r.Resolution)
	}
	if len(r.Subtitles) > 0 {
		fmt.Fprintf(w, "Subtitles:   %s\n", strings.Join(r.Subtitles, ", "))
	}
	if r.NeedsExtraction {
		fmt.Fprintln(w, "Extraction:  needed")
	}
	if r.ProbeError != "" {
		fmt.Fprintf(w, "Probe:       failed: %s\n", r.ProbeError)
	}
	if r.Destination != "" {
		dest := r.Destination
		if r.Orphan {
			dest += " (orphan)"
		}
		fmt.Fprintf(w, "Destination: %s\n", dest)
	}
}

// commandContext returns the command context, or Background when run
// outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
