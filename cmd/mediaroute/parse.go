package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediaroute/internal/detect"
	"github.com/vmunix/mediaroute/pkg/release"
)

// ParseResult is what the filename parsers recover from one name.
type ParseResult struct {
	Filename         string `json:"filename"`
	Title            string `json:"title"`
	Year             int    `json:"year,omitempty"`
	Type             string `json:"type"`
	Series           string `json:"series,omitempty"`
	Season           int    `json:"season,omitempty"`
	Episode          int    `json:"episode,omitempty"`
	Pattern          string `json:"pattern,omitempty"`
	SitePrefix       bool   `json:"site_prefix,omitempty"`
	NormalizedSeries string `json:"normalized_series,omitempty"`
}

var parseCmd = &cobra.Command{
	Use:   "parse [flags] <filename>",
	Short: "Parse a download filename (local, no config needed)",
	Long: `Parse a filename to show the title, year and episode information
the processor would derive from it.

Examples:
  mediaroute parse "www.1TamilMV.com - Premalu (2024) 1080p WEB-DL.mkv"
  mediaroute parse "Kerala.Crime.Files.S01E03.1080p.mkv"
  mediaroute parse --file names.txt --json`,
	RunE: runParseCmd,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringP("file", "f", "", "Read filenames from file (one per line)")
}

func runParseCmd(cmd *cobra.Command, args []string) error {
	inputFile, _ := cmd.Flags().GetString("file")

	var names []string
	switch {
	case inputFile != "":
		n, err := readNames(inputFile)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		names = n
	case len(args) > 0:
		names = args
	default:
		return fmt.Errorf("usage: mediaroute parse <filename> or mediaroute parse --file <path>")
	}

	results := make([]ParseResult, 0, len(names))
	for _, name := range names {
		results = append(results, parseName(name))
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
		printParseResult(out, r)
	}
	return nil
}

func parseName(name string) ParseResult {
	r := ParseResult{
		Filename:   name,
		Title:      release.CleanTitle(name),
		Year:       release.ExtractYear(name),
		Type:       string(detect.DetectType(name)),
		SitePrefix: release.HasSitePrefix(name),
	}
	if detect.DetectType(name) == detect.TypeTVShow {
		ep := release.ParseEpisode(name)
		r.Series = ep.Series
		r.Season = ep.SeasonNumber()
		r.Episode = ep.EpisodeNumber()
		r.Pattern = ep.Pattern
		r.NormalizedSeries = release.NormalizeSeriesName(ep.Series)
	}
	return r
}

func printParseResult(w io.Writer, r ParseResult) {
	fmt.Fprintf(w, "Filename:  %s\n", r.Filename)
	fmt.Fprintf(w, "Title:     %s\n", r.Title)
	if r.Year > 0 {
		fmt.Fprintf(w, "Year:      %d\n", r.Year)
	}
	fmt.Fprintf(w, "Type:      %s\n", r.Type)
	if r.Series != "" {
		fmt.Fprintf(w, "Series:    %s (key %q)\n", r.Series, r.NormalizedSeries)
		fmt.Fprintf(w, "Season:    %d\n", r.Season)
		if r.Episode > 0 {
			fmt.Fprintf(w, "Episode:   %d\n", r.Episode)
		}
		fmt.Fprintf(w, "Pattern:   %s\n", r.Pattern)
	}
	if r.SitePrefix {
		fmt.Fprintln(w, "Site:      prefix stripped")
	}
}

// readNames reads filenames from a file, one per line, skipping blanks and
// # comments.
func readNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			names = append(names, line)
		}
	}
	return names, scanner.Err()
}
