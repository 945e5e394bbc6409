package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vmunix/mediaroute/internal/unify"
)

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "Inspect series folder mappings",
}

var foldersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List canonical series folders and the spellings mapped to them",
	Args:  cobra.NoArgs,
	RunE:  runFoldersListCmd,
}

var foldersSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest duplicate series folders to merge",
	Long: `Group series folders on the library that refer to the same show and
suggest which folder to keep. Nothing is moved. Requires routing.library_root.`,
	Args: cobra.NoArgs,
	RunE: runFoldersSuggestCmd,
}

func init() {
	rootCmd.AddCommand(foldersCmd)
	foldersCmd.AddCommand(foldersListCmd)
	foldersCmd.AddCommand(foldersSuggestCmd)

	foldersListCmd.Flags().StringP("language", "l", "", "Only show one language bucket")
	foldersSuggestCmd.Flags().StringP("language", "l", "malayalam", "Language bucket to inspect")
}

func runFoldersListCmd(cmd *cobra.Command, args []string) error {
	language, _ := cmd.Flags().GetString("language")

	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	mappings, err := unify.NewStore(db).List(strings.ToLower(language))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, mappings)
		return nil
	}
	printMappings(out, mappings)
	return nil
}

func printMappings(w io.Writer, mappings []*unify.Mapping) {
	if len(mappings) == 0 {
		fmt.Fprintln(w, "No series folders recorded")
		return
	}
	for _, m := range mappings {
		fmt.Fprintf(w, "%s [%s]\n", m.CanonicalName, m.Language)
		fmt.Fprintf(w, "  path:     %s/%s\n", m.DestinationRoot, m.CanonicalName)
		fmt.Fprintf(w, "  episodes: %d, seasons: %s\n", m.EpisodeCount, formatSeasons(m.Seasons))
		if len(m.Variations) > 1 {
			fmt.Fprintf(w, "  spellings: %s\n", strings.Join(m.Variations, " | "))
		}
		fmt.Fprintf(w, "  updated:  %s\n", humanize.Time(m.UpdatedAt))
	}
}

func runFoldersSuggestCmd(cmd *cobra.Command, args []string) error {
	language, _ := cmd.Flags().GetString("language")
	language = strings.ToLower(language)

	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	base, ok := cfg.Routing.TV[language]
	if !ok {
		return fmt.Errorf("no tv route configured for %q", language)
	}

	u := unify.New(unify.NewStore(db), cfg.Routing.LibraryRoot, cliLogger(cfg.Log.Level))
	suggestions, err := u.SuggestConsolidation(base, language)
	if errors.Is(err, unify.ErrNoRoot) {
		return fmt.Errorf("routing.library_root must point at a local mount of the share: %w", err)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, suggestions)
		return nil
	}
	printSuggestions(out, base, suggestions)
	return nil
}

func printSuggestions(w io.Writer, base string, suggestions []unify.Suggestion) {
	if len(suggestions) == 0 {
		fmt.Fprintf(w, "No duplicate folders under %s\n", base)
		return
	}
	for i, s := range suggestions {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Keep:   %s (seasons %s)\n", s.Primary, formatSeasons(s.Seasons[s.Primary]))
		for _, d := range s.Duplicates {
			fmt.Fprintf(w, "Merge:  %s (seasons %s)\n", d, formatSeasons(s.Seasons[d]))
		}
	}
}

func formatSeasons(seasons []int) string {
	if len(seasons) == 0 {
		return "-"
	}
	parts := make([]string, len(seasons))
	for i, s := range seasons {
		parts[i] = fmt.Sprint(s)
	}
	return strings.Join(parts, ",")
}
