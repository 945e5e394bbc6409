package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vmunix/mediaroute/internal/detect"
	"github.com/vmunix/mediaroute/internal/events"
	"github.com/vmunix/mediaroute/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show processed files",
	Long: `List processing history, newest first.

Examples:
  mediaroute history --status failed
  mediaroute history --language malayalam --type tvshow --limit 50
  mediaroute history --orphans
  mediaroute history --stats`,
	Args: cobra.NoArgs,
	RunE: runHistoryCmd,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show recent scan sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionsCmd,
}

var fileEventsCmd = &cobra.Command{
	Use:   "events [file-id]",
	Short: "Show the event trail of one history record, or the latest events",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFileEventsCmd,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(sessionsCmd)
	historyCmd.AddCommand(fileEventsCmd)

	historyCmd.Flags().StringP("status", "s", "", "Filter by status (pending, processing, success, failed, dry-run)")
	historyCmd.Flags().StringP("language", "l", "", "Filter by language (malayalam, english, bollywood)")
	historyCmd.Flags().StringP("type", "t", "", "Filter by type (movie, tvshow)")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum records to show")
	historyCmd.Flags().Bool("orphans", false, "Only show episodes filed without a recognised series")
	historyCmd.Flags().Bool("stats", false, "Show totals by type, language and status")

	sessionsCmd.Flags().IntP("limit", "n", 10, "Maximum sessions to show")
	fileEventsCmd.Flags().IntP("limit", "n", 20, "Maximum events to show without a file id")
}

// HistoryItem is one history record as shown by the CLI.
type HistoryItem struct {
	ID          int64      `json:"id"`
	Filename    string     `json:"filename"`
	Status      string     `json:"status"`
	Type        string     `json:"type"`
	Language    string     `json:"language"`
	Destination string     `json:"destination,omitempty"`
	SizeBytes   int64      `json:"size_bytes"`
	Saved       int64      `json:"saved_bytes,omitempty"`
	Orphan      bool       `json:"orphan,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	showStats, _ := cmd.Flags().GetBool("stats")

	filter, err := historyFilter(cmd)
	if err != nil {
		return err
	}

	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	store := history.NewStore(db)

	out := cmd.OutOrStdout()
	if showStats {
		rows, err := store.Stats()
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(out, rows)
			return nil
		}
		printStats(out, rows)
		return nil
	}

	files, err := store.List(filter)
	if err != nil {
		return err
	}
	items := make([]HistoryItem, 0, len(files))
	for _, f := range files {
		items = append(items, toHistoryItem(f))
	}
	if jsonOutput {
		printJSON(out, items)
		return nil
	}
	printHistory(out, items)
	return nil
}

func historyFilter(cmd *cobra.Command) (history.Filter, error) {
	status, _ := cmd.Flags().GetString("status")
	language, _ := cmd.Flags().GetString("language")
	mediaType, _ := cmd.Flags().GetString("type")
	limit, _ := cmd.Flags().GetInt("limit")
	orphans, _ := cmd.Flags().GetBool("orphans")

	f := history.Filter{Limit: limit, Orphan: orphans}
	if status != "" {
		s := history.Status(strings.ToLower(status))
		switch s {
		case history.StatusPending, history.StatusProcessing, history.StatusSuccess,
			history.StatusFailed, history.StatusDryRun:
		default:
			return f, fmt.Errorf("unknown status %q", status)
		}
		f.Status = &s
	}
	if language != "" {
		l := detect.Language(strings.ToLower(language))
		f.Language = &l
	}
	if mediaType != "" {
		t := detect.MediaType(strings.ToLower(mediaType))
		f.Type = &t
	}
	return f, nil
}

func toHistoryItem(f *history.MediaFile) HistoryItem {
	return HistoryItem{
		ID:          f.ID,
		Filename:    f.OriginalFilename,
		Status:      string(f.Status),
		Type:        string(f.Type),
		Language:    string(f.Language),
		Destination: f.DestinationPath,
		SizeBytes:   f.SizeBytes,
		Saved:       f.SizeReductionBytes,
		Orphan:      f.Orphan,
		Error:       f.ErrorMessage,
		CreatedAt:   f.CreatedAt,
		CompletedAt: f.CompletedAt,
	}
}

func printHistory(w io.Writer, items []HistoryItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No history")
		return
	}

	fmt.Fprintf(w, "  %-5s %-10s %-10s %-9s %-40s %s\n", "ID", "STATUS", "LANGUAGE", "SIZE", "FILE", "WHEN")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 90))
	for _, it := range items {
		name := it.Filename
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		if it.Orphan {
			name = "*" + name
		}
		fmt.Fprintf(w, "  %-5d %-10s %-10s %-9s %-40s %s\n",
			it.ID, it.Status, it.Language, humanize.IBytes(uint64(it.SizeBytes)), name, humanize.Time(it.CreatedAt))
		if it.Error != "" {
			fmt.Fprintf(w, "        error: %s\n", it.Error)
		}
	}
}

func printStats(w io.Writer, rows []history.StatRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No history")
		return
	}

	var files int
	var bytes, saved int64
	fmt.Fprintf(w, "  %-8s %-10s %-10s %6s %10s %10s\n", "TYPE", "LANGUAGE", "STATUS", "FILES", "SIZE", "SAVED")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 60))
	for _, r := range rows {
		fmt.Fprintf(w, "  %-8s %-10s %-10s %6d %10s %10s\n",
			r.Type, r.Language, r.Status, r.Count, humanize.IBytes(uint64(r.TotalBytes)), humanize.IBytes(uint64(r.Saved)))
		files += r.Count
		bytes += r.TotalBytes
		saved += r.Saved
	}
	fmt.Fprintf(w, "\n  %s files, %s total, %s saved by extraction\n",
		humanize.Comma(int64(files)), humanize.IBytes(uint64(bytes)), humanize.IBytes(uint64(saved)))
}

func runSessionsCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	sessions, err := history.NewStore(db).Sessions(limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, sessions)
		return nil
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions")
		return nil
	}
	fmt.Fprintf(out, "  %-36s %-14s %5s %5s %5s %5s %10s\n", "SESSION", "STARTED", "FOUND", "DONE", "OK", "FAIL", "BYTES")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))
	for _, s := range sessions {
		fmt.Fprintf(out, "  %-36s %-14s %5d %5d %5d %5d %10s\n",
			s.ID, humanize.Time(s.StartedAt), s.FilesFound, s.Processed, s.Succeeded, s.Failed,
			humanize.IBytes(uint64(s.TotalBytes)))
	}
	return nil
}

func runFileEventsCmd(cmd *cobra.Command, args []string) error {
	var id int64
	if len(args) == 1 {
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid file id %q", args[0])
		}
		id = n
	}
	limit, _ := cmd.Flags().GetInt("limit")

	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	log := events.NewEventLog(db)
	var evts []events.RawEvent
	if id > 0 {
		evts, err = log.ForFile(id)
	} else {
		evts, err = log.Recent(limit)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, evts)
		return nil
	}
	if len(evts) == 0 {
		fmt.Fprintln(out, "No events")
		return nil
	}
	for _, raw := range evts {
		fmt.Fprintf(out, "  %s  %-22s %s\n", raw.OccurredAt.Local().Format(time.DateTime), raw.EventType, describeEvent(raw))
	}
	return nil
}

func describeEvent(raw events.RawEvent) string {
	e, err := events.Decode(raw)
	if err != nil {
		return raw.Payload
	}
	switch e := e.(type) {
	case *events.FileEvent:
		switch {
		case e.Error != "":
			return fmt.Sprintf("#%d %s: %s", e.ID, e.Name, e.Error)
		case e.Destination != "":
			return fmt.Sprintf("#%d %s -> %s", e.ID, e.Name, e.Destination)
		default:
			return fmt.Sprintf("#%d %s", e.ID, e.Name)
		}
	case *events.ScanCompleted:
		return fmt.Sprintf("found %d, processed %d, ok %d, failed %d (%s)",
			e.FilesFound, e.Processed, e.Succeeded, e.Failed, humanize.IBytes(uint64(e.TotalBytes)))
	}
	return raw.Payload
}
