package events

// Entity types.
const (
	EntityMediaFile = "media_file"
	EntityScan      = "scan"
)

// File event types.
const (
	EventTransferStarted     = "transfer.started"
	EventTransferSucceeded   = "transfer.succeeded"
	EventTransferFailed      = "transfer.failed"
	EventDryRun              = "transfer.dry_run"
	EventExtractionSucceeded = "extraction.succeeded"
	EventExtractionFailed    = "extraction.failed"
	EventScanCompleted       = "scan.completed"
)

// FileEvents lists every per-file event type.
var FileEvents = []string{
	EventTransferStarted,
	EventTransferSucceeded,
	EventTransferFailed,
	EventDryRun,
	EventExtractionSucceeded,
	EventExtractionFailed,
}

// FileEvent reports a step in processing one media file. The entity ID is
// the history record ID.
type FileEvent struct {
	Header
	Name        string `json:"name"`
	SourcePath  string `json:"source_path"`
	Destination string `json:"destination,omitempty"`
	MediaType   string `json:"media_type"`
	Language    string `json:"language"`
	SizeBytes   int64  `json:"size_bytes"`
	Error       string `json:"error,omitempty"`
}

// NewFileEvent creates a FileEvent of the given type for a history record.
func NewFileEvent(eventType string, fileID int64) *FileEvent {
	return &FileEvent{Header: newHeader(eventType, EntityMediaFile, fileID)}
}

// ScanCompleted is emitted at the end of each scan pass.
type ScanCompleted struct {
	Header
	SessionID  string `json:"session_id"`
	FilesFound int    `json:"files_found"`
	Processed  int    `json:"processed"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	TotalBytes int64  `json:"total_bytes"`
}

// NewScanCompleted creates the summary event for a finished session.
func NewScanCompleted(sessionID string) *ScanCompleted {
	return &ScanCompleted{Header: newHeader(EventScanCompleted, EntityScan, 0), SessionID: sessionID}
}
