package domain

import "time"

const (
	BackupVersion = "1.0"
	SourceCloud   = "cloud"
	SourceLocal   = "local"
)

// BackupData holds each collection as an embedded JSON string. A nil field
// means the collection was absent when the backup was taken.
type BackupData struct {
	Records *string `json:"records"`
	Options *string `json:"options"`
	Users   *string `json:"users"`
	Logs    *string `json:"logs"`
}

// Backup is the portable snapshot written to and read from a single JSON file.
type Backup struct {
	Version   string      `json:"version"`
	Timestamp string      `json:"timestamp"`
	Source    string      `json:"source"`
	Data      *BackupData `json:"data"`
}

// Filename returns the download name for a backup taken at t.
func (b Backup) Filename(t time.Time) string {
	return "altra_crm_backup_" + t.Format(DateLayout) + ".json"
}

// RestoreResult describes a successful restore. Warning is non-empty when the
// data landed in local storage while the process runs against the remote store.
type RestoreResult struct {
	Warning string `json:"warning,omitempty"`
}

// RestoreToLocalWarning is reported when a restore happens in remote mode.
const RestoreToLocalWarning = "Restore is only fully supported in Local Mode to prevent cloud data corruption. The backup was written to local storage, not the remote store."
