package domain

// AuditAction is the kind of an audit entry.
type AuditAction string

const (
	ActionLogin          AuditAction = "LOGIN"
	ActionExportDownload AuditAction = "EXPORT_DOWNLOAD"
	ActionExportEmail    AuditAction = "EXPORT_EMAIL"
	ActionDataUpdate     AuditAction = "DATA_UPDATE"
	ActionAdmin          AuditAction = "ADMIN_ACTION"
)

// AuditLog is an append-only activity entry.
type AuditLog struct {
	ID        string      `json:"id" bson:"_id"`
	Timestamp string      `json:"timestamp" bson:"timestamp"`
	Username  string      `json:"username" bson:"username"`
	UserEmail string      `json:"userEmail" bson:"userEmail"`
	Action    AuditAction `json:"action" bson:"action"`
	Details   string      `json:"details" bson:"details"`
}

const (
	// LocalLogCap bounds the audit window kept in local storage.
	LocalLogCap = 1000
	// RemoteLogLimit bounds a remote audit query.
	RemoteLogLimit = 500
)
