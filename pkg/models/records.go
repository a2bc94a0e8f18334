package models

// Record collections served by the generic records API. Each screen of
// the console is a thin view over one of these.
const (
	CollectionClients    = "clients"
	CollectionTasks      = "tasks"
	CollectionCompliance = "compliance"
	CollectionDocuments  = "documents"
	CollectionWorkpapers = "workpapers"
)

// KnownCollection reports whether name is a served record collection.
func KnownCollection(name string) bool {
	switch name {
	case CollectionClients, CollectionTasks, CollectionCompliance,
		CollectionDocuments, CollectionWorkpapers:
		return true
	}
	return false
}

// Client is a firm client record.
type Client struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Avatar  string `json:"avatar,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Status  string `json:"status,omitempty"`
	Manager string `json:"manager,omitempty"`
	// Created timestamp (ns)
	CreatedTS int64 `json:"created_ts,omitempty"`
}

// Task is a unit of work assigned to a staff member for a client.
type Task struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ClientID string `json:"client_id,omitempty"`
	Assignee string `json:"assignee,omitempty"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
	// Due timestamp (ns)
	DueTS     int64 `json:"due_ts,omitempty"`
	CreatedTS int64 `json:"created_ts,omitempty"`
}

// ComplianceItem is a filing obligation on the compliance calendar.
// Schedule holds an optional cron expression for recurring deadlines;
// the deadline scheduler keeps DueTS and Overdue current from it.
type ComplianceItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ClientID string `json:"client_id,omitempty"`
	Schedule string `json:"schedule,omitempty"`
	DueTS    int64  `json:"due_ts,omitempty"`
	Status   string `json:"status,omitempty"`
	Overdue  bool   `json:"overdue,omitempty"`
}

// Document is a stored client document reference. The file bytes live
// with the external file-storage collaborator; only metadata is kept here.
type Document struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ClientID   string `json:"client_id,omitempty"`
	Kind       string `json:"kind,omitempty"`
	SizeBytes  int64  `json:"size_bytes,omitempty"`
	UploadedBy string `json:"uploaded_by,omitempty"`
	CreatedTS  int64  `json:"created_ts,omitempty"`
}

// Workpaper is an engagement workpaper entry.
type Workpaper struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ClientID  string `json:"client_id,omitempty"`
	Period    string `json:"period,omitempty"`
	Status    string `json:"status,omitempty"`
	Preparer  string `json:"preparer,omitempty"`
	Reviewer  string `json:"reviewer,omitempty"`
	CreatedTS int64  `json:"created_ts,omitempty"`
}
