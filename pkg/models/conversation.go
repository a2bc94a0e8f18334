package models

// Conversation status values.
const (
	ConversationUnassigned = "unassigned"
	ConversationAssigned   = "assigned"
)

// Message origin values.
const (
	MessageFromClient = "client"
	MessageFromStaff  = "staff"
)

// Message is one entry in a conversation. Messages are append-only and
// never edited or deleted; ID is a per-conversation sequence, not a
// global identifier.
type Message struct {
	ID     int    `json:"id"`
	From   string `json:"from"`
	Text   string `json:"text"`
	Author string `json:"author"`
	// Timestamp is a display string, set when the message is appended.
	Timestamp string `json:"timestamp"`
	// Private marks staff replies shown with a privacy badge in the
	// console. Cosmetic only; it is not an encryption mechanism.
	Private bool `json:"private,omitempty"`
}

// Conversation is the message thread between one client and the firm.
// Exactly one conversation exists per client. Invariant: Status is
// "assigned" iff AssigneeID is set.
type Conversation struct {
	ID           string `json:"id"`
	ClientID     string `json:"client_id"`
	ClientName   string `json:"client_name"`
	ClientAvatar string `json:"client_avatar,omitempty"`
	Status       string `json:"status"`
	AssigneeID   string `json:"assignee_id,omitempty"`
	AssigneeName string `json:"assignee_name,omitempty"`

	Messages []Message `json:"messages"`
	// Last activity timestamp (ns); inbox display sorts on this, descending.
	LastActivityTS int64 `json:"last_activity_ts"`
}

// Assigned reports whether the conversation has an owner.
func (c *Conversation) Assigned() bool { return c.Status == ConversationAssigned }
