// Package inbox owns the client<->staff conversations and the
// single-assignee claiming protocol over the shared staff inbox.
package inbox

import (
	"sort"
	"sync"
	"time"

	"ledgerdesk/pkg/logger"
	"ledgerdesk/pkg/models"
	"ledgerdesk/pkg/utils"
)

// Persister receives conversation snapshots after every mutation so an
// inbox survives restarts. Persistence failures are logged, never
// surfaced; the in-memory registry is the source of truth while the
// process runs.
type Persister interface {
	SaveConversation(c models.Conversation) error
}

// PersisterFunc adapts a plain function to the Persister interface.
type PersisterFunc func(models.Conversation) error

func (f PersisterFunc) SaveConversation(c models.Conversation) error { return f(c) }

// Registry manages conversation lifecycle. It is constructed explicitly
// by the composition root and passed by handle; there is no package
// singleton. All exported methods are safe for concurrent use, but Claim
// is not a cross-process compare-and-set: two processes sharing a store
// could still both believe they claimed a conversation. Callers are
// expected to check status before acting.
type Registry struct {
	mu       sync.Mutex
	convs    []*models.Conversation
	byClient map[string]*models.Conversation
	byID     map[string]*models.Conversation
	persist  Persister

	// now is swappable in tests
	now func() time.Time
}

// New builds a registry seeded with the given conversations, in order.
// persist may be nil for a purely in-memory registry.
func New(initial []models.Conversation, persist Persister) *Registry {
	r := &Registry{
		byClient: make(map[string]*models.Conversation),
		byID:     make(map[string]*models.Conversation),
		persist:  persist,
		now:      time.Now,
	}
	for i := range initial {
		c := initial[i]
		if _, dup := r.byClient[c.ClientID]; dup {
			logger.Warn("inbox_duplicate_client_dropped", "client", c.ClientID, "conv", c.ID)
			continue
		}
		cp := c
		r.convs = append(r.convs, &cp)
		r.byClient[cp.ClientID] = &cp
		r.byID[cp.ID] = &cp
	}
	return r
}

// FindUnassigned returns all unassigned conversations in registry order.
// No recency guarantee; callers wanting the inbox ordering must sort by
// LastActivityTS themselves.
func (r *Registry) FindUnassigned() []models.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Conversation
	for _, c := range r.convs {
		if c.Status == models.ConversationUnassigned {
			out = append(out, snapshot(c))
		}
	}
	return out
}

// FindByID returns the conversation with the given id, if any.
func (r *Registry) FindByID(convID string) (models.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[convID]
	if !ok {
		return models.Conversation{}, false
	}
	return snapshot(c), true
}

// FindByClient returns the conversation for the given client id, if any.
func (r *Registry) FindByClient(clientID string) (models.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byClient[clientID]
	if !ok {
		return models.Conversation{}, false
	}
	return snapshot(c), true
}

// FindOrCreate returns the existing conversation for clientID, or
// creates an unassigned, empty one inserted at the front of the
// registry. Idempotent by client id: calling it twice never creates a
// duplicate.
func (r *Registry) FindOrCreate(clientID, clientName, clientAvatar string) models.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byClient[clientID]; ok {
		return snapshot(c)
	}
	c := &models.Conversation{
		ID:             utils.NewID(),
		ClientID:       clientID,
		ClientName:     clientName,
		ClientAvatar:   clientAvatar,
		Status:         models.ConversationUnassigned,
		LastActivityTS: r.now().UTC().UnixNano(),
	}
	r.convs = append([]*models.Conversation{c}, r.convs...)
	r.byClient[clientID] = c
	r.byID[c.ID] = c
	r.save(c)
	logger.Info("conversation_created", "conv", c.ID, "client", clientID)
	return snapshot(c)
}

// Claim transitions an unassigned conversation to assigned, owned by the
// given staff member. Unknown ids and already-assigned conversations are
// silent no-ops, not errors.
func (r *Registry) Claim(convID, staffID, staffName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[convID]
	if !ok {
		logger.Debug("claim_unknown_conversation", "conv", convID)
		return
	}
	if c.Status != models.ConversationUnassigned {
		logger.Debug("claim_already_assigned", "conv", convID, "assignee", c.AssigneeID)
		return
	}
	c.Status = models.ConversationAssigned
	c.AssigneeID = staffID
	c.AssigneeName = staffName
	r.save(c)
	logger.Info("conversation_claimed", "conv", convID, "staff", staffID)
}

// AppendMessage appends a message to the conversation, assigning the
// next per-conversation id (message count + 1, valid only because
// messages are append-only) and bumping last activity. Unknown
// conversation ids are a silent no-op.
func (r *Registry) AppendMessage(convID string, m models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[convID]
	if !ok {
		logger.Debug("append_unknown_conversation", "conv", convID)
		return
	}
	now := r.now().UTC()
	m.ID = len(c.Messages) + 1
	if m.Timestamp == "" {
		m.Timestamp = now.Format("15:04")
	}
	c.Messages = append(c.Messages, m)
	c.LastActivityTS = now.UnixNano()
	r.save(c)
	logger.Info("message_appended", "conv", convID, "msg_id", m.ID, "from", m.From)
}

// Inbox returns every conversation ordered by last activity, descending,
// for the staff inbox view.
func (r *Registry) Inbox() []models.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Conversation, 0, len(r.convs))
	for _, c := range r.convs {
		out = append(out, snapshot(c))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastActivityTS > out[j].LastActivityTS })
	return out
}

func (r *Registry) save(c *models.Conversation) {
	if r.persist == nil {
		return
	}
	if err := r.persist.SaveConversation(snapshot(c)); err != nil {
		logger.Error("conversation_persist_failed", "conv", c.ID, "error", err)
	}
}

// snapshot copies a conversation so screens hold read-only views.
func snapshot(c *models.Conversation) models.Conversation {
	cp := *c
	cp.Messages = append([]models.Message(nil), c.Messages...)
	return cp
}
