// Package store persists profiles, credentials, sessions, generic
// console records and conversation snapshots in a Pebble database.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"ledgerdesk/pkg/logger"
	"ledgerdesk/pkg/models"
)

var (
	db     *pebble.DB
	dbPath string
)

// Key namespaces. Records sort by collection then id, so prefix scans
// return one collection at a time.
const (
	profilePrefix = "profile:"
	credPrefix    = "cred:"
	sessionPrefix = "session:"
	recordPrefix  = "record:"
	convPrefix    = "conv:"
)

// Open opens (or creates) a Pebble database at the given path and keeps
// a global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

func set(key string, v interface{}) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := db.Set([]byte(key), data, pebble.Sync); err != nil {
		logger.Error("store_set_failed", "key", key, "error", err)
		return err
	}
	return nil
}

func get(key string, v interface{}) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	data, closer, err := db.Get([]byte(key))
	if err != nil {
		return fmt.Errorf("not found: %s", key)
	}
	defer closer.Close()
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("corrupt value at %s: %w", key, err)
	}
	return nil
}

func del(key string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return db.Delete([]byte(key), pebble.Sync)
}

// scan returns raw values under prefix in key order.
func scan(prefix string) ([][]byte, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	p := []byte(prefix)
	var out [][]byte
	for iter.SeekGE(p); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), p) {
			break
		}
		out = append(out, append([]byte(nil), iter.Value()...))
	}
	return out, nil
}

// SaveProfile stores a profile under its id.
func SaveProfile(p models.Profile) error {
	return set(profilePrefix+p.ID, p)
}

// GetProfile loads a profile by id.
func GetProfile(id string) (models.Profile, error) {
	var p models.Profile
	err := get(profilePrefix+id, &p)
	return p, err
}

// ListProfiles returns all profiles in key order.
func ListProfiles() ([]models.Profile, error) {
	vals, err := scan(profilePrefix)
	if err != nil {
		return nil, err
	}
	out := make([]models.Profile, 0, len(vals))
	for _, v := range vals {
		var p models.Profile
		if json.Unmarshal(v, &p) == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// DeleteProfile removes a profile by id.
func DeleteProfile(id string) error {
	return del(profilePrefix + id)
}

// SaveCredential stores a credential under the sign-in email.
func SaveCredential(email string, c models.Credential) error {
	return set(credPrefix+email, c)
}

// GetCredential loads the credential for an email.
func GetCredential(email string) (models.Credential, error) {
	var c models.Credential
	err := get(credPrefix+email, &c)
	return c, err
}

// DeleteCredential removes the credential for an email.
func DeleteCredential(email string) error {
	return del(credPrefix + email)
}

// SaveSession stores a session under its token.
func SaveSession(s models.Session) error {
	return set(sessionPrefix+s.Token, s)
}

// GetSession loads a session by token.
func GetSession(token string) (models.Session, error) {
	var s models.Session
	err := get(sessionPrefix+token, &s)
	return s, err
}

// DeleteSession removes a session. Deleting an absent token is not an
// error.
func DeleteSession(token string) error {
	return del(sessionPrefix + token)
}

// SaveRecord stores a generic console record (clients, tasks,
// compliance, documents, workpapers) as raw JSON.
func SaveRecord(collection, id string, data []byte) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	key := recordPrefix + collection + ":" + id
	if err := db.Set([]byte(key), data, pebble.Sync); err != nil {
		logger.Error("save_record_failed", "collection", collection, "id", id, "error", err)
		return err
	}
	return nil
}

// GetRecord loads a record's raw JSON.
func GetRecord(collection, id string) ([]byte, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	data, closer, err := db.Get([]byte(recordPrefix + collection + ":" + id))
	if err != nil {
		return nil, fmt.Errorf("not found: %s/%s", collection, id)
	}
	defer closer.Close()
	return append([]byte(nil), data...), nil
}

// ListRecords returns all raw records in a collection, in key order.
func ListRecords(collection string) ([][]byte, error) {
	return scan(recordPrefix + collection + ":")
}

// DeleteRecord removes a record by id.
func DeleteRecord(collection, id string) error {
	return del(recordPrefix + collection + ":" + id)
}

// SaveConversation writes a conversation snapshot keyed by client id.
func SaveConversation(c models.Conversation) error {
	return set(convPrefix+c.ClientID, c)
}

// ListConversations loads all conversation snapshots, in key order.
func ListConversations() ([]models.Conversation, error) {
	vals, err := scan(convPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]models.Conversation, 0, len(vals))
	for _, v := range vals {
		var c models.Conversation
		if err := json.Unmarshal(v, &c); err != nil {
			logger.Warn("conversation_snapshot_corrupt", "error", err)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// SizeBytes reports the approximate on-disk size of the database, for
// the metrics endpoint. Best effort; zero when unavailable.
func SizeBytes() uint64 {
	if db == nil {
		return 0
	}
	m := db.Metrics()
	if m == nil {
		return 0
	}
	return m.DiskSpaceUsage()
}
