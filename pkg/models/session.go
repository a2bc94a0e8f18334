package models

// Session is proof of current authentication. Opaque to the rest of the
// system beyond "present or absent"; the token is the whole secret.
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	// Created timestamp (ns)
	CreatedTS int64 `json:"created_ts"`
	// Expiry timestamp (ns); zero means no expiry
	ExpiresTS int64 `json:"expires_ts,omitempty"`
}
