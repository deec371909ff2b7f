package models

import (
	"encoding/json"
	"time"
)

const ProgressCursorVersion = 1

// ProgressCursor marks how far a run has advanced through its prioritized
// sender list. Serialized into CleanupRun.ProgressCursor.
type ProgressCursor struct {
	Version      int       `json:"version"`
	SenderIndex  int       `json:"sender_index"`
	LastSenderID string    `json:"last_sender_id"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewProgressCursor(senderIndex int, lastSenderID string) ProgressCursor {
	return ProgressCursor{
		Version:      ProgressCursorVersion,
		SenderIndex:  senderIndex,
		LastSenderID: lastSenderID,
		Timestamp:    time.Now().UTC(),
	}
}

func (c ProgressCursor) Encode() string {
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return string(raw)
}

// ParseProgressCursor decodes a stored cursor. A missing, malformed,
// wrong-version or out-of-range cursor degrades to index 0 so a resume
// replays from the start rather than failing.
func ParseProgressCursor(raw string) ProgressCursor {
	if raw == "" {
		return ProgressCursor{Version: ProgressCursorVersion}
	}

	var cursor ProgressCursor
	if err := json.Unmarshal([]byte(raw), &cursor); err != nil {
		return ProgressCursor{Version: ProgressCursorVersion}
	}
	if cursor.Version != ProgressCursorVersion || cursor.SenderIndex < 0 {
		return ProgressCursor{Version: ProgressCursorVersion}
	}

	return cursor
}
