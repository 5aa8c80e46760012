package storage

import (
	"strings"
	"time"
)

// SessionMessageMatch is one hit from a transcript search.
type SessionMessageMatch struct {
	SessionID    string
	SessionName  string
	MessageIndex int
	Role         string
	Preview      string
	Timestamp    time.Time
}

// SearchIndex performs case-insensitive substring search across all stored
// session transcripts. System turns are excluded.
type SearchIndex struct {
	sessions *SessionStore
}

// NewSearchIndex creates a search index over a session store.
func NewSearchIndex(sessions *SessionStore) *SearchIndex {
	return &SearchIndex{sessions: sessions}
}

// SearchAllSessions returns every message containing the query, newest
// sessions first. An empty query matches nothing.
func (si *SearchIndex) SearchAllSessions(query string) ([]SessionMessageMatch, error) {
	if query == "" {
		return nil, nil
	}

	sessionList, err := si.sessions.List()
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var matches []SessionMessageMatch

	for _, meta := range sessionList {
		session, err := si.sessions.Load(meta.ID)
		if err != nil {
			continue
		}

		for i, msg := range session.Messages {
			if msg.Role == "system" {
				continue
			}
			if !strings.Contains(strings.ToLower(msg.Content), queryLower) {
				continue
			}

			preview := msg.Content
			if len(preview) > 100 {
				preview = preview[:100] + "..."
			}

			matches = append(matches, SessionMessageMatch{
				SessionID:    session.ID,
				SessionName:  session.Name,
				MessageIndex: i,
				Role:         msg.Role,
				Preview:      preview,
				Timestamp:    msg.Timestamp,
			})
		}
	}

	return matches, nil
}
