package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/chat"
)

// AppendChatMessage stores one chat message for projectID.
func (s *SQLiteStore) AppendChatMessage(projectID string, msg chat.Message) error {
	id := msg.MessageID
	if id == "" {
		id = uuid.NewString()
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	mt := string(msg.MessageType)
	if mt == "" {
		mt = string(chat.TypeInfo)
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO chat_messages (id, project_id, session_id, sender, content, message_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, projectID, msg.SessionID, string(msg.Sender), msg.Content, mt, formatTime(ts))
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// ChatTranscript returns the messages of projectID in send order. A non-empty
// sessionID restricts the result to that session.
func (s *SQLiteStore) ChatTranscript(projectID, sessionID string) ([]ChatRecord, error) {
	query := `
		SELECT id, project_id, session_id, sender, content, message_type, created_at
		FROM chat_messages WHERE project_id = ?`
	args := []any{projectID}
	if sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY created_at, rowid"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ChatRecord
	for rows.Next() {
		var r ChatRecord
		var createdAt string
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.SessionID, &r.Sender, &r.Content, &r.MessageType, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		out = append(out, r)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, err
	}
	return out, nil
}
