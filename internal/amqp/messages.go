package amqp

import (
	"encoding/json"
	"time"
)

// BackupMessage asks the worker to append one transaction to the backup
// target. It carries only the ID and version; the worker fetches the full
// row from the database.
type BackupMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBackupMessage creates a backup message for a transaction.
func NewBackupMessage(id string, version int64) *BackupMessage {
	return &BackupMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *BackupMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BackupMessageFromJSON creates a message from JSON bytes.
func BackupMessageFromJSON(data []byte) (*BackupMessage, error) {
	var msg BackupMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
