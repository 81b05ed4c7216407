// Package chatlog appends every delivered message to a daily log file.
package chatlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/enessquik/whatsapp-video-bot/pkg/bus"
)

// Record is one line of the daily log.
type Record struct {
	Timestamp   string                 `json:"timestamp"`
	ID          string                 `json:"id"`
	From        string                 `json:"from"`
	Participant string                 `json:"participant,omitempty"`
	Message     map[string]interface{} `json:"message,omitempty"`
}

// Writer appends JSON-line records to one file per UTC calendar date.
type Writer struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Append writes one record. Failures are returned for reporting but the
// caller is expected to continue handling the message regardless.
func (w *Writer) Append(msg bus.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now().UTC()
	rec := Record{
		Timestamp:   now.Format(time.RFC3339),
		ID:          msg.ID,
		From:        msg.ChatID,
		Participant: msg.ParticipantID,
		Message:     msg.Raw,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal log record: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(w.dir, now.Format("2006-01-02")+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open daily log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append log record: %w", err)
	}
	return nil
}
