package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
)

// Session is the attempt state kept on the device between runs.
type Session struct {
	QuizID          uint            `json:"quizId"`
	Team            entity.TeamInfo `json:"team"`
	Answers         entity.Answers  `json:"answers"`
	StartTime       time.Time       `json:"startTime"`
	CurrentQuestion int             `json:"currentQuestion"`
	// EndFormOpened is set once the attempt reached the end form; TimeTaken
	// is fixed at that moment and may legitimately be 0
	EndFormOpened bool      `json:"endFormOpened,omitempty"`
	TimeTaken     int       `json:"timeTaken,omitempty"`
	SavedAt       time.Time `json:"savedAt"`
}

// LocalStore persists the session on the device. Load returns nil, nil when
// nothing is stored.
type LocalStore interface {
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}

// FileStore keeps the session as a JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore stores the session at path, creating parent directories on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", s.path, err)
	}
	return &session, nil
}

// Save writes to a temp file and renames it so a crash never leaves half a session.
func (s *FileStore) Save(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
