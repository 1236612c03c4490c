// Package storage persists settings, conversations, and jokes as flat
// JSON files under a data directory. Single-process, mutex-guarded; no
// transactional guarantees.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"llmarena/internal/domain"
)

const (
	settingsFile      = "settings.json"
	conversationsFile = "conversations.json"
	jokesFile         = "jokes.json"
)

// DefaultSettings mirrors the defaults used before any settings are saved.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		SelectedModels:        []string{},
		GlobalSystemPrompt:    "You are a helpful assistant.",
		GlobalTemperature:     0.7,
		GlobalThinkingEnabled: false,
		GlobalThinkingBudget:  1024,
		ModelOverrides:        map[string]domain.ModelOverride{},
	}
}

type Store struct {
	mu  sync.Mutex
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Store) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	// Write-then-rename keeps readers from ever seeing a torn file.
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return os.Rename(tmp, path)
}

// GetSettings returns the stored settings, or defaults when none exist or
// the file is unreadable.
func (s *Store) GetSettings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	var settings domain.Settings
	if err := s.readJSON(settingsFile, &settings); err != nil {
		return DefaultSettings()
	}
	if settings.ModelOverrides == nil {
		settings.ModelOverrides = map[string]domain.ModelOverride{}
	}
	return settings
}

func (s *Store) SaveSettings(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(settingsFile, settings)
}

// Conversations returns every stored conversation, oldest first.
func (s *Store) Conversations() ([]domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationsLocked()
}

func (s *Store) conversationsLocked() ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	if err := s.readJSON(conversationsFile, &conversations); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return conversations, nil
}

// SaveConversation appends a finished evaluation record, assigning an ID
// and timestamp when missing.
func (s *Store) SaveConversation(conv domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	if conv.Timestamp.IsZero() {
		conv.Timestamp = time.Now().UTC()
	}

	conversations, err := s.conversationsLocked()
	if err != nil {
		return err
	}
	conversations = append(conversations, conv)
	return s.writeJSON(conversationsFile, conversations)
}

// Jokes returns the joke wall, oldest first.
func (s *Store) Jokes() ([]domain.Joke, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jokesLocked()
}

func (s *Store) jokesLocked() ([]domain.Joke, error) {
	var jokes []domain.Joke
	if err := s.readJSON(jokesFile, &jokes); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return jokes, nil
}

func (s *Store) SaveJoke(joke domain.Joke) (domain.Joke, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if joke.ID == "" {
		joke.ID = uuid.New().String()
	}
	if joke.Timestamp.IsZero() {
		joke.Timestamp = time.Now().UTC()
	}
	if joke.Comments == nil {
		joke.Comments = []domain.JokeComment{}
	}

	jokes, err := s.jokesLocked()
	if err != nil {
		return domain.Joke{}, err
	}
	jokes = append(jokes, joke)
	if err := s.writeJSON(jokesFile, jokes); err != nil {
		return domain.Joke{}, err
	}
	return joke, nil
}

// AddComment appends a comment to a joke.
func (s *Store) AddComment(jokeID string, comment domain.JokeComment) (domain.Joke, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if comment.Timestamp.IsZero() {
		comment.Timestamp = time.Now().UTC()
	}

	return s.updateJokeLocked(jokeID, func(j *domain.Joke) {
		j.Comments = append(j.Comments, comment)
	})
}

// VoteJoke adjusts a joke's score by delta (+1 or -1).
func (s *Store) VoteJoke(jokeID string, delta int) (domain.Joke, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateJokeLocked(jokeID, func(j *domain.Joke) {
		j.Score += delta
	})
}

func (s *Store) updateJokeLocked(jokeID string, apply func(*domain.Joke)) (domain.Joke, error) {
	jokes, err := s.jokesLocked()
	if err != nil {
		return domain.Joke{}, err
	}

	for i := range jokes {
		if jokes[i].ID == jokeID {
			apply(&jokes[i])
			if err := s.writeJSON(jokesFile, jokes); err != nil {
				return domain.Joke{}, err
			}
			return jokes[i], nil
		}
	}
	return domain.Joke{}, domain.ErrJokeNotFound
}
