// Package draft holds the learner's in-progress SMAP answer for the
// section currently being practiced. The store always carries exactly the
// four fixed component keys; nothing here outlives the session.
package draft

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/qnotes/smap/internal/model"
)

// Total word target across all four sections, used for the time estimate.
const targetWords = 400

// Assumed writing speed in words per minute.
const wordsPerMinute = 20

// Store is the in-memory draft for one practice attempt.
type Store struct {
	mu        sync.Mutex
	fields    map[model.Component]string
	lastSaved time.Time
}

// New returns an empty draft with all four component keys present.
func New() *Store {
	s := &Store{}
	s.fields = emptyFields()
	return s
}

func emptyFields() map[model.Component]string {
	m := make(map[model.Component]string, len(model.Components))
	for _, c := range model.Components {
		m[c] = ""
	}
	return m
}

// Get returns the current text for a component. Unknown keys read as "".
func (s *Store) Get(key model.Component) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields[key]
}

// Set replaces the text for one component. Keys outside the fixed SMAP set
// are rejected so the draft can never grow extra fields.
func (s *Store) Set(key model.Component, value string) error {
	if !model.ValidComponent(key) {
		return &model.ValidationError{Reason: fmt.Sprintf("unknown draft field %q", key)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[key] = value
	s.lastSaved = time.Now()
	return nil
}

// Fields returns a copy of all four fields.
func (s *Store) Fields() map[model.Component]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[model.Component]string, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}

// IsEmpty reports whether every field is empty or whitespace-only.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.fields {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Reset clears all four fields back to empty strings.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = emptyFields()
	s.lastSaved = time.Time{}
}

// Progress summarizes how far along the draft is.
type Progress struct {
	SectionsCompleted int       `json:"sections_completed"`
	TotalSections     int       `json:"total_sections"`
	CompletionPercent float64   `json:"completion_percentage"`
	WordCount         int       `json:"word_count"`
	EstimatedMinutes  int       `json:"estimated_time_remaining"`
	LastSaved         time.Time `json:"last_saved,omitempty"`
}

// Progress computes completion metrics for the current draft: a section
// counts as completed once it has any non-whitespace content, and the time
// estimate assumes roughly 20 words per minute against a 400-word target.
func (s *Store) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := 0
	words := 0
	for _, v := range s.fields {
		if strings.TrimSpace(v) != "" {
			completed++
		}
		words += len(strings.Fields(v))
	}

	remaining := (targetWords - words) / wordsPerMinute
	if remaining < 0 {
		remaining = 0
	}

	return Progress{
		SectionsCompleted: completed,
		TotalSections:     len(model.Components),
		CompletionPercent: float64(completed) / float64(len(model.Components)) * 100,
		WordCount:         words,
		EstimatedMinutes:  remaining,
		LastSaved:         s.lastSaved,
	}
}
