// Package catalog manages the list of filing sections available for
// practice. Sections come from the built-in 10-Q set, from JSON files, or
// from the grading collaborator; once loaded they are immutable for the
// session.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/qnotes/smap/internal/model"
)

// Catalog is an order-stable collection of practice sections.
type Catalog struct {
	mu       sync.RWMutex
	sections []model.Section
	byID     map[string]int
}

// New returns a catalog seeded with the built-in 10-Q section set.
func New() *Catalog {
	c := &Catalog{}
	c.replace(builtinSections())
	return c
}

// Empty returns a catalog with no sections, for callers that load
// everything from files or the collaborator.
func Empty() *Catalog {
	c := &Catalog{}
	c.replace(nil)
	return c
}

func (c *Catalog) replace(sections []model.Section) {
	byID := make(map[string]int, len(sections))
	for i, s := range sections {
		byID[s.ID] = i
	}
	c.sections = sections
	c.byID = byID
}

// ListSections returns all sections in their stable load order.
func (c *Catalog) ListSections() []model.Section {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Section, len(c.sections))
	copy(out, c.sections)
	return out
}

// ListByDifficulty returns the sections matching a difficulty. An empty
// difficulty means no filtering.
func (c *Catalog) ListByDifficulty(d model.Difficulty) []model.Section {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.Section
	for _, s := range c.sections {
		if d == "" || s.Difficulty == d {
			out = append(out, s)
		}
	}
	return out
}

// Get returns the section with the given id.
func (c *Catalog) Get(id string) (model.Section, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return model.Section{}, false
	}
	return c.sections[i], true
}

// Len returns the number of sections.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sections)
}

// LoadFile appends sections parsed from a JSON file. Sections whose id is
// already present are skipped so re-loading a file cannot produce
// duplicates or mutate existing sections mid-session.
func (c *Catalog) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	var sections []model.Section
	if err := json.Unmarshal(data, &sections); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return c.add(sections), nil
}

// Replace swaps the catalog contents for a collaborator-sourced list.
// An empty list is rejected so a degraded fetch cannot wipe out the
// sections the learner already sees.
func (c *Catalog) Replace(sections []model.Section) error {
	if len(sections) == 0 {
		return fmt.Errorf("refusing to replace catalog with empty section list")
	}
	for _, s := range sections {
		if s.ID == "" {
			return fmt.Errorf("section %q has no id", s.Title)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replace(sections)
	return nil
}

func (c *Catalog) add(sections []model.Section) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	added := 0
	for _, s := range sections {
		if s.ID == "" {
			continue
		}
		if _, exists := c.byID[s.ID]; exists {
			continue
		}
		c.byID[s.ID] = len(c.sections)
		c.sections = append(c.sections, s)
		added++
	}
	return added
}
