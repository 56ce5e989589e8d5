// Package workflow drives a practice session through its states: pick a
// section, optionally study the teaching material, write the four SMAP
// components, submit for grading, review the result, and look at
// session-level insights.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/qnotes/smap/internal/draft"
	"github.com/qnotes/smap/internal/model"
)

// State names the controller's position in the practice loop.
type State string

const (
	StateSelecting  State = "selecting_section"
	StateTeaching   State = "teaching"
	StateDrafting   State = "drafting"
	StateSubmitting State = "submitting"
	StateResult     State = "showing_result"
	StateInsights   State = "showing_insights"
)

// Collaborator is the remote grading service the controller talks to.
type Collaborator interface {
	Teach(ctx context.Context, section model.Section) (model.TeachingContent, error)
	Grade(ctx context.Context, fields map[model.Component]string, section model.Section) (model.GradingResult, error)
	Insights(ctx context.Context, history []model.HistoryEntry) (model.InsightsSummary, error)
	AssignNext(ctx context.Context, completed []string, available []model.Section) (*model.Section, error)
}

// Recorder persists graded attempts and answers history queries.
type Recorder interface {
	RecordAttempt(rec model.PracticeRecord) (int64, error)
	History() ([]model.HistoryEntry, error)
	CompletedSectionIDs() ([]string, error)
}

// SectionSource lists the sections a session can practice.
type SectionSource interface {
	ListSections() []model.Section
	Get(id string) (model.Section, bool)
}

type Config struct {
	// TeachingEnabled routes section selection through the teaching
	// state before drafting.
	TeachingEnabled bool
	// AllowEmptySubmit permits grading a draft with all four
	// components blank.
	AllowEmptySubmit bool
}

// Controller is safe for concurrent use. Remote calls run without the
// lock held; their results are applied only if no newer request or
// state change superseded them in the meantime.
type Controller struct {
	cfg     Config
	collab  Collaborator
	rec     Recorder
	catalog SectionSource
	logger  *slog.Logger

	mu          sync.Mutex
	state       State
	section     model.Section
	hasSection  bool
	draft       *draft.Store
	teaching    model.TeachingContent
	hasTeaching bool
	result      model.GradingResult
	hasResult   bool
	insights    model.InsightsSummary
	hasInsights bool
	lastErr     error
	submitGen   uint64
	insightsGen uint64
	closed      bool

	onTransition []func(from, to State)
}

func New(cfg Config, collab Collaborator, rec Recorder, catalog SectionSource, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:     cfg,
		collab:  collab,
		rec:     rec,
		catalog: catalog,
		logger:  logger,
		state:   StateSelecting,
		draft:   draft.New(),
	}
}

// OnTransition registers a callback invoked (under the controller lock)
// after every state change.
func (c *Controller) OnTransition(fn func(from, to State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTransition = append(c.onTransition, fn)
}

// setState must be called with c.mu held.
func (c *Controller) setState(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	for _, fn := range c.onTransition {
		fn(from, to)
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot captures everything a handler needs to render the session.
type Snapshot struct {
	State     State
	Section   *model.Section
	Draft     map[model.Component]string
	Progress  draft.Progress
	Teaching  *model.TeachingContent
	Result    *model.GradingResult
	Insights  *model.InsightsSummary
	LastError string
	ErrorKind string
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:    c.state,
		Draft:    c.draft.Fields(),
		Progress: c.draft.Progress(),
	}
	if c.hasSection {
		sec := c.section
		snap.Section = &sec
	}
	if c.hasTeaching {
		t := c.teaching
		snap.Teaching = &t
	}
	if c.hasResult {
		r := c.result
		snap.Result = &r
	}
	if c.hasInsights {
		i := c.insights
		snap.Insights = &i
	}
	if c.lastErr != nil {
		snap.LastError = c.lastErr.Error()
		snap.ErrorKind = errorKind(c.lastErr)
	}
	return snap
}

// SelectSection moves from selecting_section into teaching (when enabled)
// or straight into drafting. The draft is reset for the new section.
func (c *Controller) SelectSection(ctx context.Context, sectionID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errClosed()
	}
	if c.state != StateSelecting {
		c.mu.Unlock()
		return &model.ValidationError{Reason: "a section is already in progress"}
	}
	section, ok := c.catalog.Get(sectionID)
	if !ok {
		c.mu.Unlock()
		return &model.ValidationError{Reason: "unknown section: " + sectionID}
	}

	c.section = section
	c.hasSection = true
	c.draft.Reset()
	c.teaching = model.TeachingContent{}
	c.hasTeaching = false
	c.result = model.GradingResult{}
	c.hasResult = false
	c.lastErr = nil

	if !c.cfg.TeachingEnabled {
		c.setState(StateDrafting)
		c.mu.Unlock()
		return nil
	}
	c.setState(StateTeaching)
	c.mu.Unlock()

	teaching, err := c.collab.Teach(ctx, section)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != StateTeaching || c.section.ID != section.ID {
		return model.ErrStaleResponse
	}
	if err != nil {
		// Teaching is best-effort: fall through to drafting and
		// surface the error alongside.
		c.logger.Warn("teaching material unavailable", "section", section.ID, "error", err)
		c.lastErr = err
		c.setState(StateDrafting)
		return err
	}
	c.teaching = teaching
	c.hasTeaching = true
	return nil
}

// ProceedToDrafting leaves the teaching view for the draft editor.
func (c *Controller) ProceedToDrafting() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed()
	}
	if c.state != StateTeaching {
		return &model.ValidationError{Reason: "not in the teaching state"}
	}
	c.setState(StateDrafting)
	return nil
}

// UpdateField writes one SMAP component of the draft.
func (c *Controller) UpdateField(component model.Component, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed()
	}
	if c.state != StateDrafting {
		return &model.ValidationError{Reason: "drafting is not active"}
	}
	return c.draft.Set(component, value)
}

// Submit sends the draft for grading. While the call is in flight the
// controller sits in submitting and rejects further submits; a response
// arriving after a Reset or a newer submit is dropped with
// ErrStaleResponse.
func (c *Controller) Submit(ctx context.Context) (model.GradingResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return model.GradingResult{}, errClosed()
	}
	if c.state != StateDrafting {
		c.mu.Unlock()
		return model.GradingResult{}, &model.ValidationError{Reason: "no draft ready to submit"}
	}
	if !c.cfg.AllowEmptySubmit && c.draft.IsEmpty() {
		c.mu.Unlock()
		return model.GradingResult{}, &model.ValidationError{Reason: "the draft is empty"}
	}

	c.submitGen++
	gen := c.submitGen
	section := c.section
	fields := c.draft.Fields()
	c.lastErr = nil
	c.setState(StateSubmitting)
	c.mu.Unlock()

	result, err := c.collab.Grade(ctx, fields, section)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.submitGen || c.state != StateSubmitting {
		return model.GradingResult{}, model.ErrStaleResponse
	}
	if err != nil {
		// The draft is untouched so the user can retry.
		c.lastErr = err
		c.setState(StateDrafting)
		return model.GradingResult{}, err
	}

	result.Normalize()
	if result.SectionTitle == "" {
		result.SectionTitle = section.Title
	}
	c.result = result
	c.hasResult = true
	c.setState(StateResult)

	if c.rec != nil {
		rec := model.PracticeRecord{
			SectionID:    section.ID,
			SectionTitle: section.Title,
			Difficulty:   section.Difficulty,
			Draft:        fields,
			Result:       result,
		}
		if _, recErr := c.rec.RecordAttempt(rec); recErr != nil {
			c.logger.Error("record attempt", "section", section.ID, "error", recErr)
		}
	}
	return result, nil
}

// RequestInsights fetches session-level insights from the result view.
// With no graded history the collaborator still gets the request and the
// empty summary it returns is shown as-is.
func (c *Controller) RequestInsights(ctx context.Context) (model.InsightsSummary, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return model.InsightsSummary{}, errClosed()
	}
	if c.state != StateResult {
		c.mu.Unlock()
		return model.InsightsSummary{}, &model.ValidationError{Reason: "insights are only available after a result"}
	}
	c.insightsGen++
	gen := c.insightsGen
	c.lastErr = nil
	c.mu.Unlock()

	var history []model.HistoryEntry
	if c.rec != nil {
		var err error
		history, err = c.rec.History()
		if err != nil {
			c.logger.Error("load history", "error", err)
			history = nil
		}
	}

	insights, err := c.collab.Insights(ctx, history)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.insightsGen || c.state != StateResult {
		return model.InsightsSummary{}, model.ErrStaleResponse
	}
	if err != nil {
		c.lastErr = err
		return model.InsightsSummary{}, err
	}
	c.insights = insights
	c.hasInsights = true
	c.setState(StateInsights)
	return insights, nil
}

// PracticeAnother returns to section selection after a result.
func (c *Controller) PracticeAnother() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed()
	}
	if c.state != StateResult {
		return &model.ValidationError{Reason: "no result to leave"}
	}
	c.backToSelecting()
	return nil
}

// ReviewAnswers reopens the draft after a result. The submitted text is
// still there for editing.
func (c *Controller) ReviewAnswers() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed()
	}
	if c.state != StateResult {
		return &model.ValidationError{Reason: "no result to review"}
	}
	c.setState(StateDrafting)
	return nil
}

// ContinuePractice asks the collaborator for the next section after the
// insights view and starts drafting it. When the assignment call fails
// the current section is kept; when every available section is already
// completed the controller stays on the insights view and reports it.
func (c *Controller) ContinuePractice(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errClosed()
	}
	if c.state != StateInsights {
		c.mu.Unlock()
		return &model.ValidationError{Reason: "not in the insights view"}
	}
	current := c.section
	c.mu.Unlock()

	var completed []string
	if c.rec != nil {
		var err error
		completed, err = c.rec.CompletedSectionIDs()
		if err != nil {
			c.logger.Error("load completed sections", "error", err)
		}
	}
	next, err := c.collab.AssignNext(ctx, completed, c.catalog.ListSections())
	if err != nil {
		c.logger.Warn("assign next section", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != StateInsights {
		return model.ErrStaleResponse
	}
	if err == nil && next == nil {
		// Everything available is completed. Stay on the insights view
		// and let the caller choose a section explicitly.
		return &model.ValidationError{Reason: "all available sections are completed"}
	}
	if next != nil {
		c.section = *next
		c.hasSection = true
	} else {
		c.section = current
	}
	c.draft.Reset()
	c.result = model.GradingResult{}
	c.hasResult = false
	c.lastErr = nil
	c.setState(StateDrafting)
	return nil
}

// ChooseAnotherSection returns to section selection from the insights view.
func (c *Controller) ChooseAnotherSection() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed()
	}
	if c.state != StateInsights {
		return &model.ValidationError{Reason: "not in the insights view"}
	}
	c.backToSelecting()
	return nil
}

// Reset abandons everything and returns to section selection. In-flight
// grading or insights responses become stale.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.submitGen++
	c.insightsGen++
	c.backToSelecting()
}

// backToSelecting must be called with c.mu held.
func (c *Controller) backToSelecting() {
	c.section = model.Section{}
	c.hasSection = false
	c.draft.Reset()
	c.teaching = model.TeachingContent{}
	c.hasTeaching = false
	c.result = model.GradingResult{}
	c.hasResult = false
	c.insights = model.InsightsSummary{}
	c.hasInsights = false
	c.lastErr = nil
	c.setState(StateSelecting)
}

// Close stops the controller. Every later call and every in-flight
// response is rejected.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.submitGen++
	c.insightsGen++
}

func errClosed() error {
	return &model.ValidationError{Reason: "the session is closed"}
}

// errorKind labels an error for API responses.
func errorKind(err error) string {
	var verr *model.ValidationError
	var terr *model.TransportError
	var berr *model.BackendError
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &terr):
		return "transport"
	case errors.As(err, &berr):
		return "backend"
	default:
		return "unknown"
	}
}
