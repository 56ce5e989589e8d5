package model

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Component identifies one of the four fixed parts of a SMAP note.
type Component string

const (
	ComponentSubjective Component = "subjective"
	ComponentMetrics    Component = "metrics"
	ComponentAssessment Component = "assessment"
	ComponentPlan       Component = "plan"
)

// Components lists the four SMAP components in presentation order.
// The set is closed: no other keys are ever valid in a draft or a score map.
var Components = []Component{
	ComponentSubjective,
	ComponentMetrics,
	ComponentAssessment,
	ComponentPlan,
}

// ValidComponent reports whether key is one of the four SMAP components.
func ValidComponent(key Component) bool {
	switch key {
	case ComponentSubjective, ComponentMetrics, ComponentAssessment, ComponentPlan:
		return true
	}
	return false
}

// Difficulty represents a section's difficulty level.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Section is one practiceable portion of a filing. Sections are created by
// the catalog and immutable for the rest of the session.
type Section struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Difficulty         Difficulty `json:"difficulty"`
	Part               string     `json:"part,omitempty"`
	Content            string     `json:"content"`
	LearningObjectives []string   `json:"learning_objectives,omitempty"`
	SMAPFocus          string     `json:"smap_focus,omitempty"`
}

// ComponentScores maps each SMAP component to a 0-100 score.
type ComponentScores map[Component]int

// UnmarshalJSON accepts both wire shapes the collaborator has used for
// per-component scores: a flat integer, or an object carrying a "score"
// field alongside per-component feedback.
func (cs *ComponentScores) UnmarshalJSON(data []byte) error {
	var flat map[Component]int
	if err := json.Unmarshal(data, &flat); err == nil {
		*cs = flat
		return nil
	}

	var nested map[Component]struct {
		Score int `json:"score"`
	}
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}
	out := make(ComponentScores, len(nested))
	for k, v := range nested {
		out[k] = v.Score
	}
	*cs = out
	return nil
}

// Feedback is the collaborator's commentary on a graded submission.
// The wire format is negotiated: some collaborator versions return a plain
// string, others a structured object. Both decode into this type.
type Feedback struct {
	Text         string   `json:"text,omitempty"`
	Strengths    []string `json:"strengths,omitempty"`
	Improvements []string `json:"improvements,omitempty"`
	NextSteps    []string `json:"next_steps,omitempty"`
}

// IsZero reports whether no feedback was provided at all.
func (f Feedback) IsZero() bool {
	return f.Text == "" && len(f.Strengths) == 0 && len(f.Improvements) == 0 && len(f.NextSteps) == 0
}

func (f *Feedback) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = Feedback{Text: s}
		return nil
	}

	// Structured variant. Older collaborator builds used longer key names.
	var obj struct {
		Text          string   `json:"text"`
		Strengths     []string `json:"strengths"`
		WhatYouDidOK  []string `json:"what_you_did_well"`
		Improvements  []string `json:"improvements"`
		AreasToFix    []string `json:"areas_for_improvement"`
		NextSteps     []string `json:"next_steps"`
		LearningNotes string   `json:"learning_insights"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	out := Feedback{
		Text:         obj.Text,
		Strengths:    obj.Strengths,
		Improvements: obj.Improvements,
		NextSteps:    obj.NextSteps,
	}
	if len(out.Strengths) == 0 {
		out.Strengths = obj.WhatYouDidOK
	}
	if len(out.Improvements) == 0 {
		out.Improvements = obj.AreasToFix
	}
	if out.Text == "" {
		out.Text = obj.LearningNotes
	}
	*f = out
	return nil
}

func (f Feedback) MarshalJSON() ([]byte, error) {
	if f.Text != "" && len(f.Strengths) == 0 && len(f.Improvements) == 0 && len(f.NextSteps) == 0 {
		return json.Marshal(f.Text)
	}
	type plain Feedback
	return json.Marshal(plain(f))
}

// GradingResult is the collaborator's structured verdict on one submitted
// draft. It is read-only on this side: the overall score is treated as the
// authoritative value even when it is not the mean of the component scores.
type GradingResult struct {
	OverallScore    int             `json:"overall_score"`
	LetterGrade     string          `json:"letter_grade"`
	ComponentScores ComponentScores `json:"component_scores"`
	Feedback        Feedback        `json:"detailed_feedback"`
	SectionTitle    string          `json:"section_title,omitempty"`
	GradedAt        string          `json:"grading_timestamp,omitempty"`
}

// Normalize fills in fields the collaborator may omit: a missing letter
// grade is derived from the overall score, and a missing component map is
// completed so all four keys are present.
func (g *GradingResult) Normalize() {
	if g.LetterGrade == "" {
		g.LetterGrade = LetterGradeFor(g.OverallScore)
	}
	if g.ComponentScores == nil {
		g.ComponentScores = make(ComponentScores, len(Components))
	}
	for _, c := range Components {
		if _, ok := g.ComponentScores[c]; !ok {
			g.ComponentScores[c] = 0
		}
	}
}

// LetterGradeFor maps a 0-100 score to a letter grade using the fixed
// grading-scale thresholds.
func LetterGradeFor(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// TeachingContent is the optional walkthrough shown before drafting.
type TeachingContent struct {
	Explanation  map[Component]string `json:"smap_explanation"`
	Example      map[Component]string `json:"example_smap"`
	LearningTips []string             `json:"learning_tips"`
}

// InsightsSummary aggregates the session's graded attempts.
type InsightsSummary struct {
	AverageScore      float64  `json:"average_score"`
	SessionsCompleted int      `json:"sessions_completed"`
	Trend             string   `json:"trend,omitempty"`
	Strengths         []string `json:"strengths"`
	Weaknesses        []string `json:"weaknesses"`
	Recommendations   []string `json:"recommendations"`
	NextFocus         []string `json:"next_focus"`
}

// UnmarshalJSON tolerates the older collaborator shape that nests the
// aggregate numbers under an "overall_progress" object.
func (s *InsightsSummary) UnmarshalJSON(data []byte) error {
	type plain InsightsSummary
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var nested struct {
		Overall *struct {
			AverageScore  float64 `json:"average_score"`
			TotalSessions int     `json:"total_sessions"`
			Trend         string  `json:"trend"`
		} `json:"overall_progress"`
	}
	if err := json.Unmarshal(data, &nested); err == nil && nested.Overall != nil {
		p.AverageScore = nested.Overall.AverageScore
		p.SessionsCompleted = nested.Overall.TotalSessions
		if p.Trend == "" {
			p.Trend = nested.Overall.Trend
		}
	}

	*s = InsightsSummary(p)
	return nil
}

// HistoryEntry is one past graded attempt as sent to the collaborator in a
// get_insights request.
type HistoryEntry struct {
	SectionTitle string     `json:"section_title"`
	OverallScore int        `json:"overall_score"`
	Difficulty   Difficulty `json:"difficulty"`
	Date         string     `json:"date"`
}

// PracticeRecord is one completed attempt kept in the session store.
type PracticeRecord struct {
	ID           int64                `json:"id"`
	SectionID    string               `json:"section_id"`
	SectionTitle string               `json:"section_title"`
	Difficulty   Difficulty           `json:"difficulty"`
	Draft        map[Component]string `json:"draft"`
	Result       GradingResult        `json:"result"`
	CreatedAt    time.Time            `json:"created_at"`
}

// HistoryEntry converts the record to the collaborator's insights shape.
func (r PracticeRecord) HistoryEntry() HistoryEntry {
	return HistoryEntry{
		SectionTitle: r.SectionTitle,
		OverallScore: r.Result.OverallScore,
		Difficulty:   r.Difficulty,
		Date:         r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// WordCount counts whitespace-separated words across all draft fields.
func WordCount(fields map[Component]string) int {
	n := 0
	for _, v := range fields {
		n += len(strings.Fields(v))
	}
	return n
}

type sessionCtxKey struct{}

// ContextWithSessionID stores the practice session id in the context.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, id)
}

// SessionIDFromContext retrieves the practice session id, or "".
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionCtxKey{}).(string)
	return id
}
