package store

import (
	"testing"
	"time"

	"github.com/qnotes/smap/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestAttempt(t *testing.T, s *Store, sectionID, title string, score int) int64 {
	t.Helper()
	result := model.GradingResult{
		OverallScore: score,
		ComponentScores: model.ComponentScores{
			model.ComponentSubjective: score,
			model.ComponentMetrics:    score,
			model.ComponentAssessment: score,
			model.ComponentPlan:       score,
		},
		Feedback:     model.Feedback{Text: "feedback for " + title},
		SectionTitle: title,
	}
	result.Normalize()

	id, err := s.RecordAttempt(model.PracticeRecord{
		SectionID:    sectionID,
		SectionTitle: title,
		Difficulty:   model.DifficultyBeginner,
		Draft: map[model.Component]string{
			model.ComponentSubjective: "management tone for " + title,
			model.ComponentMetrics:    "revenue up 6.8%",
			model.ComponentAssessment: "stable quarter",
			model.ComponentPlan:       "watch margins",
		},
		Result:    result,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("insertTestAttempt: %v", err)
	}
	return id
}

func TestRecordAndGet(t *testing.T) {
	s := newTestStore(t)

	count, err := s.AttemptCount()
	if err != nil {
		t.Fatalf("AttemptCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 attempts, got %d", count)
	}

	id := insertTestAttempt(t, s, "financial_statements", "Financial Statements", 88)

	rec, err := s.GetRecord(id)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.SectionID != "financial_statements" {
		t.Errorf("section id = %q, want financial_statements", rec.SectionID)
	}
	if rec.Result.OverallScore != 88 {
		t.Errorf("overall score = %d, want 88", rec.Result.OverallScore)
	}
	if rec.Result.LetterGrade != "B" {
		t.Errorf("letter grade = %q, want B", rec.Result.LetterGrade)
	}
	if got := rec.Draft[model.ComponentMetrics]; got != "revenue up 6.8%" {
		t.Errorf("metrics draft = %q", got)
	}
	if rec.Result.Feedback.Text != "feedback for Financial Statements" {
		t.Errorf("feedback = %q", rec.Result.Feedback.Text)
	}
	if len(rec.Result.ComponentScores) != 4 {
		t.Errorf("expected 4 component scores, got %d", len(rec.Result.ComponentScores))
	}
}

func TestListRecordsOrder(t *testing.T) {
	s := newTestStore(t)

	insertTestAttempt(t, s, "financial_statements", "Financial Statements", 70)
	insertTestAttempt(t, s, "md_a", "Management Discussion and Analysis", 85)
	insertTestAttempt(t, s, "financial_statements", "Financial Statements", 92)

	records, err := s.ListRecords()
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Result.OverallScore != 70 || records[2].Result.OverallScore != 92 {
		t.Errorf("records out of insertion order: %d, %d, %d",
			records[0].Result.OverallScore, records[1].Result.OverallScore, records[2].Result.OverallScore)
	}
}

func TestHistory(t *testing.T) {
	s := newTestStore(t)

	history, err := s.History()
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(history))
	}

	insertTestAttempt(t, s, "md_a", "Management Discussion and Analysis", 85)

	history, err = s.History()
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(history))
	}
	entry := history[0]
	if entry.SectionTitle != "Management Discussion and Analysis" {
		t.Errorf("section title = %q", entry.SectionTitle)
	}
	if entry.OverallScore != 85 {
		t.Errorf("overall score = %d, want 85", entry.OverallScore)
	}
	if entry.Date == "" {
		t.Error("expected non-empty date")
	}
}

func TestCompletedSectionIDs(t *testing.T) {
	s := newTestStore(t)

	insertTestAttempt(t, s, "md_a", "Management Discussion and Analysis", 60)
	insertTestAttempt(t, s, "financial_statements", "Financial Statements", 70)
	insertTestAttempt(t, s, "md_a", "Management Discussion and Analysis", 90)

	ids, err := s.CompletedSectionIDs()
	if err != nil {
		t.Fatalf("CompletedSectionIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 distinct sections, got %d", len(ids))
	}
	if ids[0] != "md_a" || ids[1] != "financial_statements" {
		t.Errorf("unexpected order: %v", ids)
	}
}

func TestAverageScore(t *testing.T) {
	s := newTestStore(t)

	avg, err := s.AverageScore()
	if err != nil {
		t.Fatalf("AverageScore: %v", err)
	}
	if avg != 0 {
		t.Errorf("expected 0 average for empty store, got %f", avg)
	}

	insertTestAttempt(t, s, "md_a", "Management Discussion and Analysis", 80)
	insertTestAttempt(t, s, "financial_statements", "Financial Statements", 90)

	avg, err = s.AverageScore()
	if err != nil {
		t.Fatalf("AverageScore: %v", err)
	}
	if avg != 85 {
		t.Errorf("average = %f, want 85", avg)
	}
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)

	val, err := s.GetMetadata("filing")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if val != "" {
		t.Errorf("expected empty value, got %q", val)
	}

	if err := s.SetMetadata("filing", "ACME Corp 10-Q Q2 2026"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	if err := s.SetMetadata("filing", "ACME Corp 10-Q Q3 2026"); err != nil {
		t.Fatalf("SetMetadata overwrite: %v", err)
	}

	val, err = s.GetMetadata("filing")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if val != "ACME Corp 10-Q Q3 2026" {
		t.Errorf("value = %q", val)
	}
}

func TestExportSession(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetMetadata("filing", "ACME Corp 10-Q"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	insertTestAttempt(t, s, "md_a", "Management Discussion and Analysis", 80)
	insertTestAttempt(t, s, "financial_statements", "Financial Statements", 90)

	exp, err := s.ExportSession("sess-123")
	if err != nil {
		t.Fatalf("ExportSession: %v", err)
	}
	if exp.SessionID != "sess-123" {
		t.Errorf("session id = %q", exp.SessionID)
	}
	if exp.Filing != "ACME Corp 10-Q" {
		t.Errorf("filing = %q", exp.Filing)
	}
	if exp.AttemptCount != 2 {
		t.Errorf("attempt count = %d, want 2", exp.AttemptCount)
	}
	if exp.AverageScore != 85 {
		t.Errorf("average = %f, want 85", exp.AverageScore)
	}
	if len(exp.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(exp.Attempts))
	}
	if exp.Attempts[1].LetterGrade != "A" {
		t.Errorf("letter grade = %q, want A", exp.Attempts[1].LetterGrade)
	}
}
