package store

import (
	"time"

	"github.com/qnotes/smap/internal/model"
)

// ExportSession collects every graded attempt into a single export document.
func (s *Store) ExportSession(sessionID string) (model.SessionExport, error) {
	exp := model.SessionExport{
		SessionID:  sessionID,
		ExportedAt: time.Now(),
	}

	filing, err := s.GetMetadata("filing")
	if err != nil {
		return exp, err
	}
	exp.Filing = filing

	records, err := s.ListRecords()
	if err != nil {
		return exp, err
	}

	var total int
	for _, rec := range records {
		exp.Attempts = append(exp.Attempts, model.AttemptExport{
			SectionID:       rec.SectionID,
			SectionTitle:    rec.SectionTitle,
			Difficulty:      rec.Difficulty,
			Draft:           rec.Draft,
			OverallScore:    rec.Result.OverallScore,
			LetterGrade:     rec.Result.LetterGrade,
			ComponentScores: rec.Result.ComponentScores,
			Feedback:        rec.Result.Feedback,
			GradedAt:        rec.CreatedAt,
		})
		total += rec.Result.OverallScore
	}

	exp.AttemptCount = len(records)
	if exp.AttemptCount > 0 {
		exp.AverageScore = float64(total) / float64(exp.AttemptCount)
	}
	return exp, nil
}
