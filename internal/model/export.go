package model

import "time"

// SessionExport is the top-level JSON structure for practice result export.
type SessionExport struct {
	SessionID    string          `json:"session_id"`
	Filing       string          `json:"filing"`
	ExportedAt   time.Time       `json:"exported_at"`
	AttemptCount int             `json:"attempt_count"`
	AverageScore float64         `json:"average_score"`
	Attempts     []AttemptExport `json:"attempts"`
}

// AttemptExport holds one graded attempt for export.
type AttemptExport struct {
	SectionID       string               `json:"section_id"`
	SectionTitle    string               `json:"section_title"`
	Difficulty      Difficulty           `json:"difficulty"`
	Draft           map[Component]string `json:"draft"`
	OverallScore    int                  `json:"overall_score"`
	LetterGrade     string               `json:"letter_grade"`
	ComponentScores ComponentScores      `json:"component_scores"`
	Feedback        Feedback             `json:"feedback"`
	GradedAt        time.Time            `json:"graded_at"`
}
