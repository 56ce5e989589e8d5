// Package store keeps the session's graded attempts. The default DSN is
// ":memory:", so nothing survives the process; a file path can be given
// when a deployment wants the export command to see past runs.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/qnotes/smap/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	if dsn != ":memory:" {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	// Each pooled connection would get its own in-memory database, so the
	// pool is pinned to a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS practice_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		section_id TEXT NOT NULL,
		section_title TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		subjective TEXT NOT NULL DEFAULT '',
		metrics TEXT NOT NULL DEFAULT '',
		assessment TEXT NOT NULL DEFAULT '',
		plan TEXT NOT NULL DEFAULT '',
		overall_score INTEGER NOT NULL DEFAULT 0,
		letter_grade TEXT NOT NULL DEFAULT '',
		score_subjective INTEGER NOT NULL DEFAULT 0,
		score_metrics INTEGER NOT NULL DEFAULT 0,
		score_assessment INTEGER NOT NULL DEFAULT 0,
		score_plan INTEGER NOT NULL DEFAULT 0,
		feedback TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS session_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordAttempt stores one graded attempt.
func (s *Store) RecordAttempt(rec model.PracticeRecord) (int64, error) {
	feedback, err := json.Marshal(rec.Result.Feedback)
	if err != nil {
		return 0, fmt.Errorf("encode feedback: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := s.db.Exec(
		`INSERT INTO practice_records
		 (section_id, section_title, difficulty, subjective, metrics, assessment, plan,
		  overall_score, letter_grade, score_subjective, score_metrics, score_assessment, score_plan,
		  feedback, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SectionID, rec.SectionTitle, rec.Difficulty,
		rec.Draft[model.ComponentSubjective], rec.Draft[model.ComponentMetrics],
		rec.Draft[model.ComponentAssessment], rec.Draft[model.ComponentPlan],
		rec.Result.OverallScore, rec.Result.LetterGrade,
		rec.Result.ComponentScores[model.ComponentSubjective],
		rec.Result.ComponentScores[model.ComponentMetrics],
		rec.Result.ComponentScores[model.ComponentAssessment],
		rec.Result.ComponentScores[model.ComponentPlan],
		string(feedback), createdAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const recordColumns = `id, section_id, section_title, difficulty,
	subjective, metrics, assessment, plan,
	overall_score, letter_grade,
	score_subjective, score_metrics, score_assessment, score_plan,
	feedback, created_at`

func scanRecord(row interface{ Scan(...any) error }) (model.PracticeRecord, error) {
	var rec model.PracticeRecord
	var subjective, metrics, assessment, plan string
	var sSubj, sMetr, sAssess, sPlan int
	var feedback string

	err := row.Scan(
		&rec.ID, &rec.SectionID, &rec.SectionTitle, &rec.Difficulty,
		&subjective, &metrics, &assessment, &plan,
		&rec.Result.OverallScore, &rec.Result.LetterGrade,
		&sSubj, &sMetr, &sAssess, &sPlan,
		&feedback, &rec.CreatedAt,
	)
	if err != nil {
		return rec, err
	}

	rec.Draft = map[model.Component]string{
		model.ComponentSubjective: subjective,
		model.ComponentMetrics:    metrics,
		model.ComponentAssessment: assessment,
		model.ComponentPlan:       plan,
	}
	rec.Result.ComponentScores = model.ComponentScores{
		model.ComponentSubjective: sSubj,
		model.ComponentMetrics:    sMetr,
		model.ComponentAssessment: sAssess,
		model.ComponentPlan:       sPlan,
	}
	rec.Result.SectionTitle = rec.SectionTitle
	if feedback != "" {
		if err := json.Unmarshal([]byte(feedback), &rec.Result.Feedback); err != nil {
			return rec, fmt.Errorf("decode feedback for record %d: %w", rec.ID, err)
		}
	}
	return rec, nil
}

// GetRecord returns a single attempt by id.
func (s *Store) GetRecord(id int64) (model.PracticeRecord, error) {
	row := s.db.QueryRow(`SELECT `+recordColumns+` FROM practice_records WHERE id = ?`, id)
	return scanRecord(row)
}

// ListRecords returns all attempts oldest first.
func (s *Store) ListRecords() ([]model.PracticeRecord, error) {
	rows, err := s.db.Query(`SELECT ` + recordColumns + ` FROM practice_records ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.PracticeRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// History returns the attempts in the shape the collaborator's get_insights
// action expects, oldest first.
func (s *Store) History() ([]model.HistoryEntry, error) {
	records, err := s.ListRecords()
	if err != nil {
		return nil, err
	}
	entries := make([]model.HistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, rec.HistoryEntry())
	}
	return entries, nil
}

// CompletedSectionIDs returns the distinct section ids that have at least
// one graded attempt, in first-completion order.
func (s *Store) CompletedSectionIDs() ([]string, error) {
	rows, err := s.db.Query(
		`SELECT section_id FROM practice_records GROUP BY section_id ORDER BY MIN(id)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AttemptCount returns the number of graded attempts.
func (s *Store) AttemptCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM practice_records`).Scan(&count)
	return count, err
}

// AverageScore returns the mean overall score, or 0 with no attempts.
func (s *Store) AverageScore() (float64, error) {
	var avg sql.NullFloat64
	err := s.db.QueryRow(`SELECT AVG(overall_score) FROM practice_records`).Scan(&avg)
	if err != nil {
		return 0, err
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}
