package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/systemis/ai-virtual-interviewer/internal/interview"
)

// ErrNotFound is returned when an interview record does not exist
var ErrNotFound = errors.New("interview not found")

// Record is one persisted interview session. Scores are denormalized out
// of the feedback payload so history listings can show them without
// decoding JSON.
type Record struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	JobRole            string    `json:"jobRole"`
	ExperienceLevel    string    `json:"experienceLevel"`
	InterviewType      string    `json:"interviewType"`
	Conversation       string    `json:"conversation"`
	Feedback           string    `json:"feedback"`
	OverallScore       int       `json:"overallScore"`
	CommunicationScore int       `json:"communicationScore"`
	TechnicalScore     int       `json:"technicalScore"`
	QuestionCount      int       `json:"questionCount"`
	CompletedAt        time.Time `json:"completedAt"`
}

// Store persists finished interviews in SQLite
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the database at path and runs migrations
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS interviews (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			job_role TEXT NOT NULL,
			experience_level TEXT NOT NULL,
			interview_type TEXT NOT NULL,
			conversation TEXT NOT NULL,
			feedback TEXT NOT NULL,
			overall_score INTEGER NOT NULL,
			communication_score INTEGER NOT NULL,
			technical_score INTEGER NOT NULL,
			question_count INTEGER NOT NULL,
			completed_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_interviews_user ON interviews(user_id, completed_at);`,
	}
	for _, q := range stmts {
		if _, err := s.DB.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Save writes one finished interview and returns its record ID
func (s *Store) Save(ctx context.Context, userID string, cfg interview.SessionConfig, transcript interview.Transcript, report *interview.FeedbackReport, questionCount int) (string, error) {
	if report == nil {
		return "", errors.New("feedback report required")
	}

	conversation, err := json.Marshal(transcript)
	if err != nil {
		return "", fmt.Errorf("marshal conversation: %w", err)
	}
	feedback, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal feedback: %w", err)
	}

	id := uuid.New().String()
	_, err = s.DB.ExecContext(ctx, `INSERT INTO interviews(
		id, user_id, job_role, experience_level, interview_type,
		conversation, feedback, overall_score, communication_score,
		technical_score, question_count, completed_at
	) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, userID, cfg.JobRole, string(cfg.ExperienceLevel), string(cfg.InterviewType),
		string(conversation), string(feedback), report.OverallScore, report.CommunicationScore,
		report.TechnicalScore, questionCount, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("insert interview: %w", err)
	}
	return id, nil
}

// ListByUser returns the user's past interviews, most recent first
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT
		id, user_id, job_role, experience_level, interview_type,
		conversation, feedback, overall_score, communication_score,
		technical_score, question_count, completed_at
	FROM interviews WHERE user_id = ? ORDER BY completed_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetByID returns one interview record
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT
		id, user_id, job_role, experience_level, interview_type,
		conversation, feedback, overall_score, communication_score,
		technical_score, question_count, completed_at
	FROM interviews WHERE id = ?`, id)

	record, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Delete removes one interview record
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM interviews WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(scan func(dest ...any) error) (Record, error) {
	var r Record
	var completedAt int64
	err := scan(
		&r.ID, &r.UserID, &r.JobRole, &r.ExperienceLevel, &r.InterviewType,
		&r.Conversation, &r.Feedback, &r.OverallScore, &r.CommunicationScore,
		&r.TechnicalScore, &r.QuestionCount, &completedAt)
	if err != nil {
		return Record{}, err
	}
	r.CompletedAt = time.Unix(completedAt, 0).UTC()
	return r, nil
}

// SessionSaver adapts the store to the sequencer's persistence contract
// for one user's session.
type SessionSaver struct {
	Store  *Store
	UserID string
}

// Save persists the finished session
func (s *SessionSaver) Save(ctx context.Context, cfg interview.SessionConfig, transcript interview.Transcript, report *interview.FeedbackReport, questionCount int) error {
	_, err := s.Store.Save(ctx, s.UserID, cfg, transcript, report, questionCount)
	return err
}
