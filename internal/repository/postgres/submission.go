package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/email-shooter/internal/domain"
	"github.com/ignite/email-shooter/internal/service/campaign"
)

const schema = `
	CREATE TABLE IF NOT EXISTS campaign_submissions (
		id              UUID PRIMARY KEY,
		draft_id        TEXT NOT NULL,
		subject         TEXT NOT NULL,
		recipient_count INTEGER NOT NULL,
		attachment_name TEXT,
		status          TEXT NOT NULL,
		message         TEXT NOT NULL DEFAULT '',
		submitted_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_campaign_submissions_submitted_at
		ON campaign_submissions (submitted_at DESC);
`

// SubmissionRepo implements campaign.History against PostgreSQL.
type SubmissionRepo struct{ db *sql.DB }

// NewSubmissionRepo creates a Postgres-backed submission history.
func NewSubmissionRepo(db *sql.DB) *SubmissionRepo { return &SubmissionRepo{db: db} }

// EnsureSchema creates the submissions table if it does not exist.
func (r *SubmissionRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure submissions schema: %w", err)
	}
	return nil
}

func (r *SubmissionRepo) Record(ctx context.Context, s *domain.Submission) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaign_submissions
			(id, draft_id, subject, recipient_count, attachment_name, status, message, submitted_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
	`, s.ID, s.DraftID, s.Subject, s.RecipientCount, s.AttachmentName,
		string(s.Status), s.Message, s.SubmittedAt)
	if err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepo) Find(ctx context.Context, id string) (*domain.Submission, error) {
	s := &domain.Submission{}
	var status string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, draft_id, subject, recipient_count, COALESCE(attachment_name,''),
		       status, message, submitted_at
		FROM campaign_submissions
		WHERE id = $1
	`, id).Scan(&s.ID, &s.DraftID, &s.Subject, &s.RecipientCount,
		&s.AttachmentName, &status, &s.Message, &s.SubmittedAt)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find submission: %w", err)
	}
	s.Status = domain.SubmissionStatus(status)
	return s, nil
}

func (r *SubmissionRepo) Recent(ctx context.Context, limit int) ([]domain.Submission, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, draft_id, subject, recipient_count, COALESCE(attachment_name,''),
		       status, message, submitted_at
		FROM campaign_submissions
		ORDER BY submitted_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		var s domain.Submission
		var status string
		if err := rows.Scan(&s.ID, &s.DraftID, &s.Subject, &s.RecipientCount,
			&s.AttachmentName, &status, &s.Message, &s.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		s.Status = domain.SubmissionStatus(status)
		out = append(out, s)
	}
	return out, rows.Err()
}
