package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/email-shooter/internal/archive"
	"github.com/ignite/email-shooter/internal/domain"
	"github.com/ignite/email-shooter/internal/metrics"
	"github.com/ignite/email-shooter/internal/pkg/logger"
)

// Service submits validated drafts to the sending service. History,
// Archive and Locker are optional; a nil collaborator is skipped.
// All public methods are safe for concurrent use if the collaborators are.
type Service struct {
	sender  Sender
	history History
	archive Archive
	locks   Locker
	now     func() time.Time
}

// Option configures optional collaborators of a Service.
type Option func(*Service)

// WithHistory records every submission outcome in h.
func WithHistory(h History) Option { return func(s *Service) { s.history = h } }

// WithArchive stores every submission outcome in a.
func WithArchive(a Archive) Option { return func(s *Service) { s.archive = a } }

// WithLocker guards submissions of the same draft with l.
func WithLocker(l Locker) Option { return func(s *Service) { s.locks = l } }

// NewService creates a submission service backed by the given sender.
func NewService(sender Sender, opts ...Option) *Service {
	s := &Service{sender: sender, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit hands draft to the sending service and records the outcome.
// The returned submission is non-nil whenever the sender was called, even
// if it failed; its Message is what the operator should see.
func (s *Service) Submit(ctx context.Context, draftID string, draft *domain.CampaignDraft) (*domain.Submission, error) {
	if draft == nil {
		return nil, ErrMissingRequiredField
	}

	if s.locks != nil {
		lock := s.locks.For("draft-submit:" + draftID)
		ok, err := lock.Acquire(ctx)
		if err != nil {
			// Lock backend down: the in-process single-flight still holds.
			logger.Warn("submission lock unavailable", "draft_id", draftID, "error", err)
		} else if !ok {
			return nil, ErrSubmissionInFlight
		} else {
			defer func() {
				if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
					logger.Warn("submission lock release failed", "draft_id", draftID, "error", err)
				}
			}()
		}
	}

	start := s.now()
	msg, err := s.sender.Send(ctx, draft)
	metrics.ObserveSubmission(outcome(err), draft.Recipients.Len(), time.Since(start))

	sub := &domain.Submission{
		ID:             uuid.New().String(),
		DraftID:        draftID,
		Subject:        draft.Subject,
		RecipientCount: draft.Recipients.Len(),
		SubmittedAt:    start.UTC(),
	}
	if draft.Attachment != nil {
		sub.AttachmentName = draft.Attachment.Name
	}

	switch {
	case err == nil:
		sub.Status = domain.SubmissionAccepted
		sub.Message = msg
		if sub.Message == "" {
			sub.Message = DefaultSuccessMessage
		}
	case errors.Is(err, ErrRemoteRejection):
		sub.Status = domain.SubmissionRejected
		sub.Message = UserMessage(err)
	default:
		sub.Status = domain.SubmissionFailed
		sub.Message = UserMessage(err)
	}

	s.record(ctx, sub)

	logger.Info("campaign submitted",
		"draft_id", draftID,
		"submission_id", sub.ID,
		"status", string(sub.Status),
		"recipients", sub.RecipientCount,
		"attachment", sub.AttachmentName != "",
	)

	if err != nil {
		return sub, fmt.Errorf("submit draft %s: %w", draftID, err)
	}
	return sub, nil
}

// Recent returns recent submission outcomes, or nil when no history store
// is configured.
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.Submission, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.Recent(ctx, limit)
}

// Find returns one submission outcome. The history row locates the
// archived copy, which is returned when an archive is configured and holds
// it; otherwise the row itself is returned.
func (s *Service) Find(ctx context.Context, id string) (*domain.Submission, error) {
	if s.history == nil {
		return nil, ErrSubmissionNotFound
	}
	sub, err := s.history.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.archive == nil {
		return sub, nil
	}
	stored, err := s.archive.Load(ctx, archive.Key(sub))
	if err != nil {
		logger.Warn("archived submission unavailable", "submission_id", id, "error", err)
		return sub, nil
	}
	return stored, nil
}

// record writes the outcome to history and archive. Failures are logged,
// never surfaced: the campaign has already been handed off.
func (s *Service) record(ctx context.Context, sub *domain.Submission) {
	ctx = context.WithoutCancel(ctx)
	if s.history != nil {
		if err := s.history.Record(ctx, sub); err != nil {
			logger.Error("record submission failed", "submission_id", sub.ID, "error", err)
		}
	}
	if s.archive != nil {
		if err := s.archive.Save(ctx, sub); err != nil {
			logger.Error("archive submission failed", "submission_id", sub.ID, "error", err)
		}
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return string(domain.SubmissionAccepted)
	case errors.Is(err, ErrRemoteRejection):
		return string(domain.SubmissionRejected)
	default:
		return string(domain.SubmissionFailed)
	}
}
