package campaign

import (
	"context"

	"github.com/ignite/email-shooter/internal/domain"
	"github.com/ignite/email-shooter/internal/pkg/distlock"
)

// Sender hands a validated draft to the remote sending service.
// On success it returns the service's confirmation message (possibly
// empty). Failures wrap ErrNetworkFailure or are a *RejectionError.
type Sender interface {
	Send(ctx context.Context, draft *domain.CampaignDraft) (string, error)
}

// History persists submission outcomes. Implementations must be safe for
// concurrent use.
type History interface {
	// Record inserts one submission outcome.
	Record(ctx context.Context, s *domain.Submission) error

	// Recent returns the latest submissions, newest first.
	Recent(ctx context.Context, limit int) ([]domain.Submission, error)

	// Find returns one submission or ErrSubmissionNotFound.
	Find(ctx context.Context, id string) (*domain.Submission, error)
}

// Archive keeps a durable copy of each submission outcome, addressed by
// archive.Key.
type Archive interface {
	Save(ctx context.Context, s *domain.Submission) error
	Load(ctx context.Context, key string) (*domain.Submission, error)
}

// Locker hands out a lock per draft so the same draft is never submitted
// twice concurrently across replicas.
type Locker interface {
	For(key string) distlock.DistLock
}
