package campaign_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ignite/email-shooter/internal/archive"
	"github.com/ignite/email-shooter/internal/domain"
	"github.com/ignite/email-shooter/internal/pkg/distlock"
	"github.com/ignite/email-shooter/internal/service/campaign"
)

// fakeSender returns a canned result and remembers the drafts it saw.
type fakeSender struct {
	mu     sync.Mutex
	msg    string
	err    error
	drafts []*domain.CampaignDraft
}

func (f *fakeSender) Send(_ context.Context, d *domain.CampaignDraft) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, d)
	return f.msg, f.err
}

// memHistory is an in-memory history store for unit testing.
type memHistory struct {
	mu   sync.Mutex
	subs []domain.Submission
	err  error
}

func (m *memHistory) Record(_ context.Context, s *domain.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.subs = append(m.subs, *s)
	return nil
}

func (m *memHistory) Recent(_ context.Context, limit int) ([]domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Submission
	for i := len(m.subs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.subs[i])
	}
	return out, nil
}

func (m *memHistory) Find(_ context.Context, id string) (*domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subs {
		if m.subs[i].ID == id {
			sub := m.subs[i]
			return &sub, nil
		}
	}
	return nil, campaign.ErrSubmissionNotFound
}

type memArchive struct{ saved []string }

func (m *memArchive) Save(_ context.Context, s *domain.Submission) error {
	m.saved = append(m.saved, s.ID)
	return nil
}

func (m *memArchive) Load(context.Context, string) (*domain.Submission, error) {
	return nil, errors.New("not archived")
}

// heldLocker hands out locks that are already taken.
type heldLocker struct{}

type heldLock struct{}

func (heldLock) Acquire(context.Context) (bool, error) { return false, nil }
func (heldLock) Release(context.Context) error         { return nil }

func (heldLocker) For(string) distlock.DistLock { return heldLock{} }

func testDraft() *domain.CampaignDraft {
	return &domain.CampaignDraft{
		Subject:    "Launch",
		Body:       "<p>hi</p>",
		Recipients: domain.RecipientSet{"a@x.com", "b@y.com"},
		Attachment: &domain.AttachmentFile{Name: "deck.pdf", ContentType: domain.PDFContentType},
	}
}

func TestSubmitAccepted(t *testing.T) {
	sender := &fakeSender{msg: "Sending email to 2 recipients."}
	hist := &memHistory{}
	arch := &memArchive{}
	svc := campaign.NewService(sender, campaign.WithHistory(hist), campaign.WithArchive(arch))

	sub, err := svc.Submit(context.Background(), "draft-1", testDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Status != domain.SubmissionAccepted || sub.Message != "Sending email to 2 recipients." {
		t.Fatalf("unexpected submission %+v", sub)
	}
	if sub.RecipientCount != 2 || sub.AttachmentName != "deck.pdf" {
		t.Fatalf("unexpected summary %+v", sub)
	}
	if len(hist.subs) != 1 || len(arch.saved) != 1 || arch.saved[0] != sub.ID {
		t.Fatalf("expected outcome recorded once, got history=%d archive=%d", len(hist.subs), len(arch.saved))
	}
}

func TestSubmitAcceptedDefaultMessage(t *testing.T) {
	svc := campaign.NewService(&fakeSender{})
	sub, err := svc.Submit(context.Background(), "d", testDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Message != campaign.DefaultSuccessMessage {
		t.Fatalf("expected default message, got %q", sub.Message)
	}
}

func TestSubmitRejected(t *testing.T) {
	sender := &fakeSender{err: &campaign.RejectionError{Status: 400, Detail: "bad list"}}
	hist := &memHistory{}
	svc := campaign.NewService(sender, campaign.WithHistory(hist))

	sub, err := svc.Submit(context.Background(), "d", testDraft())
	if !errors.Is(err, campaign.ErrRemoteRejection) {
		t.Fatalf("expected ErrRemoteRejection, got %v", err)
	}
	if sub == nil || sub.Status != domain.SubmissionRejected || sub.Message != "bad list" {
		t.Fatalf("unexpected submission %+v", sub)
	}
	if len(hist.subs) != 1 {
		t.Fatalf("rejections must be recorded too")
	}
}

func TestSubmitNetworkFailure(t *testing.T) {
	sender := &fakeSender{err: campaign.ErrNetworkFailure}
	svc := campaign.NewService(sender)

	sub, err := svc.Submit(context.Background(), "d", testDraft())
	if !errors.Is(err, campaign.ErrNetworkFailure) {
		t.Fatalf("expected ErrNetworkFailure, got %v", err)
	}
	if sub.Status != domain.SubmissionFailed || sub.Message != campaign.NetworkFailureMessage {
		t.Fatalf("unexpected submission %+v", sub)
	}
}

func TestSubmitHistoryFailureDoesNotFailSubmission(t *testing.T) {
	svc := campaign.NewService(&fakeSender{}, campaign.WithHistory(&memHistory{err: errors.New("db down")}))
	if _, err := svc.Submit(context.Background(), "d", testDraft()); err != nil {
		t.Fatalf("history errors must not surface, got %v", err)
	}
}

func TestSubmitLockHeld(t *testing.T) {
	sender := &fakeSender{}
	svc := campaign.NewService(sender, campaign.WithLocker(heldLocker{}))

	_, err := svc.Submit(context.Background(), "d", testDraft())
	if !errors.Is(err, campaign.ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}
	if len(sender.drafts) != 0 {
		t.Fatalf("sender must not be called while the draft is locked")
	}
}

func TestRecentWithoutHistory(t *testing.T) {
	svc := campaign.NewService(&fakeSender{})
	subs, err := svc.Recent(context.Background(), 10)
	if err != nil || subs != nil {
		t.Fatalf("expected nil, nil; got %v, %v", subs, err)
	}
}

func TestFindPrefersArchivedCopy(t *testing.T) {
	store, err := archive.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	hist := &memHistory{}
	svc := campaign.NewService(&fakeSender{msg: "queued"}, campaign.WithHistory(hist), campaign.WithArchive(store))

	sub, err := svc.Submit(context.Background(), "draft-1", testDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	// Diverge the history row so the archived copy is observable.
	hist.subs[0].Message = "row"

	got, err := svc.Find(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Message != "queued" || got.AttachmentName != "deck.pdf" {
		t.Fatalf("expected archived copy, got %+v", got)
	}
}

func TestFindFallsBackToHistoryRow(t *testing.T) {
	hist := &memHistory{}
	svc := campaign.NewService(&fakeSender{}, campaign.WithHistory(hist), campaign.WithArchive(&memArchive{}))

	sub, err := svc.Submit(context.Background(), "d", testDraft())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	got, err := svc.Find(context.Background(), sub.ID)
	if err != nil || got.ID != sub.ID {
		t.Fatalf("expected history row, got %+v, %v", got, err)
	}

	if _, err := svc.Find(context.Background(), "missing"); !errors.Is(err, campaign.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestFindWithoutHistory(t *testing.T) {
	svc := campaign.NewService(&fakeSender{})
	if _, err := svc.Find(context.Background(), "any"); !errors.Is(err, campaign.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}
