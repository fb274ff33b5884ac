package composer

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/ignite/email-shooter/internal/domain"
	"github.com/ignite/email-shooter/internal/metrics"
	"github.com/ignite/email-shooter/internal/pkg/logger"
	"github.com/ignite/email-shooter/internal/recipients"
	"github.com/ignite/email-shooter/internal/service/campaign"
)

// Submitter hands a validated draft to the sending service.
type Submitter interface {
	Submit(ctx context.Context, draftID string, draft *domain.CampaignDraft) (*domain.Submission, error)
}

// Limits bounds the size of files accepted by a Controller. Zero values
// mean the package defaults of recipients and campaign.
type Limits struct {
	MaxFileBytes       int64
	MaxAttachmentBytes int64
}

type fileRead struct {
	done chan struct{}
	err  error
}

// Controller owns the state of one draft.
type Controller struct {
	id        string
	submitter Submitter
	limits    Limits
	now       func() time.Time
	extract   func(name string, data []byte, limit int64) ([]string, error)

	inflight *semaphore.Weighted

	mu    sync.Mutex
	st    state
	reads map[string]*fileRead
}

// NewController creates an empty draft.
func NewController(id string, submitter Submitter, limits Limits) *Controller {
	c := &Controller{
		id:        id,
		submitter: submitter,
		limits:    limits,
		now:       time.Now,
		extract:   extractFile,
		inflight:  semaphore.NewWeighted(1),
		reads:     make(map[string]*fileRead),
	}
	c.st = state{fileStatus: FileNone, touched: c.now()}
	return c
}

// ID returns the draft id.
func (c *Controller) ID() string { return c.id }

// SetSubject replaces the subject.
func (c *Controller) SetSubject(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.subject = v
	c.st.touched = c.now()
}

// SetBody replaces the HTML body. It is stored as-is.
func (c *Controller) SetBody(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.body = v
	c.st.touched = c.now()
}

// SetRecipientText replaces the pasted recipient text.
func (c *Controller) SetRecipientText(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.recipientText = v
	c.st.touched = c.now()
}

// SelectFile starts decoding a recipient file and returns the tag of the
// read. Any read still running for an earlier selection is superseded.
// Files that are neither CSV nor spreadsheets are refused immediately and
// leave the current file-derived set untouched.
func (c *Controller) SelectFile(name, contentType string, data []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.st.clearOutcome()
	c.st.touched = c.now()

	if err := recipients.AcceptFile(name, contentType); err != nil {
		c.fail(err)
		return "", err
	}

	tag := uuid.New().String()
	c.supersedeReads()
	c.st.fileTag = tag
	c.st.pendingName = name
	c.st.fileStatus = FileReading

	read := &fileRead{done: make(chan struct{})}
	c.reads[tag] = read

	extract, limit := c.extract, c.limits.MaxFileBytes
	go func() {
		cands, err := extract(name, data, limit)
		c.applyFile(tag, name, cands, err)
	}()

	return tag, nil
}

func extractFile(name string, data []byte, limit int64) ([]string, error) {
	return recipients.ExtractFile(name, bytes.NewReader(data), limit)
}

// applyFile installs a decode result if tag is still current.
func (c *Controller) applyFile(tag, name string, cands []string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	read := c.reads[tag]
	if read != nil {
		read.err = err
		defer close(read.done)
	}

	if tag != c.st.fileTag {
		delete(c.reads, tag)
		metrics.StaleFileReads.Inc()
		logger.Debug("discarding superseded file read", "draft_id", c.id, "file", name)
		return
	}

	kind := recipients.KindForFilename(name).String()
	if err != nil {
		// The previous file-derived set stays in place.
		metrics.RecordDecodeFailure(kind)
		c.st.fileStatus = FileFailed
		c.st.pendingName = ""
		c.fail(err)
		logger.Warn("recipient file decode failed", "draft_id", c.id, "file", name, "error", err)
		return
	}

	metrics.RecordExtracted(kind, len(cands))
	c.st.fileName = name
	c.st.pendingName = ""
	c.st.fileSet = recipients.Normalize(cands)
	c.st.fileStatus = FileReady
	c.st.touched = c.now()
	logger.Info("recipient file loaded", "draft_id", c.id, "file", name, "candidates", len(cands))
}

// AwaitFile blocks until the read with tag has finished and returns its
// decode error. The result of the current read stays available after it
// finishes; a tag that is unknown or was superseded returns nil.
func (c *Controller) AwaitFile(ctx context.Context, tag string) error {
	c.mu.Lock()
	read := c.reads[tag]
	c.mu.Unlock()
	if read == nil {
		return nil
	}

	select {
	case <-read.done:
		return read.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClearFile drops the file-derived candidates and supersedes any running
// read.
func (c *Controller) ClearFile() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersedeReads()
	c.st.fileTag = ""
	c.st.fileName = ""
	c.st.pendingName = ""
	c.st.fileSet = nil
	c.st.fileStatus = FileNone
	c.st.touched = c.now()
}

// SelectAttachment replaces the attachment. A refused file also clears
// any previously held attachment.
func (c *Controller) SelectAttachment(name, contentType string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.st.clearOutcome()
	c.st.touched = c.now()

	att, err := campaign.GateAttachment(name, contentType, data, c.limits.MaxAttachmentBytes)
	if err != nil {
		c.st.attachment = nil
		metrics.RecordGateRejection(campaign.Code(err))
		c.fail(err)
		return err
	}
	c.st.attachment = att
	return nil
}

// ClearAttachment drops the attachment.
func (c *Controller) ClearAttachment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.attachment = nil
	c.st.touched = c.now()
}

// View returns a snapshot including the live unique recipient count.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	valid, invalid := recipients.Partition(recipients.ExtractText(c.st.recipientText))
	set := recipients.Merge(valid, c.st.fileSet.Strings())

	v := View{
		ID:               c.id,
		Subject:          c.st.subject,
		Body:             c.st.body,
		RecipientText:    c.st.recipientText,
		UniqueRecipients: set.Len(),
		InvalidTokens:    invalid,
		FileName:         c.st.fileName,
		FileStatus:       c.st.fileStatus,
		FileRecipients:   c.st.fileSet.Len(),
		Submitting:       c.st.submitting,
		Message:          c.st.message,
		Error:            c.st.errMsg,
		ErrorCode:        c.st.errCode,
		UpdatedAt:        c.st.touched,
	}
	if c.st.fileStatus == FileReading {
		v.FileName = c.st.pendingName
	}
	if a := c.st.attachment; a != nil {
		v.AttachmentName = a.Name
		v.AttachmentSize = a.Size()
	}
	return v
}

// Submit validates the draft and hands it to the sending service. Only one
// submission per draft may be outstanding. Fields are cleared only when the
// service accepts the campaign; on any failure they are kept so the
// operator can fix and retry.
func (c *Controller) Submit(ctx context.Context) (*domain.Submission, error) {
	if !c.inflight.TryAcquire(1) {
		return nil, campaign.ErrSubmissionInFlight
	}
	defer c.inflight.Release(1)

	c.mu.Lock()
	c.st.clearOutcome()
	c.st.touched = c.now()

	draft, err := c.assemble()
	if err != nil {
		metrics.RecordGateRejection(campaign.Code(err))
		c.fail(err)
		c.mu.Unlock()
		return nil, err
	}
	c.st.submitting = true
	c.mu.Unlock()

	sub, err := c.submitter.Submit(ctx, c.id, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.submitting = false
	c.st.touched = c.now()

	if err != nil {
		c.fail(err)
		if sub != nil && sub.Message != "" {
			c.st.errMsg = sub.Message
		}
		return sub, err
	}

	c.reset()
	c.st.message = campaign.DefaultSuccessMessage
	if sub != nil && sub.Message != "" {
		c.st.message = sub.Message
	}
	return sub, nil
}

// assemble builds the draft from current state. Caller holds mu.
func (c *Controller) assemble() (*domain.CampaignDraft, error) {
	valid, invalid := recipients.Partition(recipients.ExtractText(c.st.recipientText))
	if err := campaign.RejectMalformed(invalid); err != nil {
		return nil, err
	}
	metrics.RecordExtracted("text", len(valid))
	set := recipients.Merge(valid, c.st.fileSet.Strings())
	return campaign.Validate(c.st.subject, c.st.body, set, c.st.attachment)
}

// supersedeReads forgets finished reads. Reads still running keep their
// entry until applyFile sees they are stale. Caller holds mu.
func (c *Controller) supersedeReads() {
	for tag, read := range c.reads {
		select {
		case <-read.done:
			delete(c.reads, tag)
		default:
		}
	}
}

// reset clears every field after an accepted submission. Caller holds mu.
func (c *Controller) reset() {
	c.supersedeReads()
	c.st = state{fileStatus: FileNone, touched: c.now()}
}

// fail records err as the single visible error. Caller holds mu.
func (c *Controller) fail(err error) {
	c.st.message = ""
	c.st.errMsg = campaign.UserMessage(err)
	c.st.errCode = campaign.Code(err)
}

// idle reports whether the draft has been untouched for at least ttl and
// has no submission outstanding.
func (c *Controller) idle(now time.Time, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.st.submitting && now.Sub(c.st.touched) >= ttl
}
