package domain

import (
	"time"
)

// PDFContentType is the only content type accepted for attachments.
const PDFContentType = "application/pdf"

// AttachmentFile is the optional binary payload sent along with a campaign.
type AttachmentFile struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// Size returns the payload size in bytes.
func (a *AttachmentFile) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

// CampaignDraft is the fully assembled campaign handed to the sending
// service. It is built at submission time and discarded afterwards.
type CampaignDraft struct {
	Subject    string          `json:"subject"`
	Body       string          `json:"body"` // raw HTML, passed through as-is
	Recipients RecipientSet    `json:"recipients"`
	Attachment *AttachmentFile `json:"attachment,omitempty"`
}

// SubmissionStatus enumerates the outcomes of a submission attempt.
type SubmissionStatus string

const (
	SubmissionAccepted SubmissionStatus = "accepted"
	SubmissionRejected SubmissionStatus = "rejected"
	SubmissionFailed   SubmissionStatus = "failed"
)

// Submission records one attempt to hand a draft to the sending service.
type Submission struct {
	ID             string           `json:"id" db:"id"`
	DraftID        string           `json:"draft_id" db:"draft_id"`
	Subject        string           `json:"subject" db:"subject"`
	RecipientCount int              `json:"recipient_count" db:"recipient_count"`
	AttachmentName string           `json:"attachment_name,omitempty" db:"attachment_name"`
	Status         SubmissionStatus `json:"status" db:"status"`
	Message        string           `json:"message" db:"message"`
	SubmittedAt    time.Time        `json:"submitted_at" db:"submitted_at"`
}

// IsAccepted returns true if the sending service accepted the campaign.
func (s *Submission) IsAccepted() bool {
	return s.Status == SubmissionAccepted
}
