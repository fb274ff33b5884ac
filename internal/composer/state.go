package composer

import (
	"time"

	"github.com/ignite/email-shooter/internal/domain"
)

// FileStatus describes the recipient file slot.
type FileStatus string

const (
	FileNone    FileStatus = "none"
	FileReading FileStatus = "reading"
	FileReady   FileStatus = "ready"
	FileFailed  FileStatus = "failed"
)

// state is the full draft record. Only Controller methods touch it.
type state struct {
	subject       string
	body          string
	recipientText string

	fileName       string // name of the file whose candidates are held
	pendingName    string // name of the file being decoded
	fileTag        string
	fileStatus     FileStatus
	fileSet        domain.RecipientSet

	attachment *domain.AttachmentFile

	submitting bool
	message    string
	errMsg     string
	errCode    string

	touched time.Time
}

// clearOutcome resets the message/error pair before a new attempt.
func (s *state) clearOutcome() {
	s.message = ""
	s.errMsg = ""
	s.errCode = ""
}

// View is a read-only snapshot of a draft.
type View struct {
	ID               string     `json:"id"`
	Subject          string     `json:"subject"`
	Body             string     `json:"body"`
	RecipientText    string     `json:"recipient_text"`
	UniqueRecipients int        `json:"unique_recipients"`
	InvalidTokens    []string   `json:"invalid_tokens,omitempty"`
	FileName         string     `json:"file_name,omitempty"`
	FileStatus       FileStatus `json:"file_status"`
	FileRecipients   int        `json:"file_recipients"`
	AttachmentName   string     `json:"attachment_name,omitempty"`
	AttachmentSize   int        `json:"attachment_size,omitempty"`
	Submitting       bool       `json:"submitting"`
	Message          string     `json:"message,omitempty"`
	Error            string     `json:"error,omitempty"`
	ErrorCode        string     `json:"error_code,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
