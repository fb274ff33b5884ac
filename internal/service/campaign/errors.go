package campaign

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/email-shooter/internal/domain"
	"github.com/ignite/email-shooter/internal/recipients"
)

// Sentinel errors for the submission gate. Every failure surfaced to the
// operator wraps exactly one of these (or a recipients sentinel).
var (
	ErrEmptyRecipients        = errors.New("no recipients")
	ErrRecipientLimitExceeded = errors.New("recipient limit exceeded")
	ErrMissingRequiredField   = errors.New("subject and body are required")
	ErrInvalidRecipient       = errors.New("malformed recipient")
	ErrInvalidAttachmentType  = errors.New("attachment must be a PDF")
	ErrAttachmentTooLarge     = errors.New("attachment too large")
	ErrNetworkFailure         = errors.New("sending service unreachable")
	ErrRemoteRejection        = errors.New("sending service rejected the campaign")
	ErrSubmissionInFlight     = errors.New("submission already in progress")
)

// ErrSubmissionNotFound is returned by history lookups for an unknown id.
var ErrSubmissionNotFound = errors.New("submission not found")

// Default operator-facing messages.
const (
	DefaultSuccessMessage = "Emails are being sent!"
	DefaultFailureMessage = "Failed to send emails."
	NetworkFailureMessage = "Network error. Could not reach backend."
)

// RejectionError carries the detail string returned by the sending service
// along with a non-success status.
type RejectionError struct {
	Status int
	Detail string // empty when the service gave no detail
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v (status %d)", ErrRemoteRejection, e.Status)
	}
	return fmt.Sprintf("%v (status %d): %s", ErrRemoteRejection, e.Status, e.Detail)
}

func (e *RejectionError) Unwrap() error { return ErrRemoteRejection }

// MalformedRecipientsError lists pasted tokens that failed the shape check.
type MalformedRecipientsError struct {
	Tokens []string
}

func (e *MalformedRecipientsError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidRecipient, strings.Join(e.Tokens, ", "))
}

func (e *MalformedRecipientsError) Unwrap() error { return ErrInvalidRecipient }

// Code returns a stable machine-readable code for err.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyRecipients):
		return "empty_recipients"
	case errors.Is(err, ErrRecipientLimitExceeded):
		return "recipient_limit_exceeded"
	case errors.Is(err, ErrMissingRequiredField):
		return "missing_required_field"
	case errors.Is(err, ErrInvalidRecipient):
		return "invalid_recipient"
	case errors.Is(err, ErrInvalidAttachmentType):
		return "invalid_attachment_type"
	case errors.Is(err, ErrAttachmentTooLarge):
		return "attachment_too_large"
	case errors.Is(err, recipients.ErrFileDecode):
		return "file_decode_failure"
	case errors.Is(err, recipients.ErrUnsupportedFile):
		return "unsupported_file"
	case errors.Is(err, ErrNetworkFailure):
		return "network_failure"
	case errors.Is(err, ErrRemoteRejection):
		return "remote_rejection"
	case errors.Is(err, ErrSubmissionInFlight):
		return "submission_in_flight"
	default:
		return "internal"
	}
}

// UserMessage returns the single message shown to the operator for err.
func UserMessage(err error) string {
	var rej *RejectionError
	var bad *MalformedRecipientsError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rej):
		if rej.Detail != "" {
			return rej.Detail
		}
		return DefaultFailureMessage
	case errors.As(err, &bad):
		return "These recipients are not valid email addresses: " + strings.Join(bad.Tokens, ", ")
	case errors.Is(err, ErrEmptyRecipients):
		return "Please enter or upload at least one recipient email."
	case errors.Is(err, ErrRecipientLimitExceeded):
		return fmt.Sprintf("Recipient list exceeds %d emails.", domain.MaxRecipients)
	case errors.Is(err, ErrMissingRequiredField):
		return "Subject and body are required."
	case errors.Is(err, ErrInvalidAttachmentType):
		return "Only PDF files are allowed for attachment."
	case errors.Is(err, ErrAttachmentTooLarge):
		return "The PDF attachment is too large."
	case errors.Is(err, recipients.ErrFileDecode):
		return "Could not read the recipient file. Please upload a valid CSV or Excel file."
	case errors.Is(err, recipients.ErrUnsupportedFile):
		return "Please upload a CSV or Excel file."
	case errors.Is(err, ErrNetworkFailure):
		return NetworkFailureMessage
	case errors.Is(err, ErrSubmissionInFlight):
		return "A submission is already in progress."
	default:
		return DefaultFailureMessage
	}
}
