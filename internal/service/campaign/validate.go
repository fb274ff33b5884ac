package campaign

import (
	"fmt"

	"github.com/ignite/email-shooter/internal/domain"
)

// DefaultMaxAttachmentBytes caps the size of a PDF attachment.
const DefaultMaxAttachmentBytes = 10 << 20

// Validate is the submission gate. It checks the required fields and the
// recipient count bounds, then returns the assembled draft. A field counts
// as missing only when empty; whitespace is content and is sent as typed.
// The recipient limit applies to the deduplicated set.
func Validate(subject, body string, set domain.RecipientSet, attachment *domain.AttachmentFile) (*domain.CampaignDraft, error) {
	if subject == "" || body == "" {
		return nil, ErrMissingRequiredField
	}
	if set.Len() == 0 {
		return nil, ErrEmptyRecipients
	}
	if set.Len() > domain.MaxRecipients {
		return nil, fmt.Errorf("%w: %d unique recipients, limit is %d",
			ErrRecipientLimitExceeded, set.Len(), domain.MaxRecipients)
	}
	return &domain.CampaignDraft{
		Subject:    subject,
		Body:       body,
		Recipients: set,
		Attachment: attachment,
	}, nil
}

// RejectMalformed fails when pasted text contained tokens that do not look
// like email addresses.
func RejectMalformed(tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return &MalformedRecipientsError{Tokens: tokens}
}

// GateAttachment accepts a file selection as the campaign attachment only
// when its declared content type is exactly application/pdf. A maxBytes
// <= 0 means DefaultMaxAttachmentBytes.
func GateAttachment(name, contentType string, data []byte, maxBytes int64) (*domain.AttachmentFile, error) {
	if contentType != domain.PDFContentType {
		return nil, fmt.Errorf("%w: %q has type %q", ErrInvalidAttachmentType, name, contentType)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAttachmentBytes
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %q is %d bytes, limit is %d", ErrAttachmentTooLarge, name, len(data), maxBytes)
	}
	return &domain.AttachmentFile{
		Name:        name,
		ContentType: contentType,
		Data:        data,
	}, nil
}
