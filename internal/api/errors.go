package api

import (
	"errors"
	"net/http"

	"github.com/ignite/email-shooter/internal/composer"
	"github.com/ignite/email-shooter/internal/pkg/httputil"
	"github.com/ignite/email-shooter/internal/recipients"
	"github.com/ignite/email-shooter/internal/service/campaign"
)

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, composer.ErrSessionNotFound),
		errors.Is(err, campaign.ErrSubmissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, composer.ErrTooManySessions):
		return http.StatusTooManyRequests
	case errors.Is(err, campaign.ErrSubmissionInFlight):
		return http.StatusConflict
	case errors.Is(err, campaign.ErrRemoteRejection):
		return http.StatusBadGateway
	case errors.Is(err, campaign.ErrNetworkFailure):
		return http.StatusServiceUnavailable
	case errors.Is(err, campaign.ErrEmptyRecipients),
		errors.Is(err, campaign.ErrRecipientLimitExceeded),
		errors.Is(err, campaign.ErrMissingRequiredField),
		errors.Is(err, campaign.ErrInvalidRecipient),
		errors.Is(err, campaign.ErrInvalidAttachmentType),
		errors.Is(err, campaign.ErrAttachmentTooLarge),
		errors.Is(err, recipients.ErrFileDecode),
		errors.Is(err, recipients.ErrUnsupportedFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope for err.
func respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, composer.ErrSessionNotFound) {
		httputil.Fail(w, http.StatusNotFound, "draft_not_found", "Draft not found.", nil)
		return
	}
	if errors.Is(err, composer.ErrTooManySessions) {
		httputil.Fail(w, http.StatusTooManyRequests, "too_many_drafts", "Too many open drafts. Try again later.", nil)
		return
	}
	if errors.Is(err, campaign.ErrSubmissionNotFound) {
		httputil.Fail(w, http.StatusNotFound, "submission_not_found", "Submission not found.", nil)
		return
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		httputil.InternalError(w, err)
		return
	}
	httputil.Fail(w, status, campaign.Code(err), campaign.UserMessage(err), nil)
}
