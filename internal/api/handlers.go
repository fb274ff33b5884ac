package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/email-shooter/internal/composer"
	"github.com/ignite/email-shooter/internal/domain"
	"github.com/ignite/email-shooter/internal/pkg/httputil"
	"github.com/ignite/email-shooter/internal/pkg/logger"
	"github.com/ignite/email-shooter/internal/service/campaign"
)

// SubmissionLister returns submission outcomes.
type SubmissionLister interface {
	Recent(ctx context.Context, limit int) ([]domain.Submission, error)
	Find(ctx context.Context, id string) (*domain.Submission, error)
}

// Handlers serves the draft API.
type Handlers struct {
	drafts      *composer.Manager
	history     SubmissionLister
	uploadLimit int64
}

// NewHandlers creates draft handlers. history may be nil. uploadLimit
// bounds multipart request bodies; <= 0 means 32 MiB.
func NewHandlers(drafts *composer.Manager, history SubmissionLister, uploadLimit int64) *Handlers {
	if uploadLimit <= 0 {
		uploadLimit = 32 << 20
	}
	return &Handlers{drafts: drafts, history: history, uploadLimit: uploadLimit}
}

type valueRequest struct {
	Value string `json:"value"`
}

type fileResponse struct {
	Tag   string        `json:"tag"`
	Draft composer.View `json:"draft"`
}

type submitResponse struct {
	Submission *domain.Submission `json:"submission"`
	Draft      composer.View      `json:"draft"`
}

// CreateDraft starts a new composer session.
//
//	POST /api/drafts
func (h *Handlers) CreateDraft(w http.ResponseWriter, r *http.Request) {
	c, err := h.drafts.New()
	if err != nil {
		respondError(w, err)
		return
	}
	logger.Info("draft created", "draft_id", c.ID())
	httputil.Created(w, c.View())
}

// GetDraft returns the draft view.
//
//	GET /api/drafts/{id}
func (h *Handlers) GetDraft(w http.ResponseWriter, r *http.Request) {
	c, ok := h.draft(w, r)
	if !ok {
		return
	}
	httputil.OK(w, c.View())
}

// DeleteDraft discards a session.
//
//	DELETE /api/drafts/{id}
func (h *Handlers) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if !h.drafts.Delete(chi.URLParam(r, "id")) {
		respondError(w, composer.ErrSessionNotFound)
		return
	}
	httputil.NoContent(w)
}

// SetSubject handles PUT /api/drafts/{id}/subject.
func (h *Handlers) SetSubject(w http.ResponseWriter, r *http.Request) {
	h.setValue(w, r, (*composer.Controller).SetSubject)
}

// SetBody handles PUT /api/drafts/{id}/body.
func (h *Handlers) SetBody(w http.ResponseWriter, r *http.Request) {
	h.setValue(w, r, (*composer.Controller).SetBody)
}

// SetRecipients handles PUT /api/drafts/{id}/recipients.
func (h *Handlers) SetRecipients(w http.ResponseWriter, r *http.Request) {
	h.setValue(w, r, (*composer.Controller).SetRecipientText)
}

func (h *Handlers) setValue(w http.ResponseWriter, r *http.Request, set func(*composer.Controller, string)) {
	c, ok := h.draft(w, r)
	if !ok {
		return
	}
	var req valueRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	set(c, req.Value)
	httputil.OK(w, c.View())
}

// SelectFile uploads a recipient file. Decoding runs in the background
// unless ?wait=true is given.
//
//	POST /api/drafts/{id}/file
func (h *Handlers) SelectFile(w http.ResponseWriter, r *http.Request) {
	c, ok := h.draft(w, r)
	if !ok {
		return
	}
	name, contentType, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	tag, err := c.SelectFile(name, contentType, data)
	if err != nil {
		respondError(w, err)
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !wait {
		httputil.Accepted(w, fileResponse{Tag: tag, Draft: c.View()})
		return
	}
	if err := c.AwaitFile(r.Context(), tag); err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, fileResponse{Tag: tag, Draft: c.View()})
}

// ClearFile handles DELETE /api/drafts/{id}/file.
func (h *Handlers) ClearFile(w http.ResponseWriter, r *http.Request) {
	c, ok := h.draft(w, r)
	if !ok {
		return
	}
	c.ClearFile()
	httputil.OK(w, c.View())
}

// SelectAttachment uploads the PDF attachment.
//
//	POST /api/drafts/{id}/attachment
func (h *Handlers) SelectAttachment(w http.ResponseWriter, r *http.Request) {
	c, ok := h.draft(w, r)
	if !ok {
		return
	}
	name, contentType, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	if err := c.SelectAttachment(name, contentType, data); err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, c.View())
}

// ClearAttachment handles DELETE /api/drafts/{id}/attachment.
func (h *Handlers) ClearAttachment(w http.ResponseWriter, r *http.Request) {
	c, ok := h.draft(w, r)
	if !ok {
		return
	}
	c.ClearAttachment()
	httputil.OK(w, c.View())
}

// Submit validates the draft and hands it to the sending service.
//
//	POST /api/drafts/{id}/submit
func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	c, ok := h.draft(w, r)
	if !ok {
		return
	}
	sub, err := c.Submit(r.Context())
	if err != nil {
		if sub != nil && sub.Message != "" {
			httputil.Fail(w, statusFor(err), campaign.Code(err), sub.Message, nil)
			return
		}
		respondError(w, err)
		return
	}
	httputil.OK(w, submitResponse{Submission: sub, Draft: c.View()})
}

// ListSubmissions returns recent submission outcomes.
//
//	GET /api/submissions?limit=N
func (h *Handlers) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		httputil.OK(w, []domain.Submission{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	subs, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if subs == nil {
		subs = []domain.Submission{}
	}
	httputil.OK(w, subs)
}

// GetSubmission returns one submission outcome.
//
//	GET /api/submissions/{id}
func (h *Handlers) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.history == nil || uuid.Validate(id) != nil {
		respondError(w, campaign.ErrSubmissionNotFound)
		return
	}
	sub, err := h.history.Find(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, sub)
}

func (h *Handlers) draft(w http.ResponseWriter, r *http.Request) (*composer.Controller, bool) {
	c, err := h.drafts.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return nil, false
	}
	return c, true
}

// readUpload reads the multipart "file" field.
func (h *Handlers) readUpload(w http.ResponseWriter, r *http.Request) (name, contentType string, data []byte, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httputil.Fail(w, http.StatusRequestEntityTooLarge, "upload_too_large", "The uploaded file is too large.", nil)
			return "", "", nil, false
		}
		httputil.Fail(w, http.StatusBadRequest, "missing_file", "A file is required.", nil)
		return "", "", nil, false
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		httputil.Fail(w, http.StatusBadRequest, "missing_file", "The uploaded file could not be read.", nil)
		return "", "", nil, false
	}
	return hdr.Filename, hdr.Header.Get("Content-Type"), data, true
}
