// Package sender submits composed campaigns to the remote sending service.
package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/ignite/email-shooter/internal/config"
	"github.com/ignite/email-shooter/internal/domain"
	"github.com/ignite/email-shooter/internal/pkg/httpretry"
	"github.com/ignite/email-shooter/internal/service/campaign"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// Client posts campaign drafts as multipart/form-data.
type Client struct {
	url  string
	http httpretry.HTTPDoer
}

// NewClient creates a sending service client from configuration.
func NewClient(cfg config.SenderConfig) *Client {
	base := &http.Client{Timeout: cfg.Timeout()}
	return &Client{
		url:  cfg.URL(),
		http: httpretry.NewRetryClient(base, cfg.MaxRetries),
	}
}

// NewClientWithDoer creates a client that uses doer for transport.
func NewClientWithDoer(url string, doer httpretry.HTTPDoer) *Client {
	return &Client{url: url, http: doer}
}

// Send submits draft. It returns the service's confirmation message on a
// 2xx response, a *campaign.RejectionError on any other status, and an
// error wrapping campaign.ErrNetworkFailure when the service could not be
// reached.
func (c *Client) Send(ctx context.Context, draft *domain.CampaignDraft) (string, error) {
	body, contentType, err := encodeDraft(draft)
	if err != nil {
		return "", fmt.Errorf("encode draft: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", campaign.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	var result Result
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err == nil && len(bytes.TrimSpace(raw)) > 0 {
		// Non-JSON bodies leave result empty and fall back to defaults.
		_ = json.Unmarshal(raw, &result)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &campaign.RejectionError{Status: resp.StatusCode, Detail: result.DetailText()}
	}
	return result.MessageText(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeDraft builds the multipart payload: subject, body, recipients
// (comma-joined) and an optional PDF "file" part.
func encodeDraft(d *domain.CampaignDraft) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"subject", d.Subject},
		{"body", d.Body},
		{"recipients", d.Recipients.Join(",")},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if d.Attachment != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(d.Attachment.Name)))
		h.Set("Content-Type", d.Attachment.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(d.Attachment.Data); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
