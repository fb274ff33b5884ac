package sender

import (
	"encoding/json"
	"strings"
)

// Result is the response body of the sending service. Both fields are
// optional; absent fields fall back to campaign.DefaultSuccessMessage and
// campaign.DefaultFailureMessage.
type Result struct {
	Message *string `json:"message,omitempty"`
	Detail  *Detail `json:"detail,omitempty"`
}

// Detail is the error detail of a non-success response. The service
// returns either a plain string or, for request validation failures, a
// list of {"loc": [...], "msg": "..."} objects.
type Detail struct {
	Text string
}

// UnmarshalJSON accepts a string or a list of validation error objects.
func (d *Detail) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d.Text = s
		return nil
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(data, &items); err != nil {
		// Unknown shape: keep the raw JSON so the operator sees something.
		d.Text = string(data)
		return nil
	}
	msgs := make([]string, 0, len(items))
	for _, it := range items {
		if it.Msg != "" {
			msgs = append(msgs, it.Msg)
		}
	}
	d.Text = strings.Join(msgs, "; ")
	return nil
}

// MessageText returns the confirmation message, or "" when absent.
func (r Result) MessageText() string {
	if r.Message == nil {
		return ""
	}
	return *r.Message
}

// DetailText returns the error detail, or "" when absent.
func (r Result) DetailText() string {
	if r.Detail == nil {
		return ""
	}
	return r.Detail.Text
}
