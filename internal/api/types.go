package api

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is an opaque resource identifier. The API sends numbers for some
// resources and strings for others; both decode to the same string form.
type ID string

// UnmarshalJSON accepts a JSON number or string.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Inquiry is a raw item from the inquiries endpoints.
type Inquiry struct {
	ID        ID     `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Content   string `json:"content"`
	Answer    string `json:"answer,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Report is a raw item from the reports endpoints.
type Report struct {
	ID         ID     `json:"id"`
	TargetType string `json:"targetType"`
	TargetID   ID     `json:"targetId,omitempty"`
	Reason     string `json:"reason"`
	Answer     string `json:"answer,omitempty"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// ListResponse wraps list endpoints: {items: [...]}.
type ListResponse[T any] struct {
	Items []T `json:"items"`
}

// DetailResponse wraps detail endpoints: {item, success?}.
type DetailResponse[T any] struct {
	Item    T     `json:"item"`
	Success *bool `json:"success,omitempty"`
}

// ResultResponse is the {success, message?} envelope of mutating calls.
// Success is nil when the server sends no flag.
type ResultResponse struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
}

// failed reports an explicit success:false.
func (r ResultResponse) failed() bool {
	return r.Success != nil && !*r.Success
}

// AnswerRequest is the PATCH body that resolves a ticket.
type AnswerRequest struct {
	Answer string `json:"answer"`
	Status string `json:"status"`
}

// UnreadResponse is the unread notifications payload. The server sends
// either {total} or {data: [...]}.
type UnreadResponse struct {
	Total *int              `json:"total,omitempty"`
	Data  []json.RawMessage `json:"data,omitempty"`
}

// Count returns total when present, otherwise the length of data.
func (r UnreadResponse) Count() int {
	if r.Total != nil {
		return *r.Total
	}
	return len(r.Data)
}

// parseCount decodes a total that may arrive as a JSON string.
func parseCount(raw json.RawMessage) (int, bool) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
	}
	return 0, false
}

// UnmarshalJSON tolerates a string-typed total.
func (r *UnreadResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Total json.RawMessage   `json:"total"`
		Data  []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Data = raw.Data
	r.Total = nil
	if len(raw.Total) > 0 {
		if n, ok := parseCount(raw.Total); ok {
			r.Total = &n
		}
	}
	return nil
}
