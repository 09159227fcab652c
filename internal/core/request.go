package core

import (
	"time"

	"github.com/google/uuid"
)

// Method is an HTTP verb supported by a request definition.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Methods returns the supported HTTP methods in display order.
func Methods() []Method {
	return []Method{
		MethodGet,
		MethodPost,
		MethodPut,
		MethodDelete,
		MethodPatch,
		MethodHead,
		MethodOptions,
	}
}

// BodyType identifies how a request body is encoded.
type BodyType string

const (
	BodyTypeNone BodyType = "none"
	BodyTypeJSON BodyType = "json"
	BodyTypeForm BodyType = "form"
	BodyTypeRaw  BodyType = "raw"
)

// Header is a single request header row.
// Disabled headers stay in the model but are never sent.
type Header struct {
	ID      string `json:"id" yaml:"id" validate:"required"`
	Key     string `json:"key" yaml:"key"`
	Value   string `json:"value" yaml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// NewHeader creates an enabled header with a fresh ID.
func NewHeader(key, value string) Header {
	return Header{
		ID:      NewID(),
		Key:     key,
		Value:   value,
		Enabled: true,
	}
}

// Body holds the request payload.
type Body struct {
	Type    BodyType `json:"type" yaml:"type" validate:"omitempty,oneof=none json form raw"`
	Content string   `json:"content" yaml:"content"`
}

// RequestConfig is a request definition as composed by the user.
type RequestConfig struct {
	ID           string     `json:"id" yaml:"id" validate:"required"`
	Name         string     `json:"name" yaml:"name"`
	Method       Method     `json:"method" yaml:"method" validate:"oneof=GET POST PUT DELETE PATCH HEAD OPTIONS"`
	URL          string     `json:"url" yaml:"url"`
	Headers      []Header   `json:"headers" yaml:"headers" validate:"dive"`
	Body         Body       `json:"body" yaml:"body"`
	Auth         AuthConfig `json:"auth" yaml:"auth"`
	CreatedAt    time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" yaml:"updatedAt"`
	CollectionID string     `json:"collectionId,omitempty" yaml:"collectionId,omitempty"`
}

// NewRequestConfig creates a transient request with default field values:
// GET, empty URL, no headers, no body and no auth.
func NewRequestConfig() RequestConfig {
	now := Now()
	return RequestConfig{
		ID:        NewID(),
		Name:      "New Request",
		Method:    MethodGet,
		Headers:   []Header{},
		Body:      Body{Type: BodyTypeNone},
		Auth:      AuthConfig{Type: AuthTypeNone},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the request.
func (r RequestConfig) Clone() RequestConfig {
	clone := r
	if r.Headers != nil {
		clone.Headers = make([]Header, len(r.Headers))
		copy(clone.Headers, r.Headers)
	}
	clone.Auth = r.Auth.Clone()
	return clone
}

// EnabledHeaders returns the headers that take part in outbound assembly.
func (r RequestConfig) EnabledHeaders() []Header {
	var result []Header
	for _, h := range r.Headers {
		if h.Enabled && h.Key != "" && h.Value != "" {
			result = append(result, h)
		}
	}
	return result
}

// HasBody reports whether the request carries a payload when sent.
// GET requests never do, whatever their body type.
func (r RequestConfig) HasBody() bool {
	return r.Method != MethodGet && r.Body.Type != "" && r.Body.Type != BodyTypeNone
}

// RequestPatch is a partial update of a RequestConfig.
// Nil fields are left untouched.
type RequestPatch struct {
	Name         *string
	Method       *Method
	URL          *string
	Headers      []Header
	Body         *Body
	Auth         *AuthConfig
	CollectionID *string
	UpdatedAt    *time.Time
}

// Apply shallow-merges the patch into a copy of r.
func (p RequestPatch) Apply(r RequestConfig) RequestConfig {
	out := r.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Method != nil {
		out.Method = *p.Method
	}
	if p.URL != nil {
		out.URL = *p.URL
	}
	if p.Headers != nil {
		out.Headers = make([]Header, len(p.Headers))
		copy(out.Headers, p.Headers)
	}
	if p.Body != nil {
		out.Body = *p.Body
	}
	if p.Auth != nil {
		out.Auth = p.Auth.Clone()
	}
	if p.CollectionID != nil {
		out.CollectionID = *p.CollectionID
	}
	if p.UpdatedAt != nil {
		out.UpdatedAt = *p.UpdatedAt
	}
	return out
}

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.New().String()
}

// Now returns the current time as stored in documents: UTC, millisecond precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
