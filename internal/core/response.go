package core

// Response is the normalized envelope of an executed request.
// Data holds the decoded JSON value, or the body text when it is not JSON.
type Response struct {
	Status       int               `json:"status" yaml:"status"`
	StatusText   string            `json:"statusText" yaml:"statusText"`
	Headers      map[string]string `json:"headers" yaml:"headers"`
	Data         any               `json:"data" yaml:"data"`
	ResponseTime int64             `json:"responseTime" yaml:"responseTime"` // milliseconds
	Size         int               `json:"size" yaml:"size"`                 // bytes of the serialized data
}

// NetworkErrorStatusText is the status text of a failed send.
const NetworkErrorStatusText = "Network Error"

// NewNetworkErrorResponse builds the error-shaped envelope of a failed send.
func NewNetworkErrorResponse(message string, responseTime int64) Response {
	return Response{
		Status:       0,
		StatusText:   NetworkErrorStatusText,
		Headers:      map[string]string{},
		Data:         map[string]any{"error": message},
		ResponseTime: responseTime,
		Size:         0,
	}
}

// IsNetworkError reports whether the envelope describes a failed send.
func (r Response) IsNetworkError() bool {
	return r.Status == 0
}

// IsSuccess reports a 2xx status.
func (r Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// IsTruncated reports whether Data was replaced by a storage preview.
func (r Response) IsTruncated() bool {
	m, ok := r.Data.(map[string]any)
	if !ok {
		return false
	}
	truncated, _ := m["_truncated"].(bool)
	return truncated
}

// Clone returns a deep copy of the response.
func (r Response) Clone() Response {
	clone := r
	if r.Headers != nil {
		clone.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			clone.Headers[k] = v
		}
	}
	clone.Data = cloneValue(r.Data)
	return clone
}

// cloneValue copies a decoded JSON tree.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}
