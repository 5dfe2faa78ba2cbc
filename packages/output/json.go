package output

import (
	"encoding/json"
	"io"
	"os"

	connecthttp "github.com/abdul-hamid-achik/connect/packages/http"
)

// JSONOutput is the document written for one call.
type JSONOutput struct {
	OK         bool              `json:"ok"`
	Method     string            `json:"method,omitempty"`
	URL        string            `json:"url,omitempty"`
	StatusCode int               `json:"statusCode,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Duration   float64           `json:"duration,omitempty"`
	Body       any               `json:"body,omitempty"`
	Error      *JSONError        `json:"error,omitempty"`
}

// JSONError describes a failed call.
type JSONError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// JSONFormatter formats call outcomes as JSON
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *connecthttp.Result) error {
	return f.write(JSONOutput{
		OK:         true,
		Method:     result.Method,
		URL:        result.URL,
		StatusCode: result.StatusCode,
		Headers:    result.Headers,
		Duration:   float64(result.DurationMs()),
		Body:       result.Value,
	})
}

func (f *JSONFormatter) FormatError(err error) error {
	out := JSONOutput{
		Error: &JSONError{Kind: connecthttp.Kind(err), Message: err.Error()},
	}

	if se, ok := connecthttp.AsStatusError(err); ok {
		out.Method, out.URL, out.StatusCode = se.Method, se.URL, se.StatusCode
		out.Error.Message = se.Message
		var body any
		if json.Unmarshal(se.Body, &body) == nil {
			out.Body = body
		}
	} else {
		out.StatusCode = connecthttp.StatusCode(err)
	}
	return f.write(out)
}

func (f *JSONFormatter) write(out JSONOutput) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
