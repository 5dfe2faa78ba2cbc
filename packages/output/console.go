package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"unicode/utf8"

	connecthttp "github.com/abdul-hamid-achik/connect/packages/http"
	"github.com/fatih/color"
	"github.com/tidwall/pretty"
)

// formatValue formats a value for display, truncating long text
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case []byte:
		return fmt.Sprintf("[%d bytes]", len(val))
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(str[cut]) {
			cut--
		}
		return str[:cut] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer    io.Writer
	errWriter io.Writer
	verbose   bool
	noColor   bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer:    os.Stdout,
		errWriter: os.Stderr,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithErrWriter sets where errors and verbose details go.
func WithErrWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.errWriter = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// FormatResult writes the body to the output writer. JSON bodies are
// pretty-printed, text is written as is and binary bodies are summarized.
func (f *ConsoleFormatter) FormatResult(result *connecthttp.Result) error {
	if f.verbose {
		f.formatStatus(result.Method, result.URL, result.StatusCode, result.DurationMs())
		f.formatHeaders(result.Headers)
	}

	switch v := result.Value.(type) {
	case nil:
		return nil
	case []byte:
		_, err := fmt.Fprintf(f.writer, "%s\n", formatValue(v, 0))
		return err
	case string:
		_, err := fmt.Fprintln(f.writer, v)
		return err
	}

	body := pretty.Pretty(result.Raw)
	if !color.NoColor {
		body = pretty.Color(body, nil)
	}
	_, err := f.writer.Write(body)
	return err
}

// FormatError writes a one-line description of err, plus the status and
// message of an HTTP status failure.
func (f *ConsoleFormatter) FormatError(err error) error {
	red := color.New(color.FgRed).SprintFunc()

	if se, ok := connecthttp.AsStatusError(err); ok {
		f.formatStatus(se.Method, se.URL, se.StatusCode, -1)
		if _, werr := fmt.Fprintf(f.errWriter, "%s %s\n", red("Error:"), formatValue(se.Message, 200)); werr != nil {
			return werr
		}
		if f.verbose && len(se.Body) > 0 {
			_, werr := fmt.Fprintf(f.errWriter, "%s\n", pretty.Pretty(se.Body))
			return werr
		}
		return nil
	}

	_, werr := fmt.Fprintf(f.errWriter, "%s %v\n", red("Error:"), err)
	return werr
}

func (f *ConsoleFormatter) formatStatus(method, url string, status int, durationMs int64) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	code := green(status)
	if status < 200 || status >= 300 {
		code = red(status)
	}

	fmt.Fprintf(f.errWriter, "%s %s %s", bold(method), url, code)
	if durationMs >= 0 {
		fmt.Fprintf(f.errWriter, " %s", cyan(fmt.Sprintf("(%dms)", durationMs)))
	}
	fmt.Fprintf(f.errWriter, "\n")
}

func (f *ConsoleFormatter) formatHeaders(headers map[string]string) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	yellow := color.New(color.FgYellow).SprintFunc()
	for _, k := range keys {
		fmt.Fprintf(f.errWriter, "  %s: %s\n", yellow(k), headers[k])
	}
}
