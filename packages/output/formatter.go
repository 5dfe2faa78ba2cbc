package output

import (
	connecthttp "github.com/abdul-hamid-achik/connect/packages/http"
)

// Formatter renders the outcome of one call.
type Formatter interface {
	FormatResult(result *connecthttp.Result) error
	FormatError(err error) error
}

var (
	_ Formatter = (*ConsoleFormatter)(nil)
	_ Formatter = (*JSONFormatter)(nil)
)
