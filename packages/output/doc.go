// Package output renders call outcomes for the command line.
//
// Supported output formats:
//   - Console: the response body, pretty-printed and colored when it is JSON,
//     with the status line and headers in verbose mode
//   - JSON: one machine-readable document per call
package output
