// Package cmd implements the connect CLI commands using Cobra.
//
// Available commands:
//   - get, post, put, patch, delete, head, options: send one request
//   - init: write a starter connect.yaml
//   - version: show connect version information
//   - completion: generate shell completion scripts
//
// Request flags fall back to CONNECT_* environment variables, and settings
// not given on the command line come from the nearest config file.
package cmd
