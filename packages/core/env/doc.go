// Package env handles environment variables and placeholder resolution for connect.
//
// It provides functionality for:
//   - Loading .env files
//   - Collecting prefixed variables from the process environment
//   - Interpolating {{variable}}, {{$ENV_VAR}}, ${ENV_VAR} and {{func()}} placeholders
package env
