// Package config holds the layered request configuration used by connect.
//
// It provides functionality for:
//   - The Layer type: one level of optional request-shaping settings
//   - Field-by-field merging with strict global < instance < call precedence
//   - Process-wide default layer management
//   - Loading and saving layers from YAML or JSON files
package config
