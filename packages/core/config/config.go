package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/connect/packages/core/env"
	"gopkg.in/yaml.v3"
)

// ErrInvalid matches every error returned by Layer.Validate.
var ErrInvalid = errors.New("invalid configuration")

// DefaultMessageKey is the JSON path read from error bodies when no layer sets MessageKey.
const DefaultMessageKey = "message"

// Layer is one level of optional request settings. A zero-valued field is unset
// and inherits from the next outer layer.
type Layer struct {
	Origin         string            `json:"origin,omitempty" yaml:"origin,omitempty"`
	Headers        map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	MessageKey     string            `json:"messageKey,omitempty" yaml:"messageKey,omitempty"` // gjson path of the error message
	Credentials    Credentials       `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Cache          CacheMode         `json:"cache,omitempty" yaml:"cache,omitempty"`
	Redirect       RedirectMode      `json:"redirect,omitempty" yaml:"redirect,omitempty"`
	Referrer       string            `json:"referrer,omitempty" yaml:"referrer,omitempty"`
	ReferrerPolicy ReferrerPolicy    `json:"referrerPolicy,omitempty" yaml:"referrerPolicy,omitempty"`
	Mode           RequestMode       `json:"mode,omitempty" yaml:"mode,omitempty"`
	Integrity      string            `json:"integrity,omitempty" yaml:"integrity,omitempty"` // subresource-integrity hash
}

// Merge returns a new layer where every field set in inner wins over outer.
// Headers merge key by key. Neither input is modified.
func Merge(outer, inner Layer) Layer {
	result := outer
	result.Headers = MergeHeaders(outer.Headers, inner.Headers)

	if inner.Origin != "" {
		result.Origin = inner.Origin
	}
	if inner.MessageKey != "" {
		result.MessageKey = inner.MessageKey
	}
	if inner.Credentials != "" {
		result.Credentials = inner.Credentials
	}
	if inner.Cache != "" {
		result.Cache = inner.Cache
	}
	if inner.Redirect != "" {
		result.Redirect = inner.Redirect
	}
	if inner.Referrer != "" {
		result.Referrer = inner.Referrer
	}
	if inner.ReferrerPolicy != "" {
		result.ReferrerPolicy = inner.ReferrerPolicy
	}
	if inner.Mode != "" {
		result.Mode = inner.Mode
	}
	if inner.Integrity != "" {
		result.Integrity = inner.Integrity
	}

	return result
}

// Effective applies the fixed precedence global < instance < call.
func Effective(global, instance, call Layer) Layer {
	return Merge(Merge(global, instance), call)
}

// MergeHeaders copies outer and overlays inner. Keys are canonicalized so that
// differently-cased spellings of one header collapse into one entry.
func MergeHeaders(outer, inner map[string]string) map[string]string {
	if len(outer) == 0 && len(inner) == 0 {
		return nil
	}
	result := make(map[string]string, len(outer)+len(inner))
	for k, v := range outer {
		result[textproto.CanonicalMIMEHeaderKey(k)] = v
	}
	for k, v := range inner {
		result[textproto.CanonicalMIMEHeaderKey(k)] = v
	}
	return result
}

// Clone returns a deep copy of the layer.
func (l Layer) Clone() Layer {
	c := l
	c.Headers = MergeHeaders(l.Headers, nil)
	return c
}

// Header returns the value of a header regardless of the key's casing.
func (l Layer) Header(key string) string {
	if v, ok := l.Headers[key]; ok {
		return v
	}
	for k, v := range l.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// GetMessageKey returns the message key, defaulting to DefaultMessageKey
func (l Layer) GetMessageKey() string {
	if l.MessageKey == "" {
		return DefaultMessageKey
	}
	return l.MessageKey
}

// IsZero reports whether no field of the layer is set.
func (l Layer) IsZero() bool {
	return l.Origin == "" && len(l.Headers) == 0 && l.MessageKey == "" &&
		l.Credentials == "" && l.Cache == "" && l.Redirect == "" &&
		l.Referrer == "" && l.ReferrerPolicy == "" && l.Mode == "" && l.Integrity == ""
}

// Validate checks every enumerated field against its allowed values.
func (l Layer) Validate() error {
	if !l.Credentials.Valid() {
		return fmt.Errorf("%w: credentials mode %q", ErrInvalid, l.Credentials)
	}
	if !l.Cache.Valid() {
		return fmt.Errorf("%w: cache mode %q", ErrInvalid, l.Cache)
	}
	if !l.Redirect.Valid() {
		return fmt.Errorf("%w: redirect mode %q", ErrInvalid, l.Redirect)
	}
	if !l.ReferrerPolicy.Valid() {
		return fmt.Errorf("%w: referrer policy %q", ErrInvalid, l.ReferrerPolicy)
	}
	if !l.Mode.Valid() {
		return fmt.Errorf("%w: request mode %q", ErrInvalid, l.Mode)
	}
	return nil
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	"connect.yaml",
	".connect.yaml",
	"connect.json",
	".connectrc",
	".connectrc.json",
}

// LoadLayer loads a layer from the specified path or searches the current directory
func LoadLayer(path string) (Layer, error) {
	if path != "" {
		return loadLayerFromFile(path)
	}
	return FindAndLoadLayer(".")
}

// FindAndLoadLayer searches for a config file in the given directory.
// An empty layer is returned when none exists.
func FindAndLoadLayer(dir string) (Layer, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadLayerFromFile(configPath)
		}
	}
	return Layer{}, nil
}

func loadLayerFromFile(path string) (Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layer{}, err
	}

	// Environment references are expanded before decoding so they work in any field.
	expanded := env.NewResolver().Resolve(string(data))

	var layer Layer
	if isYAML(path) {
		err = yaml.Unmarshal([]byte(expanded), &layer)
	} else {
		err = json.Unmarshal([]byte(expanded), &layer)
	}
	if err != nil {
		return Layer{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	layer.Headers = MergeHeaders(layer.Headers, nil)
	if err := layer.Validate(); err != nil {
		return Layer{}, fmt.Errorf("%s: %w", path, err)
	}
	return layer, nil
}

// Save writes the layer to a file, as YAML or JSON depending on the extension
func (l Layer) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(l)
	} else {
		data, err = json.MarshalIndent(l, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
