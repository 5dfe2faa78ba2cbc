package config

import "sync/atomic"

var defaults atomic.Pointer[Layer]

func init() {
	defaults.Store(&Layer{})
}

// SetDefaults replaces the process-wide default layer. Every client that was not
// built with an explicit base layer observes the new value on its next call.
// There is no reset; pass an empty Layer to clear.
func SetDefaults(l Layer) {
	c := l.Clone()
	defaults.Store(&c)
}

// Defaults returns a copy of the current process-wide default layer.
func Defaults() Layer {
	return defaults.Load().Clone()
}
