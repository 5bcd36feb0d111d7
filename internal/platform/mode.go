// Package platform describes the runtime the gallery is serving.
package platform

import "fmt"

// Mode is the runtime the gallery renders for.
//
// In native mode device file URIs are directly renderable. In web mode files on
// disk are not reachable by the renderer and have to be inlined as data URIs.
type Mode string

// Runtime modes.
const (
	ModeNative Mode = "native"
	ModeWeb    Mode = "web"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNative:
		return ModeNative, nil
	case ModeWeb:
		return ModeWeb, nil
	default:
		return "", fmt.Errorf("platform: unknown mode %q", s)
	}
}

// IsNative reports whether m is the packaged device runtime.
func (m Mode) IsNative() bool {
	return m == ModeNative
}

func (m Mode) String() string {
	return string(m)
}
