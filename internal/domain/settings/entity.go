// internal/domain/settings/entity.go
package settings

import (
	"errors"
	"strings"
)

const Collection = "configurations"

var ErrUnknownKey = errors.New("settings: unknown key")

// Entry is one configurations/{key} document.
type Entry struct {
	Key   string `json:"key" firestore:"key"`
	Value string `json:"value" firestore:"value"`
}

// Keys editable from the admin console.
const (
	KeySiteName        = "siteName"
	KeyHeroHeadline    = "heroHeadline"
	KeyHeroSubheadline = "heroSubheadline"
)

var known = []string{KeySiteName, KeyHeroHeadline, KeyHeroSubheadline}

func Keys() []string { return append([]string(nil), known...) }

// Normalize validates a settings map and returns it as entries in key order.
func Normalize(in map[string]string) ([]Entry, error) {
	out := make([]Entry, 0, len(in))
	for _, k := range known {
		v, ok := in[k]
		if !ok {
			continue
		}
		out = append(out, Entry{Key: k, Value: strings.TrimSpace(v)})
	}
	if len(out) != len(in) {
		return nil, ErrUnknownKey
	}
	return out, nil
}

// Map folds entries back into key -> value.
func Map(entries []Entry) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Key] = e.Value
	}
	return out
}
