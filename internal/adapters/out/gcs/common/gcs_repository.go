// internal/adapters/out/gcs/common/gcs_repository.go
package common

import (
	"fmt"
	"net/url"
	"strings"
)

// GCSPublicURL builds a public GCS URL.
// - an empty bucket falls back to defaultBucket
// - leading "/" on objectPath is dropped
// - each path segment is escaped
func GCSPublicURL(bucket, objectPath, defaultBucket string) string {
	b := strings.TrimSpace(bucket)
	if b == "" {
		b = strings.TrimSpace(defaultBucket)
	}
	obj := strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	segs := strings.Split(obj, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b, strings.Join(segs, "/"))
}

// CleanObjectPath trims whitespace and slashes and rejects traversal segments.
func CleanObjectPath(p string) (string, bool) {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return "", false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", false
		}
	}
	return p, true
}
