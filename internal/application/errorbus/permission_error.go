// internal/application/errorbus/permission_error.go
package errorbus

import "fmt"

// OpKind is the operation a PermissionError was raised for.
type OpKind string

const (
	OpReadList   OpKind = "read-list"
	OpReadSingle OpKind = "read-single"
	OpWrite      OpKind = "write"
	OpDelete     OpKind = "delete"
)

// PermissionError reports that the backend denied (or failed) an operation on a path.
//
// The message is built from kind + path only so that it can be shown to a client
// without leaking backend internals. The underlying cause stays reachable through
// errors.Unwrap for server-side logs.
type PermissionError struct {
	Kind        OpKind `json:"operationKind"`
	Path        string `json:"path"`
	Message     string `json:"message"`
	RequestData any    `json:"requestData,omitempty"`

	cause error
}

func NewPermissionError(kind OpKind, path string, cause error) *PermissionError {
	return &PermissionError{
		Kind:    kind,
		Path:    path,
		Message: fmt.Sprintf("missing or insufficient permissions: %s denied on %q", kind, path),
		cause:   cause,
	}
}

// WithRequestData attaches the payload of a rejected write.
func (e *PermissionError) WithRequestData(data any) *PermissionError {
	if e == nil {
		return nil
	}
	e.RequestData = data
	return e
}

// Redacted returns a copy safe to hand to other clients: kind, path and
// message only.
func (e *PermissionError) Redacted() *PermissionError {
	if e == nil {
		return nil
	}
	return &PermissionError{Kind: e.Kind, Path: e.Path, Message: e.Message}
}

func (e *PermissionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *PermissionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}
