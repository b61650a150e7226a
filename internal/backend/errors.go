package backend

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultRejectMessage is used when a rejection carries no message.
const DefaultRejectMessage = "Gagal mengirim pengaduan"

// FieldErrors reports backend validation failures keyed by field name.
type FieldErrors struct {
	Status int
	Fields map[string]string
}

func (e *FieldErrors) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return fmt.Sprintf("backend rejected fields (%d): %s", e.Status, strings.Join(names, ", "))
}

// RejectedError is a non-2xx response without field errors.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("backend rejected complaint (%d): %s", e.Status, e.Message)
}

// StatusError is a non-2xx response from the handshake endpoint.
type StatusError struct {
	Op     string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
}

// TransportError wraps network and decoding failures.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }
