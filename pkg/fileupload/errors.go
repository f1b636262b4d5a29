package fileupload

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	// KindConfiguration covers missing locator modes, unusable templates and marker mismatches
	KindConfiguration ErrorKind = "configuration"
	// KindTransport covers failed or interrupted send-and-receive calls
	KindTransport ErrorKind = "transport"
)

// FileUploadError is the failure surfaced by a vector execution
type FileUploadError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *FileUploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *FileUploadError) Unwrap() error {
	return e.Err
}

func newConfigurationError(format string, args ...interface{}) *FileUploadError {
	return &FileUploadError{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

func newTransportError(message string, err error) *FileUploadError {
	return &FileUploadError{Kind: KindTransport, Message: message, Err: err}
}

func isKind(err error, kind ErrorKind) bool {
	var fe *FileUploadError
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

// IsConfigurationError reports whether err (or any error it wraps) is a configuration error
func IsConfigurationError(err error) bool {
	return isKind(err, KindConfiguration)
}

// IsTransportError reports whether err (or any error it wraps) is a transport error
func IsTransportError(err error) bool {
	return isKind(err, KindTransport)
}
