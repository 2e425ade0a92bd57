package pdf

import (
	"context"
	"errors"
	"io/fs"
)

// Failure kinds reported for documents that could not be read
const (
	FailureEmpty      = "empty"
	FailureNotPDF     = "not_pdf"
	FailureTooLarge   = "too_large"
	FailureEncrypted  = "encrypted"
	FailureUnreadable = "unreadable"
	FailureCancelled  = "cancelled"
	FailureCorrupt    = "corrupt"
)

// Classify maps a Load error to a failure kind. Anything the parsers choked
// on is corrupt.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmpty):
		return FailureEmpty
	case errors.Is(err, ErrNotPDF):
		return FailureNotPDF
	case errors.Is(err, ErrTooLarge):
		return FailureTooLarge
	case errors.Is(err, ErrEncrypted):
		return FailureEncrypted
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return FailureUnreadable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCancelled
	default:
		return FailureCorrupt
	}
}
