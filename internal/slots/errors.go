package slots

import (
	"errors"
	"fmt"

	"github.com/lehigh-university-libraries/herobanner/internal/adminapi"
	"github.com/lehigh-university-libraries/herobanner/internal/models"
	"github.com/lehigh-university-libraries/herobanner/internal/validate"
)

var (
	// ErrBusy is returned when an operation of the same class is already running.
	ErrBusy = errors.New("another request is still in progress")

	// ErrNotAllowed is returned when the current state does not permit the operation.
	ErrNotAllowed = errors.New("operation not allowed in the current state")
)

// ReplaceError reports a replace whose delete went through but whose upload
// did not. The slot is gone on the server; nothing is rolled back.
type ReplaceError struct {
	Deleted models.ImageRecord
	Err     error
}

func (e *ReplaceError) Error() string {
	return fmt.Sprintf("image %s was removed but the replacement failed to upload: %v", e.Deleted.ID, e.Err)
}

func (e *ReplaceError) Unwrap() error {
	return e.Err
}

// Message turns err into the single line shown to the admin.
func Message(err error) string {
	var (
		verr *validate.Error
		serr *adminapi.ServiceError
		terr *adminapi.TransportError
		rerr *ReplaceError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rerr):
		return fmt.Sprintf("The old image was removed but the new one could not be uploaded: %s", Message(rerr.Err))
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &serr):
		return serr.Message
	case errors.As(err, &terr):
		return "Could not reach the server: " + terr.Error()
	default:
		return err.Error()
	}
}
