package adminapi

import "fmt"

// ServiceError means the service answered with success:false
type ServiceError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("failed to %s: %s", e.Op, e.Message)
}

// TransportError means the call itself failed: no connection, timeout, or
// a response that was not an admin API envelope
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to %s: HTTP %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
