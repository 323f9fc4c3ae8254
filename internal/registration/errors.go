package registration

// Messages shown to the registrant. They are flashed verbatim.
const (
	MsgFieldsRequired  = "All fields are required"
	MsgPasswordsDiffer = "Passwords do not match"
	MsgInvalidBirthday = "Invalid birthday format"
	MsgEmailExists     = "Email already exists"
	MsgDatabaseError   = "Database error occurred"
)

// ValidationError is a user-correctable problem with the submitted form.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// PersistenceError means the store could not complete the request.
// Message is safe to show; Err carries the cause for logs.
type PersistenceError struct {
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

func persistence(err error) error {
	return &PersistenceError{Message: MsgDatabaseError, Err: err}
}
