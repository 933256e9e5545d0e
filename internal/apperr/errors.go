package apperr

type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func NewValidationWrap(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func NewNotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// EmptyTestSetError rejects a run request that resolved to zero active
// test cases. Fatal to the request, not the system.
type EmptyTestSetError struct {
	Message string
}

func (e *EmptyTestSetError) Error() string {
	return e.Message
}

func NewEmptyTestSet(msg string) *EmptyTestSetError {
	return &EmptyTestSetError{Message: msg}
}

// PersistenceError marks a failed write of a run or evaluation. Fatal to
// the affected run and surfaced to the caller rather than reported as a
// misleadingly completed run.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err != nil {
		return "persistence failure during " + e.Op + ": " + e.Err.Error()
	}
	return "persistence failure during " + e.Op
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func NewPersistence(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}
