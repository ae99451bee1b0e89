package domain

import "github.com/rotisserie/eris"

// Error kinds surfaced to callers. Wrap them with eris and test with eris.Is.
var (
	ErrValidation      = eris.New("validation failed")
	ErrIndexOutOfRange = eris.New("site index out of range")
	ErrDuplicateSite   = eris.New("site name already exists")
	ErrPersistence     = eris.New("persistence failed")
	ErrRunInProgress   = eris.New("run already in progress")
)

type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string        { return e.err.Error() }
func (e *kindError) Unwrap() error        { return e.err }
func (e *kindError) Is(target error) bool { return e.kind == target }

// WithKind tags err with one of the kinds above. The result matches both the
// kind and everything in err's own chain.
func WithKind(kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}
