package service

// Kind classifies pipeline failures so the HTTP layer can pick a
// response status without parsing messages.
type Kind int

const (
	// KindInvalidInput covers missing/malformed request fields and
	// payloads that are not a supported image format.
	KindInvalidInput Kind = iota + 1
	// KindFetchFailed covers unreachable URLs and non-success statuses.
	KindFetchFailed
	// KindInferenceFailed covers transport and parse failures of the
	// remote classifier.
	KindInferenceFailed
	// KindStorageFailed covers blob upload and record write failures.
	KindStorageFailed
)

// Error is a pipeline failure tagged with its kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func failed(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
