package driven

import (
	"errors"
	"fmt"
)

// ErrInvalidRepository is the single user-facing "this repository doesn't
// work" signal. The loader raises it when every top-level operation failed,
// or when the repository exists but contains none of the expected structure.
// Downstream must distinguish it from ordinary network errors so the UI can
// show verify-the-repository guidance instead of generic retry copy.
var ErrInvalidRepository = errors.New("repository is invalid, inaccessible, or has no tome structure")

// FetchError reports a non-2xx HTTP response for a single URL. File-level
// and discovery-level fetch failures are recovered locally; a FetchError is
// fatal only when it contributes to the loader's all-failed condition.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
}

// ParseError reports a YAML body that failed to parse or parsed to nothing
// useful. Recovery policy is identical to FetchError.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parsing %s: document is empty", e.URL)
	}
	return fmt.Sprintf("parsing %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
