package driven

import (
	"context"

	"github.com/ericfisherdev/tomeboard/internal/domain/model"
)

// ContentClient defines the driven port for reading files out of a public
// GitHub repository: raw YAML content plus directory listings.
type ContentClient interface {
	// FetchYAML retrieves the raw file at path on the given ref and decodes
	// it into out. Returns *FetchError on a non-2xx response and *ParseError
	// when the body is not valid YAML or decodes to an empty document. No
	// retry happens at this layer; retry policy belongs to the caller.
	FetchYAML(ctx context.Context, repo model.RepositoryRef, ref, path string, out any) error

	// ListDirectory lists the file names directly inside dir (entries with
	// type "file" and a .yaml/.yml extension). Any failure (missing
	// directory, network error, non-2xx) degrades to an empty list rather
	// than propagating, since a repository may legitimately have only one of
	// the two content directories.
	ListDirectory(ctx context.Context, repo model.RepositoryRef, ref, dir string) []string
}
