package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbedderRequired is returned when a reembedder is constructed
	// without an embedder.
	ErrEmbedderRequired = errors.New("an embedder is required")

	// ErrRepositoryRequired is returned when a reembedder is constructed
	// without the repository for its target kind.
	ErrRepositoryRequired = errors.New("a repository is required")
)
