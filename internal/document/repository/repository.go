package repository

import "github.com/journee-docs/livedocs/backend/internal/document"

// Repository is the whole-collection store the document service runs on.
// The collection is the unit of persistence: every mutation reads the full
// set, computes the new set and writes it back in one piece, through Mutate.
type Repository interface {
	// LoadAll returns the current collection. The file-backed implementation
	// degrades a corrupt or missing backing file to the seed collection
	// rather than failing the caller.
	LoadAll() ([]*document.Document, error)

	// SaveAll replaces the persisted collection with docs.
	SaveAll(docs []*document.Document) error

	// Mutate atomically applies fn to the collection: the load, fn and save
	// run as one serialized cycle, so concurrent mutations cannot interleave
	// and lose each other's writes. When fn returns an error nothing is
	// persisted and that error is returned as-is.
	Mutate(fn func(docs []*document.Document) ([]*document.Document, error)) error
}
