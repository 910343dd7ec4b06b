package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/journee-docs/livedocs/backend/internal/document"
	"github.com/journee-docs/livedocs/backend/pkg/logger"
)

// FileRepo stores the document collection as a single JSON array on disk.
// Timestamps are serialized as RFC3339 strings. Mutate holds one mutex
// across the whole load-mutate-save cycle, so concurrent mutations cannot
// lose each other's writes.
type FileRepo struct {
	mu   sync.Mutex
	path string
}

// diskDocument is the on-disk shape; time fields are kept as strings so the
// file stays readable and stable across timezones.
type diskDocument struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	RoomID        string   `json:"roomId"`
	CreatedBy     string   `json:"createdBy"`
	Collaborators []string `json:"collaborators"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

// NewFileRepo creates a file-backed repository at path, creating the parent
// directory when absent.
func NewFileRepo(path string) (*FileRepo, error) {
	if path == "" {
		return nil, fmt.Errorf("documents file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileRepo{path: path}, nil
}

// LoadAll reads the collection. On first run (no file) it seeds the sample
// documents and persists them. A corrupt or unreadable file is logged and
// treated the same way: the service stays available with degraded history.
func (r *FileRepo) LoadAll() ([]*document.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

// SaveAll rewrites the entire file with docs.
func (r *FileRepo) SaveAll(docs []*document.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(docs)
}

// Mutate runs fn over the loaded collection and persists its result without
// releasing the mutex in between. An error from fn discards the cycle.
func (r *FileRepo) Mutate(fn func(docs []*document.Document) ([]*document.Document, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	docs, err := r.loadLocked()
	if err != nil {
		return err
	}
	next, err := fn(docs)
	if err != nil {
		return err
	}
	return r.saveLocked(next)
}

func (r *FileRepo) loadLocked() ([]*document.Document, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Errorf("documents file unreadable, reseeding: %v", err)
		} else {
			logger.Infof("no documents file at %s, creating seed documents", r.path)
		}
		return r.seedLocked()
	}
	var raw []diskDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Errorf("documents file corrupt, reseeding: %v", err)
		return r.seedLocked()
	}
	docs := make([]*document.Document, 0, len(raw))
	for i := range raw {
		d, err := fromDisk(&raw[i])
		if err != nil {
			logger.Errorf("documents file corrupt (record %d), reseeding: %v", i, err)
			return r.seedLocked()
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (r *FileRepo) saveLocked(docs []*document.Document) error {
	raw := make([]diskDocument, 0, len(docs))
	for _, d := range docs {
		raw = append(raw, toDisk(d))
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write documents file: %w", err)
	}
	return nil
}

func (r *FileRepo) seedLocked() ([]*document.Document, error) {
	docs := SeedDocuments()
	if err := r.saveLocked(docs); err != nil {
		// persistence faults on seed are logged, not propagated; the caller
		// still gets a usable collection
		logger.Errorf("failed to persist seed documents: %v", err)
	}
	return docs, nil
}

// SeedUserID owns the seed documents until a real user takes over via the
// dashboard. Overridable through SEED_USER_ID so local setups see their own
// documents on first run.
var SeedUserID = func() string {
	if v := os.Getenv("SEED_USER_ID"); v != "" {
		return v
	}
	return "user_340w7vJfrNB1M2fzcM5Rd3bo9GT"
}()

// SeedDocuments returns the sample collection written on first run.
func SeedDocuments() []*document.Document {
	uid := SeedUserID
	return []*document.Document{
		{
			ID:            "doc_welcome_sample",
			Title:         "Welcome to Journee Docs",
			RoomID:        "room_welcome_sample",
			CreatedBy:     uid,
			Collaborators: []string{uid},
			CreatedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			UpdatedAt:     time.Now().UTC(),
		},
		{
			ID:            "doc_guide_sample",
			Title:         "Getting Started Guide",
			RoomID:        "room_guide_sample",
			CreatedBy:     uid,
			Collaborators: []string{uid},
			CreatedAt:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			UpdatedAt:     time.Now().UTC(),
		},
	}
}

func toDisk(d *document.Document) diskDocument {
	return diskDocument{
		ID:            d.ID,
		Title:         d.Title,
		RoomID:        d.RoomID,
		CreatedBy:     d.CreatedBy,
		Collaborators: d.Collaborators,
		CreatedAt:     d.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     d.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromDisk(raw *diskDocument) (*document.Document, error) {
	created, err := time.Parse(time.RFC3339Nano, raw.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse createdAt %q: %w", raw.CreatedAt, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, raw.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updatedAt %q: %w", raw.UpdatedAt, err)
	}
	return &document.Document{
		ID:            raw.ID,
		Title:         raw.Title,
		RoomID:        raw.RoomID,
		CreatedBy:     raw.CreatedBy,
		Collaborators: raw.Collaborators,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}, nil
}
