package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/journee-docs/livedocs/backend/internal/document"
	"github.com/journee-docs/livedocs/backend/internal/document/repository"
	"github.com/journee-docs/livedocs/backend/internal/rooms"
	"github.com/journee-docs/livedocs/backend/pkg/logger"
	"github.com/journee-docs/livedocs/backend/pkg/metrics"
)

// Syncer is the slice of the realtime room provider the document service
// needs. Calls are best-effort side effects: the local record is the source
// of truth and a sync failure never fails the document operation.
type Syncer interface {
	CreateRoom(ctx context.Context, roomID, ownerID string, metadata map[string]string) error
	DeleteRoom(ctx context.Context, roomID string) error
	GrantAccess(ctx context.Context, roomID, userID string, permissions []string) error
	RevokeAccess(ctx context.Context, roomID, userID string) error
}

// Service implements the document lifecycle on top of a whole-collection
// repository. Every mutation runs its check-and-modify step inside
// repository.Repository.Mutate, so concurrent operations cannot overwrite
// each other's collections; none composes another.
type Service struct {
	repo   repository.Repository
	syncer Syncer // may be nil when no room provider is configured
}

func New(repo repository.Repository, syncer Syncer) *Service {
	return &Service{repo: repo, syncer: syncer}
}

// CreateInput carries the fields accepted at creation time.
type CreateInput struct {
	Title         string
	CreatedBy     string
	Collaborators []string
}

// Create appends a new document with fresh id and roomId, persists it and
// registers the room with the realtime provider (best effort).
func (s *Service) Create(ctx context.Context, in CreateInput) (*document.Document, error) {
	if strings.TrimSpace(in.CreatedBy) == "" {
		return nil, fmt.Errorf("%w: createdBy is required", document.ErrValidation)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = document.DefaultTitle
	}

	now := time.Now().UTC()
	suffix := freshSuffix()
	doc := &document.Document{
		ID:            "doc_" + suffix,
		Title:         title,
		RoomID:        "room_" + suffix,
		CreatedBy:     in.CreatedBy,
		Collaborators: document.NormalizeCollaborators(in.CreatedBy, in.Collaborators),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.repo.Mutate(func(docs []*document.Document) ([]*document.Document, error) {
		return append(docs, doc), nil
	})
	if err != nil {
		return nil, err
	}
	metrics.DocumentOps.WithLabelValues("create").Inc()

	s.syncCreate(ctx, doc)
	return doc, nil
}

// Get returns the document with the given id, enforcing read access.
func (s *Service) Get(ctx context.Context, id, userID string) (*document.Document, error) {
	docs, err := s.repo.LoadAll()
	if err != nil {
		return nil, err
	}
	doc := findByID(docs, id)
	if doc == nil {
		return nil, document.ErrNotFound
	}
	if !document.CanRead(doc, userID) {
		return nil, document.ErrAccessDenied
	}
	return doc, nil
}

// GetByRoomID is Get keyed by the realtime room identifier.
func (s *Service) GetByRoomID(ctx context.Context, roomID, userID string) (*document.Document, error) {
	docs, err := s.repo.LoadAll()
	if err != nil {
		return nil, err
	}
	var doc *document.Document
	for _, d := range docs {
		if d.RoomID == roomID {
			doc = d
			break
		}
	}
	if doc == nil {
		return nil, document.ErrNotFound
	}
	if !document.CanRead(doc, userID) {
		return nil, document.ErrAccessDenied
	}
	return doc, nil
}

// List runs the query engine over the collection for userID.
func (s *Service) List(ctx context.Context, userID string, opts document.ListOptions) (*document.ListResult, error) {
	docs, err := s.repo.LoadAll()
	if err != nil {
		return nil, err
	}
	return document.Query(docs, userID, opts), nil
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Title         *string
	Collaborators []string
}

// Update applies the supplied fields, re-normalizes collaborators so the
// creator stays a member, refreshes updatedAt and persists.
func (s *Service) Update(ctx context.Context, id, userID string, in UpdateInput) (*document.Document, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", document.ErrValidation)
	}

	var updated *document.Document
	err := s.repo.Mutate(func(docs []*document.Document) ([]*document.Document, error) {
		doc := findByID(docs, id)
		if doc == nil {
			return nil, document.ErrNotFound
		}
		if !document.CanWrite(doc, userID) {
			return nil, document.ErrAccessDenied
		}

		if in.Title != nil {
			doc.Title = strings.TrimSpace(*in.Title)
		}
		if in.Collaborators != nil {
			doc.Collaborators = document.NormalizeCollaborators(doc.CreatedBy, in.Collaborators)
		}
		doc.UpdatedAt = time.Now().UTC()
		updated = doc
		return docs, nil
	})
	if err != nil {
		return nil, err
	}
	metrics.DocumentOps.WithLabelValues("update").Inc()
	return updated, nil
}

// Delete removes the document. Only the creator may delete; anyone else gets
// ErrAccessDenied and the collection is untouched.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	var removed *document.Document
	err := s.repo.Mutate(func(docs []*document.Document) ([]*document.Document, error) {
		idx := indexByID(docs, id)
		if idx < 0 {
			return nil, document.ErrNotFound
		}
		doc := docs[idx]
		if !document.CanDelete(doc, userID) {
			return nil, document.ErrAccessDenied
		}
		removed = doc
		return append(docs[:idx], docs[idx+1:]...), nil
	})
	if err != nil {
		return err
	}
	metrics.DocumentOps.WithLabelValues("delete").Inc()

	if s.syncer != nil {
		if err := s.syncer.DeleteRoom(ctx, removed.RoomID); err != nil {
			logger.Warnf("room delete sync failed for %s: %v", removed.RoomID, err)
		}
	}
	return nil
}

// AddCollaborator inserts collaboratorID if absent. Adding an existing
// collaborator is a no-op, not an error.
func (s *Service) AddCollaborator(ctx context.Context, id, userID, collaboratorID string) (*document.Document, error) {
	if strings.TrimSpace(collaboratorID) == "" {
		return nil, fmt.Errorf("%w: collaborator id is required", document.ErrValidation)
	}

	var doc *document.Document
	var added bool
	err := s.repo.Mutate(func(docs []*document.Document) ([]*document.Document, error) {
		d := findByID(docs, id)
		if d == nil {
			return nil, document.ErrNotFound
		}
		if !document.CanWrite(d, userID) {
			return nil, document.ErrAccessDenied
		}
		doc = d

		for _, existing := range d.Collaborators {
			if existing == collaboratorID {
				return docs, nil
			}
		}
		d.Collaborators = append(d.Collaborators, collaboratorID)
		d.UpdatedAt = time.Now().UTC()
		added = true
		return docs, nil
	})
	if err != nil {
		return nil, err
	}
	if !added {
		return doc, nil
	}
	metrics.DocumentOps.WithLabelValues("add_collaborator").Inc()

	if s.syncer != nil {
		if err := s.syncer.GrantAccess(ctx, doc.RoomID, collaboratorID, rooms.PermissionWrite); err != nil {
			logger.Warnf("room access grant sync failed for %s: %v", doc.RoomID, err)
		}
	}
	return doc, nil
}

// RemoveCollaborator removes collaboratorID. The creator may remove anyone;
// any user may remove themselves. Removing the creator is always rejected
// with ErrCannotRemoveCreator, regardless of who asks.
func (s *Service) RemoveCollaborator(ctx context.Context, id, userID, collaboratorID string) (*document.Document, error) {
	var doc *document.Document
	err := s.repo.Mutate(func(docs []*document.Document) ([]*document.Document, error) {
		d := findByID(docs, id)
		if d == nil {
			return nil, document.ErrNotFound
		}
		if collaboratorID == d.CreatedBy {
			return nil, document.ErrCannotRemoveCreator
		}
		if !document.CanManageCollaborators(d, userID, collaboratorID) {
			return nil, document.ErrAccessDenied
		}

		kept := d.Collaborators[:0]
		for _, existing := range d.Collaborators {
			if existing != collaboratorID {
				kept = append(kept, existing)
			}
		}
		d.Collaborators = kept
		d.UpdatedAt = time.Now().UTC()
		doc = d
		return docs, nil
	})
	if err != nil {
		return nil, err
	}
	metrics.DocumentOps.WithLabelValues("remove_collaborator").Inc()

	if s.syncer != nil {
		if err := s.syncer.RevokeAccess(ctx, doc.RoomID, collaboratorID); err != nil {
			logger.Warnf("room access revoke sync failed for %s: %v", doc.RoomID, err)
		}
	}
	return doc, nil
}

// All returns the raw collection without access filtering (stats/admin use).
func (s *Service) All(ctx context.Context) ([]*document.Document, error) {
	return s.repo.LoadAll()
}

func (s *Service) syncCreate(ctx context.Context, doc *document.Document) {
	if s.syncer == nil {
		return
	}
	md := map[string]string{"title": doc.Title}
	if err := s.syncer.CreateRoom(ctx, doc.RoomID, doc.CreatedBy, md); err != nil {
		logger.Warnf("room create sync failed for %s: %v", doc.RoomID, err)
	}
}

func findByID(docs []*document.Document, id string) *document.Document {
	if i := indexByID(docs, id); i >= 0 {
		return docs[i]
	}
	return nil
}

func indexByID(docs []*document.Document, id string) int {
	for i, d := range docs {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// freshSuffix builds a monotonic-time-plus-random identifier suffix, unique
// for practical purposes within a single collection.
func freshSuffix() string {
	b := make([]byte, 5)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), hex.EncodeToString(b))
}
