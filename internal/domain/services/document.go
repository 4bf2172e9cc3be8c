package services

import (
	"context"

	"alpwiki/internal/domain/models"
)

// DocumentService is the versioning and optimistic-concurrency engine.
// Every accepted edit checks version tokens, merges the incoming state,
// classifies what changed and writes one batch of revision-ledger rows.
type DocumentService interface {
	// Create persists a new document and its initial locales, producing the
	// revision-1 ledger entries ("creation")
	Create(ctx context.Context, req *CreateDocumentRequest) (*models.Document, []*models.DocumentVersion, error)

	// Update applies an incoming partial document onto the stored aggregate.
	// Fails with ErrNotFound when the document does not exist and with
	// ErrStaleWrite when a supplied version token no longer matches.
	Update(ctx context.Context, documentID int64, req *UpdateDocumentRequest) (*models.Document, []*models.DocumentVersion, error)

	// Get retrieves a document; a non-empty lang restricts the returned
	// locales to that language
	Get(ctx context.Context, documentID int64, lang string) (*models.Document, error)

	// List retrieves all documents of one kind
	List(ctx context.Context, kind models.Kind) ([]*models.Document, error)

	// History lists the revision ledger of a document newest first,
	// optionally filtered by language code
	History(ctx context.Context, documentID int64, lang string) ([]*models.DocumentVersion, error)
}

// LocaleInput is one language-specific content record as submitted by a
// caller. VersionToken is required when editing an existing locale and
// ignored for new languages.
type LocaleInput struct {
	Lang         string  `json:"lang"`
	Title        string  `json:"title"`
	Description  *string `json:"description,omitempty"`
	Access       *string `json:"access,omitempty"`
	VersionToken string  `json:"version_token,omitempty"`
}

// CreateDocumentRequest represents a document creation request.
// Non-whitelisted fields such as protected or redirects_to are deliberately
// absent: callers can never set them.
type CreateDocumentRequest struct {
	Kind         models.Kind    `json:"kind"`
	Quality      models.Quality `json:"quality,omitempty"`
	WaypointType string         `json:"waypoint_type,omitempty"`
	Elevation    *int           `json:"elevation,omitempty"`
	Locales      []LocaleInput  `json:"locales"`
	Comment      string         `json:"comment,omitempty"`
	IsMinor      bool           `json:"is_minor,omitempty"`

	// UserID is filled by the handler from the authenticated request,
	// never from the request body
	UserID string `json:"-"`
}

// UpdateDocumentRequest represents a document update request.
// VersionToken must round-trip the document token previously returned by the
// system; each existing locale being edited must round-trip its own token.
type UpdateDocumentRequest struct {
	VersionToken string         `json:"version_token"`
	Quality      models.Quality `json:"quality,omitempty"`
	WaypointType string         `json:"waypoint_type,omitempty"`
	Elevation    *int           `json:"elevation,omitempty"`
	Locales      []LocaleInput  `json:"locales"`
	Comment      string         `json:"comment,omitempty"`
	IsMinor      bool           `json:"is_minor,omitempty"`

	// UserID is filled by the handler from the authenticated request
	UserID string `json:"-"`
}
