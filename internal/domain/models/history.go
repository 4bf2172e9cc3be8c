package models

import "time"

// VersionNature tags what kind of edit produced a ledger row
type VersionNature string

const (
	// NatureFullText marks an ordinary full-text edit
	NatureFullText VersionNature = "ft"
)

// HistoryMetadata is the edit-level metadata shared by every ledger row
// produced by one edit: one editor, one comment, one minor flag, one
// server-assigned timestamp. UserID is empty when the edit came through an
// unauthenticated deployment.
type HistoryMetadata struct {
	ID        int64     `json:"-"`
	UserID    string    `json:"user_id,omitempty"`
	Comment   string    `json:"comment"`
	IsMinor   bool      `json:"is_minor"`
	WrittenAt time.Time `json:"written_at"`
}

// DocumentVersion is one row of the revision ledger: it records that the
// given locale was part of the given revision of a document, and points to
// the snapshots taken for that revision.
//
// All rows of one edit share the same Version number, the same Metadata and
// the same Archive instance; each row owns its own ArchiveLocale. The foreign
// key fields are filled by the persistence layer on insert.
type DocumentVersion struct {
	ID              int64         `json:"-"`
	DocumentID      int64         `json:"document_id"`
	Lang            string        `json:"lang"`
	Version         int           `json:"version"`
	Nature          VersionNature `json:"nature"`
	ArchiveID       int64         `json:"-"`
	ArchiveLocaleID int64         `json:"-"`
	MetadataID      int64         `json:"-"`

	Archive       *ArchiveDocument       `json:"-"`
	ArchiveLocale *ArchiveDocumentLocale `json:"-"`
	Metadata      *HistoryMetadata       `json:"metadata,omitempty"`
}
