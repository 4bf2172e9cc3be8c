package models

// ArchiveDocument is an immutable snapshot of a document's non-locale state
// at one revision. DocumentID is a plain reference, not a live relationship;
// archive rows are never updated or deleted once written.
type ArchiveDocument struct {
	ID          int64           `json:"-"`
	DocumentID  int64           `json:"document_id"`
	Kind        Kind            `json:"kind"`
	Protected   bool            `json:"protected"`
	RedirectsTo *int64          `json:"redirects_to,omitempty"`
	Quality     Quality         `json:"quality"`
	Version     int             `json:"version"`
	Waypoint    *WaypointFields `json:"waypoint,omitempty"`
}

// ArchiveDocumentLocale is an immutable snapshot of one locale at the
// locale's own version counter.
type ArchiveDocumentLocale struct {
	ID          int64   `json:"-"`
	DocumentID  int64   `json:"document_id"`
	Lang        string  `json:"lang"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Access      *string `json:"access,omitempty"`
	Version     int     `json:"version"`
}

// ToArchive copies all common and type-specific fields of the document into
// a fresh archive row. The archive identity is left unset (assigned on
// insert) and Version records the document's current revision counter.
// The copy shares no mutable state with the live aggregate.
func (d *Document) ToArchive() *ArchiveDocument {
	a := &ArchiveDocument{
		DocumentID:  d.DocumentID,
		Kind:        d.Kind,
		Protected:   d.Protected,
		RedirectsTo: cloneInt64Ptr(d.RedirectsTo),
		Quality:     d.Quality,
		Version:     d.Revision,
	}
	if d.Waypoint != nil {
		w := *d.Waypoint
		w.Elevation = cloneIntPtr(d.Waypoint.Elevation)
		a.Waypoint = &w
	}
	return a
}

// ArchiveLocales snapshots every current locale. Each snapshot carries the
// locale's own version counter: locales untouched by the current edit keep
// their prior counter, changed or new locales carry the freshly bumped one.
func (d *Document) ArchiveLocales() []*ArchiveDocumentLocale {
	archives := make([]*ArchiveDocumentLocale, 0, len(d.Locales))
	for _, l := range d.Locales {
		archives = append(archives, &ArchiveDocumentLocale{
			DocumentID:  l.DocumentID,
			Lang:        l.Lang,
			Title:       l.Title,
			Description: cloneStringPtr(l.Description),
			Access:      cloneStringPtr(l.Access),
			Version:     l.Version,
		})
	}
	return archives
}
