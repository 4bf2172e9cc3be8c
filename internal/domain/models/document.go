package models

// Kind discriminates the document variants. The set is closed: each kind has
// its own attribute struct hung off Document, selected by this tag.
type Kind string

const (
	// KindDocument is a plain document without type-specific attributes
	KindDocument Kind = "d"
	// KindWaypoint is a geographic waypoint (summit, pass, hut, ...)
	KindWaypoint Kind = "w"
)

// Quality rates how complete a document is
type Quality string

const (
	QualityStub      Quality = "stub"
	QualityMedium    Quality = "medium"
	QualityCorrect   Quality = "correct"
	QualityGood      Quality = "good"
	QualityExcellent Quality = "excellent"
)

// Document is the current, mutable state of a collaboratively edited
// document together with its per-language locales.
//
// Revision is the per-document edit counter shared by all ledger rows of one
// edit. VersionToken is the opaque optimistic-locking token: it is rotated
// whenever the document row's persisted content changes and is only ever
// round-tripped by callers, never synthesized.
type Document struct {
	DocumentID   int64            `json:"document_id"`
	Kind         Kind             `json:"kind"`
	Protected    bool             `json:"protected"`
	RedirectsTo  *int64           `json:"redirects_to,omitempty"`
	Quality      Quality          `json:"quality"`
	Revision     int              `json:"revision"`
	VersionToken string           `json:"version_token"`
	Waypoint     *WaypointFields  `json:"waypoint,omitempty"` // set iff Kind == KindWaypoint
	Locales      []*DocumentLocale `json:"locales"`
}

// WaypointFields are the attributes specific to KindWaypoint
type WaypointFields struct {
	WaypointType string `json:"waypoint_type"`
	Elevation    *int   `json:"elevation,omitempty"`
}

// DocumentLocale is one language-specific content record of a document.
// Lang is a 2-letter code, unique within the owning document. Version is the
// locale's own edit counter; VersionToken its own optimistic-locking token.
type DocumentLocale struct {
	ID           int64   `json:"-"`
	DocumentID   int64   `json:"document_id"`
	Lang         string  `json:"lang"`
	Title        string  `json:"title"`
	Description  *string `json:"description,omitempty"`
	Access       *string `json:"access,omitempty"` // pedestrian access note (waypoints)
	Version      int     `json:"version"`
	VersionToken string  `json:"version_token"`
}

// GetLocale returns the locale with the given language code, or nil.
// Locales are always looked up by code, never by position.
func (d *Document) GetLocale(lang string) *DocumentLocale {
	for _, l := range d.Locales {
		if l.Lang == lang {
			return l
		}
	}
	return nil
}

// Clone returns a deep copy of the document. The copy shares no mutable
// state with the original, so it can serve as an immutable "before" snapshot
// while the original is merged and persisted.
func (d *Document) Clone() *Document {
	c := *d
	c.RedirectsTo = cloneInt64Ptr(d.RedirectsTo)
	if d.Waypoint != nil {
		w := *d.Waypoint
		w.Elevation = cloneIntPtr(d.Waypoint.Elevation)
		c.Waypoint = &w
	}
	c.Locales = make([]*DocumentLocale, len(d.Locales))
	for i, l := range d.Locales {
		lc := *l
		lc.Description = cloneStringPtr(l.Description)
		lc.Access = cloneStringPtr(l.Access)
		c.Locales[i] = &lc
	}
	return &c
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64Ptr(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
