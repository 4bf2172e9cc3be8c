package models

import "sort"

// UpdateType classifies what an edit changed
type UpdateType string

const (
	// UpdateNone - nothing changed
	UpdateNone UpdateType = "none"
	// UpdateFiguresOnly - only document-level fields changed
	UpdateFiguresOnly UpdateType = "figures_only"
	// UpdateLangOnly - only locale content changed
	UpdateLangOnly UpdateType = "lang_only"
	// UpdateAll - both document-level fields and locale content changed
	UpdateAll UpdateType = "all"
)

// ApplyUpdate merges an incoming partial document onto the receiver.
//
// Every caller-writable common and type-specific field is overwritten with
// the incoming value. System-managed and protected fields (identity, kind,
// protected, redirects_to, revision, tokens) are left untouched.
//
// Incoming locales are matched by language code: a match has its writable
// fields overwritten in place (identity and token preserved pending
// persistence), an unmatched incoming locale is appended as a new child in
// submission order with no identity assigned. Locales present only on the
// receiver are never deleted.
func (d *Document) ApplyUpdate(in *Document) {
	d.Quality = in.Quality
	if d.Kind == KindWaypoint && in.Waypoint != nil {
		if d.Waypoint == nil {
			d.Waypoint = &WaypointFields{}
		}
		d.Waypoint.WaypointType = in.Waypoint.WaypointType
		d.Waypoint.Elevation = cloneIntPtr(in.Waypoint.Elevation)
	}

	for _, inLocale := range in.Locales {
		if existing := d.GetLocale(inLocale.Lang); existing != nil {
			existing.Title = inLocale.Title
			existing.Description = cloneStringPtr(inLocale.Description)
			existing.Access = cloneStringPtr(inLocale.Access)
			continue
		}
		d.Locales = append(d.Locales, &DocumentLocale{
			DocumentID:  d.DocumentID,
			Lang:        inLocale.Lang,
			Title:       inLocale.Title,
			Description: cloneStringPtr(inLocale.Description),
			Access:      cloneStringPtr(inLocale.Access),
		})
	}
}

// ClassifyUpdate compares a pre-merge snapshot with the post-merge state of
// the same document and categorizes the edit. It is a pure query with no
// side effects.
//
// changedLangs is the sorted list of distinct language codes whose locale
// content differs, a locale present only in after counting as changed.
// Locales present only in before are ignored (edits never delete locales).
func ClassifyUpdate(before, after *Document) (UpdateType, []string) {
	figuresChanged := figuresDiffer(before, after)

	var changedLangs []string
	for _, l := range after.Locales {
		prev := before.GetLocale(l.Lang)
		if prev == nil || localeDiffers(prev, l) {
			changedLangs = append(changedLangs, l.Lang)
		}
	}
	sort.Strings(changedLangs)

	switch {
	case !figuresChanged && len(changedLangs) == 0:
		return UpdateNone, nil
	case figuresChanged && len(changedLangs) == 0:
		return UpdateFiguresOnly, nil
	case !figuresChanged:
		return UpdateLangOnly, changedLangs
	default:
		return UpdateAll, changedLangs
	}
}

func figuresDiffer(a, b *Document) bool {
	if a.Protected != b.Protected ||
		a.Quality != b.Quality ||
		!equalInt64Ptr(a.RedirectsTo, b.RedirectsTo) {
		return true
	}
	if (a.Waypoint == nil) != (b.Waypoint == nil) {
		return true
	}
	if a.Waypoint != nil {
		if a.Waypoint.WaypointType != b.Waypoint.WaypointType ||
			!equalIntPtr(a.Waypoint.Elevation, b.Waypoint.Elevation) {
			return true
		}
	}
	return false
}

func localeDiffers(a, b *DocumentLocale) bool {
	return a.Title != b.Title ||
		!equalStringPtr(a.Description, b.Description) ||
		!equalStringPtr(a.Access, b.Access)
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalInt64Ptr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
