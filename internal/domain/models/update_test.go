package models

import (
	"reflect"
	"testing"
)

func TestApplyUpdate(t *testing.T) {
	doc := testWaypoint()
	incoming := &Document{
		Quality: QualityStub,
		Waypoint: &WaypointFields{
			WaypointType: "summit",
			Elevation:    intPtr(1234),
		},
		Locales: []*DocumentLocale{
			{Lang: "en", Title: "C", Description: strPtr("abc"), Access: strPtr("y")},
			{Lang: "es", Title: "D", Description: strPtr("efg")},
		},
	}

	doc.ApplyUpdate(incoming)

	if *doc.Waypoint.Elevation != 1234 {
		t.Errorf("elevation = %d, want 1234", *doc.Waypoint.Elevation)
	}
	if len(doc.Locales) != 3 {
		t.Fatalf("got %d locales, want 3", len(doc.Locales))
	}

	if got := doc.GetLocale("en"); got.Title != "C" || got.ID != 2 || got.VersionToken != "tok-en" {
		t.Errorf("en locale = %+v, want updated title with preserved identity and token", got)
	}
	if got := doc.GetLocale("fr"); got.Title != "B" {
		t.Errorf("fr locale title = %q, want untouched B", got.Title)
	}
	if got := doc.GetLocale("es"); got == nil || got.Title != "D" || got.ID != 0 {
		t.Errorf("es locale = %+v, want appended without identity", got)
	}
}

func TestApplyUpdateDoesNotTouchProtectedFields(t *testing.T) {
	doc := testWaypoint()
	doc.Protected = true
	redirect := int64(42)
	doc.RedirectsTo = &redirect

	incoming := &Document{
		DocumentID: 999,
		Kind:       KindDocument,
		Quality:    QualityGood,
		Waypoint:   &WaypointFields{WaypointType: "summit"},
	}
	doc.ApplyUpdate(incoming)

	if doc.DocumentID != 1 || doc.Kind != KindWaypoint {
		t.Error("identity or kind was overwritten by merge")
	}
	if !doc.Protected || doc.RedirectsTo == nil || *doc.RedirectsTo != 42 {
		t.Error("protected fields were overwritten by merge")
	}
	if doc.VersionToken != "tok-doc" {
		t.Error("version token was overwritten by merge")
	}
}

func TestApplyUpdateIdempotent(t *testing.T) {
	incoming := &Document{
		Quality:  QualityStub,
		Waypoint: &WaypointFields{WaypointType: "summit", Elevation: intPtr(1234)},
		Locales: []*DocumentLocale{
			{Lang: "en", Title: "C", Description: strPtr("abc")},
		},
	}

	doc := testWaypoint()
	doc.ApplyUpdate(incoming)
	once := doc.Clone()
	doc.ApplyUpdate(incoming)

	if !reflect.DeepEqual(once, doc.Clone()) {
		t.Error("applying the same update twice produced a different state")
	}
}

func TestClassifyUpdate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(d *Document)
		wantType  UpdateType
		wantLangs []string
	}{
		{
			name:      "identical states",
			mutate:    func(d *Document) {},
			wantType:  UpdateNone,
			wantLangs: nil,
		},
		{
			name: "figures only",
			mutate: func(d *Document) {
				d.Waypoint.Elevation = intPtr(1234)
			},
			wantType:  UpdateFiguresOnly,
			wantLangs: nil,
		},
		{
			name: "quality only",
			mutate: func(d *Document) {
				d.Quality = QualityGood
			},
			wantType:  UpdateFiguresOnly,
			wantLangs: nil,
		},
		{
			name: "lang only",
			mutate: func(d *Document) {
				d.GetLocale("en").Description = strPtr("abcd")
			},
			wantType:  UpdateLangOnly,
			wantLangs: []string{"en"},
		},
		{
			name: "lang only new lang",
			mutate: func(d *Document) {
				d.Locales = append(d.Locales, &DocumentLocale{Lang: "es", Title: "A", Description: strPtr("abc")})
			},
			wantType:  UpdateLangOnly,
			wantLangs: []string{"es"},
		},
		{
			name: "all",
			mutate: func(d *Document) {
				d.Waypoint.Elevation = intPtr(1234)
				d.GetLocale("en").Description = strPtr("abcd")
				d.Locales = append(d.Locales, &DocumentLocale{Lang: "es", Title: "A", Description: strPtr("abc")})
			},
			wantType:  UpdateAll,
			wantLangs: []string{"en", "es"},
		},
		{
			name: "changed langs are sorted",
			mutate: func(d *Document) {
				d.Locales = append(d.Locales, &DocumentLocale{Lang: "it", Title: "X"})
				d.GetLocale("fr").Title = "B2"
				d.GetLocale("en").Title = "A2"
			},
			wantType:  UpdateLangOnly,
			wantLangs: []string{"en", "fr", "it"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testWaypoint()
			after := before.Clone()
			tt.mutate(after)

			gotType, gotLangs := ClassifyUpdate(before, after)
			if gotType != tt.wantType {
				t.Errorf("type = %v, want %v", gotType, tt.wantType)
			}
			if !reflect.DeepEqual(gotLangs, tt.wantLangs) {
				t.Errorf("changed langs = %v, want %v", gotLangs, tt.wantLangs)
			}
		})
	}
}

func TestClassifyUpdateIgnoresRemovedLocales(t *testing.T) {
	before := testWaypoint()
	after := before.Clone()
	after.Locales = after.Locales[:1]

	gotType, gotLangs := ClassifyUpdate(before, after)
	if gotType != UpdateNone || gotLangs != nil {
		t.Errorf("got (%v, %v), want (none, [])", gotType, gotLangs)
	}
}
