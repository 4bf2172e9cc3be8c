package httputil

import (
	"context"
	"net/http"
)

type contextKey int

const editorIDKey contextKey = iota

// WithEditorID returns a shallow copy of the request whose context carries
// the authenticated editor's id. Set by the auth middleware on writes.
func WithEditorID(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), editorIDKey, id))
}

// EditorID returns the authenticated editor's id, or "" for anonymous
// requests. Edit metadata records it as the edit's author.
func EditorID(r *http.Request) string {
	id, _ := r.Context().Value(editorIDKey).(string)
	return id
}
