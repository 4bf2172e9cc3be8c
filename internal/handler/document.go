package handler

import (
	"log/slog"
	"net/http"

	"alpwiki/internal/domain/models"
	"alpwiki/internal/domain/services"
	"alpwiki/internal/httputil"
)

// DocumentHandler handles the HTTP requests of one document kind. The kind
// is fixed per instance, so a waypoint handler only ever creates waypoints.
type DocumentHandler struct {
	docService services.DocumentService
	kind       models.Kind
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler for one kind
func NewDocumentHandler(docService services.DocumentService, kind models.Kind, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		kind:       kind,
		logger:     logger,
	}
}

// editResponse is the result of an accepted edit: the persisted document and
// the ledger rows the edit produced
type editResponse struct {
	Document *models.Document          `json:"document"`
	Versions []*models.DocumentVersion `json:"versions"`
}

// List retrieves all documents of the handler's kind
// GET /api/waypoints
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docService.List(r.Context(), h.kind)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	httputil.RespondJSON(w, http.StatusOK, docs)
}

// Get retrieves one document, optionally restricted to one language via ?l=
// GET /api/waypoints/{id}
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.docService.Get(r.Context(), id, r.URL.Query().Get("l"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Create creates a new document with its initial locales
// POST /api/waypoints
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Kind = h.kind
	req.UserID = httputil.EditorID(r)

	doc, versions, err := h.docService.Create(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, editResponse{Document: doc, Versions: versions})
}

// Update applies an edit to an existing document. The request must carry the
// document version token and the token of every existing locale it touches.
// PUT /api/waypoints/{id}
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req services.UpdateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UserID = httputil.EditorID(r)

	doc, versions, err := h.docService.Update(r.Context(), id, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, editResponse{Document: doc, Versions: versions})
}

// History lists the revision ledger of a document, newest first
// GET /api/waypoints/{id}/history
func (h *DocumentHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	versions, err := h.docService.History(r.Context(), id, r.URL.Query().Get("l"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if versions == nil {
		versions = []*models.DocumentVersion{}
	}
	httputil.RespondJSON(w, http.StatusOK, versions)
}

// HealthCheck reports service liveness
// GET /health
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
