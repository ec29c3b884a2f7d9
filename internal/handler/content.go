package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/social-network/internal/auth"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/service"
)

// ContentHandler serves posts.
type ContentHandler struct {
	contents *service.ContentService
	logger   *slog.Logger
}

func NewContentHandler(contents *service.ContentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{contents: contents, logger: logger}
}

type createContentRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type CreateContentResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ContentID string `json:"contentId"`
}

type ContentListResponse struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Content []model.Content `json:"content"`
	Message string          `json:"message,omitempty"`
}

type ContentResponse struct {
	Success bool           `json:"success"`
	Content *model.Content `json:"content"`
}

// HandleCreate posts new content as the logged-in user.
//
// HTTP: POST /contents
// REQUEST BODY: {"title": "...", "body": "..."}
//
// The author is always taken from the session, never from the body.
func (h *ContentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor := requireLogin(w, r, h.logger, service.MsgLoginToPost)
	if actor == nil {
		return
	}

	var req createContentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	item, err := h.contents.Create(r.Context(), actor, req.Title, req.Body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateContentResponse{
		Success:   true,
		Message:   "Content created successfully",
		ContentID: item.ID,
	})
}

// HandleList returns all content newest first, or the items matching ?q=.
//
// HTTP: GET /contents?q=gopher
func (h *ContentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var items []model.Content
	if q, ok := searchParam(r); ok {
		items, err = h.contents.Search(r.Context(), q, opts)
	} else {
		items, err = h.contents.List(r.Context(), opts)
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ContentListResponse{Success: true, Count: len(items), Content: items})
}

// HandleGet returns one item.
//
// HTTP: GET /contents/{id}
func (h *ContentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	item, err := h.contents.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ContentResponse{Success: true, Content: item})
}

// HandleDelete removes the caller's own content.
//
// HTTP: DELETE /contents/{id}
func (h *ContentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFromContext(r.Context())
	if err := h.contents.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Content deleted successfully")
}
