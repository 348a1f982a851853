package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Athul-13/tablespot-api/internal/api/middleware"
	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/Athul-13/tablespot-api/internal/service"
)

type CommentHandler struct {
	errorResponder
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{
		errorResponder: errorResponder{logger: logger},
		commentService: commentService,
	}
}

type CreateCommentRequest struct {
	Body string `json:"body" validate:"min=1,max=2000"`
}

func (r *CreateCommentRequest) normalize() {
	r.Body = strings.TrimSpace(r.Body)
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := idParam(r, "restaurantId")
	if !ok {
		h.respondError(w, r, domain.ErrRestaurantNotFound)
		return
	}

	comments, err := h.commentService.ListByRestaurant(r.Context(), restaurantID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	restaurantID, ok := idParam(r, "restaurantId")
	if !ok {
		h.respondError(w, r, domain.ErrRestaurantNotFound)
		return
	}

	var req CreateCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	comment, err := h.commentService.Add(r.Context(), restaurantID, user.ID, req.Body)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	restaurantID, ok := idParam(r, "restaurantId")
	if !ok {
		h.respondError(w, r, domain.ErrRestaurantNotFound)
		return
	}
	commentID, ok := idParam(r, "commentId")
	if !ok {
		h.respondError(w, r, domain.ErrCommentNotFound)
		return
	}

	if err := h.commentService.Delete(r.Context(), restaurantID, commentID, user.ID); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
