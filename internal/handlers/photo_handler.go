package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/landscaipe/contractor-portal/internal/middleware"
	"github.com/landscaipe/contractor-portal/internal/services"
)

// PhotoHandler serves /api/me/photos endpoints.
type PhotoHandler struct {
	Photos *services.PhotoService
	Logger *slog.Logger
}

// --- GET /api/me/photos ---

func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	photos, err := h.Photos.List(r.Context(), contractor.ID)
	if err != nil {
		h.Logger.Error("list photos", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

// --- POST /api/me/photos ---

type addPhotoRequest struct {
	URL        string `json:"url"`
	ThumbURL   string `json:"thumb_url"`
	IsFeatured bool   `json:"is_featured"`
}

func (h *PhotoHandler) Add(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req addPhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(req.URL, "https://") {
		http.Error(w, `{"error":"url must be https"}`, http.StatusBadRequest)
		return
	}
	photo, err := h.Photos.Add(r.Context(), contractor.ID, req.URL, req.ThumbURL, req.IsFeatured)
	if err != nil {
		respondEngineError(w, h.Logger, "add photo", err)
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

// --- DELETE /api/me/photos/{id} ---

func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	photoID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid photo id"}`, http.StatusBadRequest)
		return
	}
	if _, err := h.Photos.Delete(r.Context(), contractor.ID, photoID); err != nil {
		respondEngineError(w, h.Logger, "delete photo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- POST /api/me/photos/{id}/feature ---

type featurePhotoRequest struct {
	IsFeatured bool `json:"is_featured"`
}

func (h *PhotoHandler) SetFeatured(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	photoID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid photo id"}`, http.StatusBadRequest)
		return
	}
	var req featurePhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	photo, err := h.Photos.SetFeatured(r.Context(), contractor.ID, photoID, req.IsFeatured)
	if err != nil {
		respondEngineError(w, h.Logger, "feature photo", err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

// --- POST /api/me/photos/{id}/move ---

type movePhotoRequest struct {
	Direction string `json:"direction"`
}

func (h *PhotoHandler) Move(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	photoID, ok := pathUUID(r, "id")
	if !ok {
		http.Error(w, `{"error":"invalid photo id"}`, http.StatusBadRequest)
		return
	}
	var req movePhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Direction != services.MoveUp && req.Direction != services.MoveDown {
		http.Error(w, `{"error":"direction must be up or down"}`, http.StatusBadRequest)
		return
	}
	if err := h.Photos.Move(r.Context(), contractor.ID, photoID, req.Direction); err != nil {
		respondEngineError(w, h.Logger, "move photo", err)
		return
	}
	photos, err := h.Photos.List(r.Context(), contractor.ID)
	if err != nil {
		h.Logger.Error("list photos after move", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}
