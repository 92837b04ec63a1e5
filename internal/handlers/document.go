package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"learnai-backend/internal/middleware"
	"learnai-backend/internal/models"
	"learnai-backend/internal/repository"
	"learnai-backend/internal/services"
)

const maxUploadBytes = 50 * 1024 * 1024

type documentRepository interface {
	Create(ctx context.Context, d *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByUser(ctx context.Context, userID uuid.UUID, search string, limit, offset int) ([]*models.Document, int, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	Save(ctx context.Context, documentID uuid.UUID, field, value string) error
}

type textExtractor interface {
	Extract(filename string, data []byte) (*services.ExtractedDocument, error)
}

type DocumentHandler struct {
	docs      documentRepository
	extractor textExtractor
}

func NewDocumentHandler(docs documentRepository, extractor textExtractor) *DocumentHandler {
	return &DocumentHandler{docs: docs, extractor: extractor}
}

// Create accepts either a multipart upload ("file") or a JSON body with
// text the client already extracted.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 50MB limit", r))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var doc *models.Document
	var ok bool
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		doc, ok = h.fromUpload(w, r)
	} else {
		doc, ok = h.fromJSON(w, r)
	}
	if !ok {
		return
	}

	doc.UserID = middleware.GetUserID(r.Context())
	if err := h.docs.Create(r.Context(), doc); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create document", r))
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) fromUpload(w http.ResponseWriter, r *http.Request) (*models.Document, bool) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Failed to read file", r))
		return nil, false
	}

	extracted, err := h.extractor.Extract(header.Filename, data)
	if errors.Is(err, services.ErrUnsupportedFileType) {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", "File type not supported", r))
		return nil, false
	}
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("EXTRACTION_FAILED", "Could not read text from file", r))
		return nil, false
	}
	if strings.TrimSpace(extracted.Text) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("EMPTY_DOCUMENT", "No text found in file", r))
		return nil, false
	}

	return &models.Document{
		Filename:  header.Filename,
		FileSize:  header.Size,
		Text:      extracted.Text,
		PageCount: extracted.PageCount,
	}, true
}

func (h *DocumentHandler) fromJSON(w http.ResponseWriter, r *http.Request) (*models.Document, bool) {
	var req models.CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return nil, false
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Filename) == "" {
		fields["filename"] = "required"
	}
	if strings.TrimSpace(req.Text) == "" {
		fields["text"] = "required"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return nil, false
	}

	size := req.FileSize
	if size <= 0 {
		size = int64(len(req.Text))
	}
	return &models.Document{
		Filename:  req.Filename,
		FileSize:  size,
		Text:      req.Text,
		PageCount: len(services.SplitPages(req.Text)),
	}, true
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	search := r.URL.Query().Get("search")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit <= 0 || limit > 50 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	docs, total, err := h.docs.ListByUser(r.Context(), userID, search, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch documents", r))
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, ok := loadDocument(w, r, h.docs)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Update stores user edits to the summary or notes.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	doc, ok := loadDocument(w, r, h.docs)
	if !ok {
		return
	}

	var req models.UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Summary != nil {
		if err := h.docs.Save(r.Context(), doc.ID, repository.FieldSummary, *req.Summary); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save summary", r))
			return
		}
		doc.Summary = req.Summary
	}
	if req.Notes != nil {
		if err := h.docs.Save(r.Context(), doc.ID, repository.FieldNotes, *req.Notes); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save notes", r))
			return
		}
		doc.Notes = req.Notes
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	// Ownership is part of the delete predicate; a foreign id looks missing.
	err = h.docs.Delete(r.Context(), id, middleware.GetUserID(r.Context()))
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Document not found", r))
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete document", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted"})
}
