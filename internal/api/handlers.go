package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"finchat/pkg/finchat"
)

// maxUploadSize bounds PDF uploads to 20MB.
const maxUploadSize = 20 << 20

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) getProfile(w http.ResponseWriter, r *http.Request) {
	// Only the display name is exposed directly; balance, email and holdings
	// stay behind their chat intents.
	writeJSON(w, http.StatusOK, map[string]string{"name": h.core.ProfileName()})
}

func (h *handler) createSession(w http.ResponseWriter, r *http.Request) {
	session := h.core.CreateSession()
	writeJSON(w, http.StatusCreated, session)
}

func (h *handler) listSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.core.ListSessions())
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.core.GetSession(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorResponse(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.core.DeleteSession(chi.URLParam(r, "id")) {
		writeErrorResponse(w, http.StatusNotFound, finchat.NewError(finchat.ErrCodeSessionNotFound, "session not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type postMessagePayload struct {
	Message string `json:"message"`
}

func (h *handler) postMessage(w http.ResponseWriter, r *http.Request) {
	var payload postMessagePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	exchange, err := h.core.HandleMessage(r.Context(), chi.URLParam(r, "id"), payload.Message)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, exchange)
}

func (h *handler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, finchat.WrapError(finchat.ErrCodeInvalidInput, "parse multipart form", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, finchat.WrapError(finchat.ErrCodeInvalidInput, "missing \"file\" form field", err))
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".pdf" {
		writeErrorResponse(w, http.StatusBadRequest, finchat.NewError(finchat.ErrCodeInvalidInput, fmt.Sprintf("unsupported file type %q, expected .pdf", ext)))
		return
	}

	// Buffer the upload so the extractor gets a ReaderAt of known size.
	data, err := io.ReadAll(file)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, finchat.WrapError(finchat.ErrCodeInvalidInput, "read upload", err))
		return
	}

	doc, err := h.core.AttachDocument(chi.URLParam(r, "id"), header.Filename, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func decodeJSON(r *http.Request, dst any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return finchat.NewError(finchat.ErrCodeInvalidInput, "request body is required")
		}
		return finchat.WrapError(finchat.ErrCodeInvalidInput, "invalid json body", err)
	}
	return nil
}
