package bill

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/billsplit/internal/scanning"
)

// corsError writes a plain text error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, code int, body map[string]string) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleCreateSession starts a session from a comma-separated names list
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Participants string `json:"participants"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := s.service.CreateSession(req.Participants)
	if err != nil {
		slog.Error("Error creating session", "error", err)
		jsonError(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(session); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListSessions returns all sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions()
	if err != nil {
		slog.Error("Error listing sessions", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sessions); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetSession returns a single session
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Session ID required", http.StatusBadRequest)
		return
	}
	session, err := s.service.GetSession(id)
	if err != nil {
		corsError(w, "Session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(session); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleDeleteSession deletes a session
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Session ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteSession(id); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			corsError(w, "Session not found", http.StatusNotFound)
			return
		}
		corsError(w, "Error deleting session", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleAnalyzeBill handles bill image upload and extraction
func (s *Server) handleAnalyzeBill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Session ID required", http.StatusBadRequest)
		return
	}

	// Parse multipart form (max 50MB to handle high-resolution phone photos)
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		jsonError(w, http.StatusBadRequest, map[string]string{"error": errorMsg})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		jsonError(w, http.StatusBadRequest, map[string]string{"error": errorMsg})
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		jsonError(w, http.StatusBadRequest, map[string]string{
			"error": "File is too large. Maximum size is 50MB. Please compress or resize your image.",
		})
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, http.StatusInternalServerError, map[string]string{
			"error": "Error reading file. Please try again.",
		})
		return
	}

	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	// Multipart writers that don't know the file type send
	// application/octet-stream, so fall back to the extension for
	// that too, not just for a missing header.
	if contentType == "" || contentType == "application/octet-stream" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		switch ext {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}

	session, err := s.service.AnalyzeBill(r.Context(), id, header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error analyzing bill", "session_id", id, "filename", header.Filename, "error", err)

		if errors.Is(err, ErrSessionNotFound) {
			corsError(w, "Session not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, scanning.ErrScanTimeout) {
			jsonError(w, http.StatusGatewayTimeout, map[string]string{
				"error": "The bill scan timed out. Please try again.",
			})
			return
		}
		var extractionErr *scanning.ExtractionError
		if errors.As(err, &extractionErr) {
			// Surface the raw model reply so the user can inspect it
			jsonError(w, http.StatusUnprocessableEntity, map[string]string{
				"error":     err.Error(),
				"raw_reply": extractionErr.RawReply,
			})
			return
		}
		jsonError(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(session); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleUpdateBill applies user corrections to the extracted bill
func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Session ID required", http.StatusBadRequest)
		return
	}

	var edits BillEdits
	if err := json.NewDecoder(r.Body).Decode(&edits); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := s.service.UpdateBill(id, edits)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			corsError(w, "Session not found", http.StatusNotFound)
			return
		}
		jsonError(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(session); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleAssignItem adds a participant to an item's sharer set
func (s *Server) handleAssignItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	itemID := r.PathValue("itemID")
	if id == "" || itemID == "" {
		corsError(w, "Session ID and item ID required", http.StatusBadRequest)
		return
	}

	var req struct {
		Participant string `json:"participant"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := s.service.AssignItem(id, itemID, req.Participant)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			corsError(w, "Session not found", http.StatusNotFound)
			return
		}
		jsonError(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(session); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleUnassignItem removes a participant from an item's sharer set
func (s *Server) handleUnassignItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	itemID := r.PathValue("itemID")
	participant := r.PathValue("participant")
	if id == "" || itemID == "" || participant == "" {
		corsError(w, "Session ID, item ID and participant required", http.StatusBadRequest)
		return
	}

	session, err := s.service.UnassignItem(id, itemID, participant)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			corsError(w, "Session not found", http.StatusNotFound)
			return
		}
		jsonError(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(session); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleComputeSplit returns the per-person split for the session
func (s *Server) handleComputeSplit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Session ID required", http.StatusBadRequest)
		return
	}

	split, err := s.service.ComputeSplit(id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			corsError(w, "Session not found", http.StatusNotFound)
			return
		}
		jsonError(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(split); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetBillImage returns the uploaded bill image for a session
func (s *Server) handleGetBillImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Session ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetBillImage(id)
	if err != nil {
		corsError(w, "Image not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}
