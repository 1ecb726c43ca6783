package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pixeldrift/imagehandler/internal/apperr"
	"github.com/pixeldrift/imagehandler/internal/edits"
)

// processRequest is the wire form of an edit request. The image travels
// base64-encoded inside the JSON body.
type processRequest struct {
	OriginalImage string         `json:"originalImage"`
	Edits         edits.EditList `json:"edits"`
	OutputFormat  string         `json:"outputFormat,omitempty"`
}

type processResponse struct {
	Image string `json:"image"`
}

type errorResponse struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestBytes)

	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, apperr.Newf(400, "InvalidRequest", "decoding request body: %v", err))
		return
	}
	if req.OriginalImage == "" {
		s.writeError(w, r, apperr.New(400, "InvalidRequest", "originalImage is required"))
		return
	}
	original, err := base64.StdEncoding.DecodeString(req.OriginalImage)
	if err != nil {
		s.writeError(w, r, apperr.Newf(400, "InvalidRequest", "originalImage is not valid base64: %v", err))
		return
	}

	result, err := s.processor.Process(r.Context(), &edits.ImageRequest{
		OriginalImage: original,
		Edits:         req.Edits,
		OutputFormat:  req.OutputFormat,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, processResponse{Image: result})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := http.StatusInternalServerError, "InternalError", err.Error()
	var ae *apperr.Error
	if errors.As(err, &ae) {
		status, code, message = ae.Status, ae.Code, ae.Message
	}

	s.log.Error().
		Str("request_id", requestIDFrom(r.Context())).
		Str("code", code).
		Int("status", status).
		Err(err).
		Msg("request failed")

	s.writeJSON(w, status, errorResponse{Status: status, Code: code, Message: message})
}
