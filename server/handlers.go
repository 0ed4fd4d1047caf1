package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
)

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Answer string `json:"answer"`
	Source string `json:"source"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := s.answerer.Answer(r.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyQuestion):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "question is required"})
		case errors.Is(err, ai.ErrEmbeddingUnavailable):
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: "embedding service unavailable"})
		default:
			s.logger.Error("chat request failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Answer: result.Answer,
		Source: result.Source.String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
