package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/dsa-buddy/internal/db"
	"github.com/jonathan/dsa-buddy/internal/ingestion"
	"github.com/jonathan/dsa-buddy/internal/types"
)

// maxUploadBytes caps bulk upload payloads at 10 MB.
const maxUploadBytes = 10 << 20

// UploadResponse represents the result of a bulk upload
type UploadResponse struct {
	Problems []types.Problem `json:"problems"`
	Count    int             `json:"count"`
}

// ListProblemsResponse represents the response for listing problems
type ListProblemsResponse struct {
	Problems []types.Problem `json:"problems"`
	Count    int             `json:"count"`
}

// ProblemDetailResponse represents a problem together with its cached
// mentor steps
type ProblemDetailResponse struct {
	Problem types.Problem              `json:"problem"`
	Steps   map[string]json.RawMessage `json:"steps"`
}

// StatusResponse represents a problem's status
type StatusResponse struct {
	ID     uuid.UUID    `json:"id"`
	Status types.Status `json:"status"`
}

// handleUpload ingests a batch of problem lines. It accepts either a
// JSON body with a text field or a multipart form with a file part
// (plain text or HTML).
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	text, err := s.uploadText(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	created, err := ingestion.Ingest(r.Context(), s.store, text)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, UploadResponse{
		Problems: created,
		Count:    len(created),
	})
}

// uploadText extracts the raw problem text from either upload form.
func (s *Server) uploadText(r *http.Request) (string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return "", &ingestion.EmptyInputError{}
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", &ingestion.EmptyInputError{}
		}
		defer file.Close()

		body, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			return "", fmt.Errorf("reading upload: %w", err)
		}
		fileType := header.Header.Get("Content-Type")
		if fileType == "" || fileType == "application/octet-stream" {
			fileType = http.DetectContentType(body)
		}
		return ingestion.ExtractText(fileType, body)
	}

	var req types.UploadRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		return "", &ingestion.EmptyInputError{}
	}
	if err := req.Validate(); err != nil {
		return "", &ingestion.EmptyInputError{}
	}
	return req.Text, nil
}

// handleListProblems lists problems with optional filters
func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := db.ProblemFilters{
		Search:     query.Get("search"),
		Category:   query.Get("category"),
		Difficulty: query.Get("difficulty"),
		Status:     query.Get("status"),
	}

	problems, err := s.store.ListProblems(r.Context(), filters)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, ListProblemsResponse{
		Problems: problems,
		Count:    len(problems),
	})
}

// handleStats returns aggregate problem counts
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

// handleGetProblem retrieves a problem and its cached mentor steps
func (s *Server) handleGetProblem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid problem ID")
		return
	}

	problem, err := s.store.GetProblem(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if problem == nil {
		s.errorResponse(w, http.StatusNotFound, "Problem not found")
		return
	}

	cached, err := s.store.ListCachedSteps(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	steps := make(map[string]json.RawMessage, len(cached))
	for step, raw := range cached {
		steps[fmt.Sprintf("step%d", step)] = raw
	}

	s.jsonResponse(w, http.StatusOK, ProblemDetailResponse{
		Problem: *problem,
		Steps:   steps,
	})
}

// handleGetStatus returns the status of a single problem
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid problem ID")
		return
	}

	problem, err := s.store.GetProblem(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if problem == nil {
		s.errorResponse(w, http.StatusNotFound, "Problem not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, StatusResponse{ID: problem.ID, Status: problem.Status})
}

// handleUpdateStatus sets the status of a single problem
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid problem ID")
		return
	}

	var req types.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid status: must be one of "+strings.Join(statusNames(), ", "))
		return
	}

	affected, err := s.store.UpdateProblemStatus(r.Context(), id, types.Status(req.Status))
	if err != nil {
		s.handleError(w, err)
		return
	}
	if affected == 0 {
		s.errorResponse(w, http.StatusNotFound, "Problem not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, StatusResponse{ID: id, Status: types.Status(req.Status)})
}

func statusNames() []string {
	names := make([]string, len(types.ValidStatuses))
	for i, status := range types.ValidStatuses {
		names[i] = string(status)
	}
	return names
}
