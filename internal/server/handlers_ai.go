package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/dsa-buddy/internal/mentor"
	"github.com/jonathan/dsa-buddy/internal/types"
)

// handleStep generates (or serves from cache) the mentor document for a
// single step of a problem.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	step, err := strconv.Atoi(r.PathValue("step"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid step number")
		return
	}

	var req types.StepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "problemId is required and must be a UUID")
		return
	}
	problemID, err := uuid.Parse(req.ProblemID)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid problem ID")
		return
	}

	doc, err := s.mentor.StepResponse(r.Context(), problemID, step, mentor.StepOptions{
		NameHint:        req.ProblemName,
		DescriptionHint: req.ProblemDescription,
		Regenerate:      req.Force,
	})
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, doc)
}

// handleAllSteps generates (or serves from cache) all seven steps for a
// problem. Individual step failures come back as error markers inside
// the payload rather than failing the whole request.
func (s *Server) handleAllSteps(w http.ResponseWriter, r *http.Request) {
	problemID, err := uuid.Parse(r.PathValue("problemId"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid problem ID")
		return
	}

	results, err := s.mentor.AllStepResponses(r.Context(), problemID)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, results)
}
