package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/dsa-buddy/internal/ingestion"
	"github.com/jonathan/dsa-buddy/internal/mentor"
)

// HTTPStatus returns the appropriate HTTP status code for an error.
// Upstream AI failures surface as 502 so clients can distinguish them
// from our own faults.
func HTTPStatus(err error) int {
	var (
		emptyInput  *ingestion.EmptyInputError
		unsupported *ingestion.UnsupportedFileError
		invalidStep *mentor.InvalidStepError
		notFound    *mentor.ProblemNotFoundError
		invalidResp *mentor.InvalidResponseError
		unavailable *mentor.GenerationUnavailableError
	)
	switch {
	case errors.As(err, &emptyInput),
		errors.As(err, &unsupported),
		errors.As(err, &invalidStep):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalidResp),
		errors.As(err, &unavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
