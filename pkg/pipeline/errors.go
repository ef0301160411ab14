package pipeline

import (
	"errors"
	"net/http"

	"github.com/malbeclabs/scichart/pkg/aggregator"
	"github.com/malbeclabs/scichart/pkg/plan"
	"github.com/malbeclabs/scichart/pkg/planner"
)

const (
	ErrorTypeInterpretation   = "interpretation_error"
	ErrorTypeUnsupportedChart = "unsupported_chart_type"
	ErrorTypeBackend          = "backend_error"
	ErrorTypeInvalidRequest   = "invalid_request"
	ErrorTypeInternal         = "internal_error"
)

// ErrorType classifies a turn failure into the category reported to clients.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, planner.ErrInterpretation):
		return ErrorTypeInterpretation
	case errors.Is(err, aggregator.ErrUnsupportedChartType):
		return ErrorTypeUnsupportedChart
	case errors.Is(err, aggregator.ErrBackend):
		return ErrorTypeBackend
	case errors.Is(err, plan.ErrInvalidPlan):
		return ErrorTypeInvalidRequest
	}
	return ErrorTypeInternal
}

// HTTPStatus maps an error type to the status code the API responds with.
func HTTPStatus(errorType string) int {
	switch errorType {
	case ErrorTypeInterpretation, ErrorTypeBackend:
		return http.StatusBadGateway
	case ErrorTypeUnsupportedChart, ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
