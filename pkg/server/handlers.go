package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/malbeclabs/scichart/pkg/aggregator"
	"github.com/malbeclabs/scichart/pkg/pipeline"
	"github.com/malbeclabs/scichart/pkg/plan"
	"github.com/malbeclabs/scichart/pkg/render"
)

const (
	readyzTimeout = 2 * time.Second

	// Direct chart endpoints show more fields than a chat turn by default.
	defaultChartTopK = 30
)

type ChatRequest struct {
	Message  string          `json:"message"`
	PrevPlan json.RawMessage `json:"prev_plan"`
}

type ChatResponse struct {
	TurnID string `json:"turn_id"`
	*pipeline.Result
}

// ChartRequest is the explicit plan accepted by the direct chart endpoints.
type ChartRequest struct {
	YearFrom      *int     `json:"year_from"`
	YearTo        *int     `json:"year_to"`
	Doctype       *string  `json:"doctype"`
	FieldLevel    *int     `json:"field_level"`
	FieldScoreMin *float64 `json:"field_score_min"`
	TopK          *int     `json:"top_k"`
}

type ChartResponse struct {
	Chart           string           `json:"chart"`
	Data            []aggregator.Row `json:"data"`
	ChartDescriptor *render.Spec     `json:"chart_descriptor"`
}

type ErrorResponse struct {
	TurnID    string `json:"turn_id,omitempty"`
	ErrorType string `json:"error_type"`
	Error     string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
	defer cancel()
	if err := s.cfg.Backend.Ping(ctx); err != nil {
		s.log.Warn("server: readiness check failed", "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	turnID := uuid.NewString()

	var req ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, turnID, pipeline.ErrorTypeInvalidRequest, err)
		return
	}
	var prev plan.Raw
	if len(req.PrevPlan) > 0 && !bytes.Equal(bytes.TrimSpace(req.PrevPlan), []byte("null")) {
		p, err := plan.ParseRaw(req.PrevPlan)
		if err != nil {
			s.writeError(w, turnID, pipeline.ErrorTypeInvalidRequest, fmt.Errorf("invalid prev_plan: %w", err))
			return
		}
		prev = p
	}

	s.log.Info("server: chat turn", "turnID", turnID, "messageLen", len(req.Message), "hasPrev", prev != nil)
	res, err := s.cfg.Pipeline.Run(r.Context(), req.Message, prev)
	if err != nil {
		s.writeError(w, turnID, pipeline.ErrorType(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, ChatResponse{TurnID: turnID, Result: res})
}

func (s *Server) handleChart(chartType plan.ChartType) http.HandlerFunc {
	name := "papers_by_year"
	if chartType == plan.ChartByLabel {
		name = "papers_by_field"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChartRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, "", pipeline.ErrorTypeInvalidRequest, err)
			return
		}
		res, err := s.cfg.Pipeline.RunPlan(r.Context(), req.plan(chartType))
		if err != nil {
			s.writeError(w, "", pipeline.ErrorType(err), err)
			return
		}
		s.writeJSON(w, http.StatusOK, ChartResponse{Chart: name, Data: res.Rows, ChartDescriptor: res.Chart})
	}
}

func (req ChartRequest) plan(chartType plan.ChartType) *plan.Plan {
	p := plan.Default()
	p.ChartType = chartType
	p.TopK = defaultChartTopK
	if req.YearFrom != nil {
		p.YearFrom = *req.YearFrom
	}
	if req.YearTo != nil {
		p.YearTo = *req.YearTo
	}
	if req.Doctype != nil {
		if doctype := strings.TrimSpace(*req.Doctype); doctype != "" {
			p.Doctype = &doctype
		}
	}
	if req.FieldLevel != nil {
		p.LabelLevel = *req.FieldLevel
	}
	if req.FieldScoreMin != nil {
		p.LabelScoreMin = *req.FieldScoreMin
	}
	if req.TopK != nil {
		p.TopK = *req.TopK
	}
	return p
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, turnID, errorType string, err error) {
	status := pipeline.HTTPStatus(errorType)
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	s.log.Warn("server: request failed", "turnID", turnID, "errorType", errorType, "status", status, "error", err)
	s.writeJSON(w, status, ErrorResponse{TurnID: turnID, ErrorType: errorType, Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("server: failed to write response", "error", err)
	}
}
