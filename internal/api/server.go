// Package api exposes the transit evaluator over HTTP: one-shot delta
// evaluation, a stored-grid collection, and evaluation against stored
// grids.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/umbra-photometry/umbra/internal/backend"
	"github.com/umbra-photometry/umbra/internal/evalog"
	"github.com/umbra-photometry/umbra/internal/limbdark"
	"github.com/umbra-photometry/umbra/internal/version"
	"github.com/umbra-photometry/umbra/pkg/gridfile"
	"github.com/umbra-photometry/umbra/pkg/transit"
)

type Server struct {
	grids *GridStore
	evals *evalog.Log
	clock func() time.Time
}

// NewServer wires the handlers to a grid store and an optional
// evaluation log; evals may be nil.
func NewServer(grids *GridStore, evals *evalog.Log) *Server {
	if grids == nil {
		grids = NewGridStore()
	}
	return &Server{
		grids: grids,
		evals: evals,
		clock: time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/delta", s.handleDelta)

	e.POST("/v1/grids", s.handleCreateGrid)
	e.GET("/v1/grids", s.handleListGrids)
	e.GET("/v1/grids/:id", s.handleGetGrid)
	e.DELETE("/v1/grids/:id", s.handleDeleteGrid)
	e.POST("/v1/grids/:id/delta", s.handleGridDelta)

	e.GET("/healthz", handleHealth)
	e.GET("/v1/version", handleVersion)
}

func (s *Server) handleDelta(c *echo.Context) error {
	req, err := decodeJSON[DeltaRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	resp, err := s.evaluate(c.Request().Context(), req.Grid, req.Z, req.R, req.Strategy, req.Precision)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			return writeBadRequest(c, err.Error())
		}
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCreateGrid(c *echo.Context) error {
	req, err := decodeJSON[GridCreateRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if len(req.Values) > 0 && req.Synth != nil {
		return writeBadRequest(c, "values and synth are mutually exclusive")
	}

	values := req.Values
	profile := ""
	refRatio := 0.0
	if req.Synth != nil {
		kind, ok := gridfile.ParseProfile(req.Synth.Profile)
		if !ok {
			return writeBadRequest(c, fmt.Sprintf("unknown profile %q", req.Synth.Profile))
		}
		values, err = limbdark.Synthesize(kind, req.Synth.U1, req.Synth.U2, req.Synth.RefRatio, req.Synth.Points)
		if err != nil {
			return writeBadRequest(c, err.Error())
		}
		profile = kind.String()
		refRatio = req.Synth.RefRatio
		if refRatio == 0 {
			refRatio = limbdark.DefaultRefRatio
		}
	}
	if len(values) == 0 {
		return writeBadRequest(c, "grid needs values or a synth spec")
	}

	resource := s.grids.Create(req.Name, values, profile, refRatio, s.clock())
	return c.JSON(http.StatusOK, resource)
}

func (s *Server) handleListGrids(c *echo.Context) error {
	return c.JSON(http.StatusOK, GridList{
		Object: "list",
		Data:   s.grids.List(),
	})
}

func (s *Server) handleGetGrid(c *echo.Context) error {
	resource, values, ok := s.grids.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "grid not found")
	}
	resource.Values = values
	return c.JSON(http.StatusOK, resource)
}

func (s *Server) handleDeleteGrid(c *echo.Context) error {
	id := c.Param("id")
	if !s.grids.Delete(id) {
		return writeNotFound(c, "grid not found")
	}
	return c.JSON(http.StatusOK, DeleteGridResponse{
		ID:      id,
		Object:  "grid",
		Deleted: true,
	})
}

func (s *Server) handleGridDelta(c *echo.Context) error {
	_, values, ok := s.grids.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "grid not found")
	}
	req, err := decodeJSON[GridDeltaRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	resp, err := s.evaluate(c.Request().Context(), values, req.Z, req.R, req.Strategy, req.Precision)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			return writeBadRequest(c, err.Error())
		}
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

func handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func handleVersion(c *echo.Context) error {
	info := version.Resolve()
	return c.JSON(http.StatusOK, map[string]string{
		"version": info.Version,
		"commit":  info.Commit,
		"built":   info.BuildTime,
	})
}

// evaluate validates the batch, runs it under the requested strategy and
// precision, and records the run when an evaluation log is attached.
func (s *Server) evaluate(ctx context.Context, grid, z, r []float64, strategy, precision string) (DeltaResponse, error) {
	name, err := backend.Normalize(strategy)
	if err != nil {
		return DeltaResponse{}, newInvalidRequest(err.Error())
	}
	prec, err := backend.NormalizePrecision(precision)
	if err != nil {
		return DeltaResponse{}, newInvalidRequest(err.Error())
	}
	if err := transit.ValidateBatch(len(grid), len(z), len(r)); err != nil {
		return DeltaResponse{}, newInvalidRequest(err.Error())
	}

	resolved := backend.Resolve(name, len(z))
	started := s.clock()

	var delta []float64
	switch prec {
	case backend.Float32:
		delta, err = evaluateFloat32(resolved, grid, z, r)
	default:
		delta, err = evaluateFloat64(resolved, grid, z, r)
	}
	if err != nil {
		return DeltaResponse{}, err
	}
	elapsed := s.clock().Sub(started)

	if s.evals != nil {
		// Recording is best effort; an unavailable log must not fail
		// the evaluation itself.
		_ = s.evals.Record(ctx, evalog.Run{
			StartedAt: started,
			Strategy:  resolved,
			Precision: prec,
			BatchSize: len(z),
			GridSize:  len(grid),
			Elapsed:   elapsed,
			Checksum:  checksum(delta),
		})
	}

	return DeltaResponse{
		ID:        "eval_" + uuid.NewString(),
		Object:    "evaluation",
		N:         len(delta),
		Strategy:  resolved,
		Precision: prec,
		ElapsedUS: elapsed.Microseconds(),
		Delta:     delta,
	}, nil
}

func evaluateFloat64(strategy string, grid, z, r []float64) ([]float64, error) {
	ev, err := transit.New[float64](strategy, 0)
	if err != nil {
		return nil, newInvalidRequest(err.Error())
	}
	return transit.EvaluateSlice(ev, grid, z, r)
}

func evaluateFloat32(strategy string, grid, z, r []float64) ([]float64, error) {
	ev, err := transit.New[float32](strategy, 0)
	if err != nil {
		return nil, newInvalidRequest(err.Error())
	}
	delta32, err := transit.EvaluateSlice(ev, narrow(grid), narrow(z), narrow(r))
	if err != nil {
		return nil, err
	}
	delta := make([]float64, len(delta32))
	for i, v := range delta32 {
		delta[i] = float64(v)
	}
	return delta, nil
}

func narrow(xs []float64) []float32 {
	out := make([]float32, len(xs))
	for i, v := range xs {
		out[i] = float32(v)
	}
	return out
}

// checksum folds a delta vector into one comparable number for the
// evaluation log.
func checksum(delta []float64) float64 {
	var sum float64
	for _, v := range delta {
		sum += v
	}
	return sum
}
