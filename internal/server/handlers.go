package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/railsim/internal/archive"
	"github.com/matzehuels/railsim/pkg/buildinfo"
	"github.com/matzehuels/railsim/pkg/errors"
	"github.com/matzehuels/railsim/pkg/pipeline"
	"github.com/matzehuels/railsim/pkg/scenario"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code of an error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunResponse is returned for a submitted run.
type RunResponse struct {
	archive.Summary
	Cached bool `json:"cached"`
}

// ListResponse is returned by GET /runs.
type ListResponse struct {
	Runs  []archive.Summary `json:"runs"`
	Total int               `json:"total"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := archive.Query{Scenario: r.URL.Query().Get("scenario")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		q.Limit = n
	}
	runs, err := s.cfg.Archive.List(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []archive.Summary{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Runs: runs, Total: len(runs)})
}

func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	opts, err := s.runOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "scenario exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read scenario"))
		return
	}
	sc, err := scenario.Parse(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Scenario = sc
	opts.Logger = s.cfg.Logger.With("request_id", middleware.GetReqID(r.Context()))

	res, err := s.cfg.Runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.cfg.Archive.Save(r.Context(), res); err != nil {
		s.writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Cached {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/runs/"+res.RunID)
	writeJSON(w, status, RunResponse{Summary: archive.Summarize(res), Cached: res.Cached})
}

func (s *Server) runOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{Mode: q.Get("mode"), Workers: s.cfg.Workers}
	if opts.Mode != "" {
		if err := pipeline.ValidateMode(opts.Mode); err != nil {
			return opts, err
		}
	}
	var err error
	if opts.Reduce, err = boolParam(q, "reduce"); err != nil {
		return opts, err
	}
	if opts.Refresh, err = boolParam(q, "refresh"); err != nil {
		return opts, err
	}
	return opts, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	v := q.Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", name, v)
	}
	return b, nil
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.cfg.Archive.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	res, err := s.cfg.Archive.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ref, err := url.PathUnescape(chi.URLParam(r, "node"))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "node"))
		return
	}
	if n, ok := findNode(res, ref); ok {
		writeJSON(w, http.StatusOK, n)
		return
	}
	s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "node %q not found in run %s", ref, res.RunID))
}

func findNode(res *pipeline.Result, ref string) (*pipeline.Node, bool) {
	if id, err := strconv.ParseUint(ref, 10, 32); err == nil && id < uint64(len(res.Nodes)) {
		return &res.Nodes[id], true
	}
	return res.Node(ref)
}

// statusOf maps an error code to an HTTP status.
func statusOf(err error) int {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidScenario, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeConfiguration:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeCanceled:
		return http.StatusServiceUnavailable
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	if status >= http.StatusInternalServerError {
		s.cfg.Logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: errors.UserMessage(err)}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
