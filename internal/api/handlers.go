package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/synopackage/pkg/aggregator"
	"github.com/matzehuels/synopackage/pkg/cache"
	"github.com/matzehuels/synopackage/pkg/errors"
	"github.com/matzehuels/synopackage/pkg/icons"
)

type handlers struct {
	opts   Options
	logger *log.Logger
}

// StatsResponse is the body of /api/stats.
type StatsResponse struct {
	Counters map[string]int64  `json:"counters"`
	Breakers map[string]string `json:"breakers"`
}

// ErrorResponse is the body of non-envelope errors.
type ErrorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code"`
}

func (h *handlers) packages(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, invalidEnvelope(req, err))
		return
	}

	env, err := h.opts.Service.Resolve(r.Context(), req)
	if errors.Is(err, errors.ErrCodeInvalidInput) {
		writeJSON(w, http.StatusBadRequest, env)
		return
	}
	if err != nil {
		h.logger.Error("resolve failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Keyword) == "" {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "keyword is required"))
		return
	}

	envs, err := h.opts.Service.SearchAll(r.Context(), req)
	switch {
	case errors.Is(err, errors.ErrCodeInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		h.logger.Error("search failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, envs)
	}
}

func (h *handlers) sources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.opts.Registry.Sources())
}

func (h *handlers) models(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.opts.Registry.Models())
}

func (h *handlers) versions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.opts.Registry.Versions())
}

func (h *handlers) stats(w http.ResponseWriter, _ *http.Request) {
	resp := StatsResponse{Counters: map[string]int64{}, Breakers: map[string]string{}}
	if h.opts.Counters != nil {
		resp.Counters = h.opts.Counters()
	}
	if h.opts.Breakers != nil {
		if states := h.opts.Breakers(); states != nil {
			resp.Breakers = states
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) icon(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if name == "" || cache.CleanFileName(name) != name || name == "." || name == ".." {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "invalid file name"))
		return
	}

	data, ok, err := h.opts.Icons.Get(r.Context(), name)
	if err != nil {
		h.logger.Warn("icon read failed", "file", name, "err", err)
		writeError(w, http.StatusInternalServerError, errors.Wrap(errors.ErrCodeCache, err, "icon unavailable"))
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, errors.New(errors.ErrCodeNotFound, "icon not found"))
		return
	}

	w.Header().Set("Content-Type", contentType(icons.Sniff(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func contentType(f icons.Format) string {
	switch f {
	case icons.GIF:
		return "image/gif"
	case icons.JPEG:
		return "image/jpeg"
	case icons.PNG:
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// requestFromQuery reads the query string. The only parse error is a
// malformed isBeta, reported as invalid input; the partially filled
// request is returned for echoing.
func requestFromQuery(r *http.Request) (aggregator.Request, error) {
	q := r.URL.Query()
	req := aggregator.Request{
		SourceName: q.Get("sourceName"),
		Model:      q.Get("model"),
		Version:    q.Get("version"),
		Keyword:    q.Get("keyword"),
	}
	req.IsSearch = req.Keyword != ""
	if raw := q.Get("isBeta"); raw != "" {
		beta, err := strconv.ParseBool(raw)
		if err != nil {
			return req, errors.New(errors.ErrCodeInvalidInput, "isBeta must be true or false")
		}
		req.IsBeta = beta
	}
	return req, nil
}

func invalidEnvelope(req aggregator.Request, err error) *aggregator.Envelope {
	msg := errors.UserMessage(err)
	return &aggregator.Envelope{
		ErrorMessage: &msg,
		Parameters: aggregator.Parameters{
			SourceName: req.SourceName,
			Model:      req.Model,
			Version:    req.Version,
			IsBeta:     req.IsBeta,
			Keyword:    req.Keyword,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err's message and code. Errors without a code are
// reported as ErrCodeInternal.
func writeError(w http.ResponseWriter, status int, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, ErrorResponse{Error: errors.UserMessage(err), Code: code})
}
