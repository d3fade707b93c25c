package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/alfredjeanlab/scout/internal/engine"
	"github.com/alfredjeanlab/scout/internal/model"
)

// maxBodyBytes caps request bodies; a record with pictures stored by
// reference stays well below this.
const maxBodyBytes = 4 << 20

// HTTPOptions configures the middleware around the routes.
type HTTPOptions struct {
	// AuthToken, when non-empty, is required as a Bearer token on every
	// request except GET /health.
	AuthToken string
	// CORSOrigins lists allowed origins; empty or "*" allows any.
	CORSOrigins []string
}

// NewHTTPHandler returns an http.Handler with all routes registered.
func (s *Server) NewHTTPHandler(opts HTTPOptions) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /template", s.handleGetTemplate)
	mux.HandleFunc("GET /templates", s.handleListTemplates)
	mux.HandleFunc("GET /{kind}", s.handleListRecords)
	mux.HandleFunc("POST /{kind}", s.handleUpsertRecord)
	mux.HandleFunc("DELETE /{kind}", s.handleDeleteRecord)
	mux.HandleFunc("GET /{kind}/csv", s.handleExportCSV)
	mux.HandleFunc("/", s.handleNotFound)

	var h http.Handler = mux
	h = AuthMiddleware(opts.AuthToken, h)
	h = CORS(opts.CORSOrigins, h)
	h = Recovery(s.logger, h)
	h = AccessLog(s.logger, h)
	return h
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Ping(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

// kindParam resolves the {kind} path segment. Unknown kinds answer 404 so
// that /{kind} behaves like a fixed set of routes.
func kindParam(w http.ResponseWriter, r *http.Request) (model.Kind, bool) {
	kind, err := model.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return kind, true
}

// writeFailure maps an engine or validation error to its status code.
// Store failures carry only a summary; the engine has already logged the
// driver detail.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *model.ValidationError
		se *engine.StoreError
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &se):
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "op", se.Op, "error", se.Err)
		writeError(w, http.StatusInternalServerError, se.Error())
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeBody reads a JSON request body holding exactly one value into dst.
// A *model.ValidationError raised while decoding is passed through; syntax
// errors become one.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return bodyError(err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return model.Invalid("body", "too large")
		}
		return model.Invalid("body", "unexpected data after JSON value")
	}
	return nil
}

func bodyError(err error) error {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return model.Invalid("body", "too large")
	}
	return model.Invalid("body", "invalid JSON body")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
