package server

import (
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/scout/internal/model"
)

// handleGetTemplate handles GET /template?uuid=&version=.
//
// Without uuid the default template is returned. With uuid alone the
// highest version of that identity is returned; version selects an exact
// one.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	identity := q.Get("uuid")
	rawVersion := q.Get("version")

	if identity == "" {
		t, ok := s.registry.ResolveDefault()
		if !ok {
			writeError(w, http.StatusNotFound, "default template not set")
			return
		}
		writeJSON(w, http.StatusOK, t)
		return
	}

	var (
		t  *model.Template
		ok bool
	)
	if rawVersion != "" {
		version, err := strconv.Atoi(rawVersion)
		if err != nil {
			s.writeFailure(w, r, model.Invalid("version", "must be an integer"))
			return
		}
		t, ok = s.registry.ResolveVersion(identity, version)
	} else {
		t, ok = s.registry.Resolve(identity)
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no matching template found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleListTemplates handles GET /templates.
func (s *Server) handleListTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Summaries())
}
