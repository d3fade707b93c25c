package server

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/alfredjeanlab/scout/internal/engine"
	"github.com/alfredjeanlab/scout/internal/events"
	"github.com/alfredjeanlab/scout/internal/model"
)

// handleListRecords handles GET /{kind}?since=.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	var (
		recs []*model.Record
		err  error
	)
	if v := r.URL.Query().Get("since"); v != "" {
		since, perr := engine.ParseSince(v)
		if perr != nil {
			s.writeFailure(w, r, perr)
			return
		}
		recs, err = s.engine.ListSince(r.Context(), kind, since)
	} else {
		recs, err = s.engine.List(r.Context(), kind)
	}
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleUpsertRecord handles POST /{kind}.
func (s *Server) handleUpsertRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	var cand model.Record
	if err := decodeBody(w, r, &cand); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	res, err := s.engine.Upsert(r.Context(), kind, &cand)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	switch res.Outcome {
	case engine.OutcomeCreated:
		s.publish(r.Context(), events.Created(res.Record))
	case engine.OutcomeApplied:
		s.publish(r.Context(), events.Updated(res.Record))
	case engine.OutcomeStale:
		s.logger.Debug("stale upsert discarded", "kind", kind, "uuid", cand.RecordID,
			"candidate_updated", cand.UpdatedAt.UnixMilli(), "stored_updated", res.Record.UpdatedAt.UnixMilli())
		s.publish(r.Context(), events.Stale(res.Record, cand.UpdatedAt.UnixMilli()))
	}

	w.Header().Set(UpsertHeader, string(res.Outcome))
	writeJSON(w, http.StatusOK, res.Record)
}

// deleteRequest accepts either spelling of the record id.
type deleteRequest struct {
	RecordID string `json:"recordId"`
	UUID     string `json:"uuid"`
}

func (d deleteRequest) id() string {
	if strings.TrimSpace(d.RecordID) != "" {
		return d.RecordID
	}
	return d.UUID
}

// handleDeleteRecord handles DELETE /{kind}.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	var in deleteRequest
	if err := decodeBody(w, r, &in); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	id := in.id()
	removed, err := s.engine.Delete(r.Context(), kind, id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if removed {
		s.publish(r.Context(), events.Deleted(kind, id))
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": removed})
}

// handleExportCSV handles GET /{kind}/csv.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	table, err := s.engine.Project(r.Context(), kind)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	// Render first so a write failure can still produce an error envelope.
	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+string(kind)+`.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
