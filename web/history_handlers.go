package web

import (
	"net/http"

	"github.com/gorilla/mux"

	"wtr-service/pkg/common"
	"wtr-service/pkg/models"
)

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	records, err := s.history.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []models.RemoteMatch{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"matches": records,
		"count":   len(records),
	})
}

// handleDeleteMatch returns 204 on success. Non-owners, unknown records and
// store failures all surface as 404 so callers learn nothing about other
// owners' records.
func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.identity.OwnerID(); !ok {
		writeError(w, common.ErrUnauthorized)
		return
	}
	recordID := mux.Vars(r)["id"]
	if !s.history.Delete(r.Context(), recordID) {
		writeError(w, common.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	pending := s.queue.List(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pending": pending,
		"count":   len(pending),
	})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	result := s.sync.SyncPending(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result":    result,
		"remaining": s.queue.Len(r.Context()),
	})
}

func (s *Server) handleListLegacy(w http.ResponseWriter, r *http.Request) {
	legacy := s.sync.ListLegacy(r.Context())
	if legacy == nil {
		legacy = []models.LegacyMatch{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"matches": legacy,
		"count":   len(legacy),
	})
}

func (s *Server) handleMigrateLegacy(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]
	outcome, err := s.sync.MigrateLegacyItem(r.Context(), identifier)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"identifier": identifier,
		"outcome":    outcome,
	})
}
