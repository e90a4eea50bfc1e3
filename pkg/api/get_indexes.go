package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-ape/pkg/domain"
	"github.com/adfharrison1/go-ape/pkg/storage"
)

// HandleGetIndexes handles GET requests to retrieve all indexes for a collection
func (h *Handler) HandleGetIndexes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	log.Printf("INFO: handleGetIndexes called for collection '%s'", collName)

	var indexes []domain.IndexInfo
	err := h.workspace.Do(func(s *storage.Session) error {
		e, err := s.Engine(collName)
		if err != nil {
			return err
		}
		indexes = e.Indexes()
		return nil
	})
	if err != nil {
		log.Printf("ERROR: Failed to get indexes for collection '%s': %v", collName, err)
		WriteJSONError(w, statusFor(err), err.Error())
		return
	}

	// Prepare response
	response := map[string]interface{}{
		"success":     true,
		"collection":  collName,
		"indexes":     indexes,
		"index_count": len(indexes),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)

	log.Printf("INFO: Retrieved %d indexes for collection '%s'", len(indexes), collName)
}
