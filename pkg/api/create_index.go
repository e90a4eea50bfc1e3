package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-ape/pkg/storage"
)

// splitFields splits a comma separated field list, keeping its order
func splitFields(fields string) []string {
	var keys []string
	for _, f := range strings.Split(fields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			keys = append(keys, f)
		}
	}
	return keys
}

// HandleCreateIndex processes a collection and indexes the result by the
// comma separated fields in the path
func (h *Handler) HandleCreateIndex(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	keys := splitFields(vars["fields"])

	if len(keys) == 0 {
		WriteJSONError(w, http.StatusBadRequest, "field names are required")
		return
	}

	err := h.workspace.Do(func(s *storage.Session) error {
		e, err := s.Engine(collName)
		if err != nil {
			return err
		}
		_, err = e.CreateIndex(keys...)
		return err
	})
	if err != nil {
		log.Printf("ERROR: Failed to create index %v on collection '%s': %v", keys, collName, err)
		WriteJSONError(w, statusFor(err), err.Error())
		return
	}

	log.Printf("INFO: Created index %v on collection '%s'", keys, collName)

	response := map[string]interface{}{
		"success":    true,
		"message":    "Index created successfully",
		"collection": collName,
		"fields":     keys,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// HandleDropIndex removes the index over the comma separated fields
func (h *Handler) HandleDropIndex(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	keys := splitFields(vars["fields"])

	err := h.workspace.Do(func(s *storage.Session) error {
		e, err := s.Engine(collName)
		if err != nil {
			return err
		}
		return e.DropIndex(keys...)
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusBadRequest {
			status = http.StatusNotFound
		}
		WriteJSONError(w, status, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
