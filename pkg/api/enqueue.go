package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-ape/pkg/pipeline"
	"github.com/adfharrison1/go-ape/pkg/storage"
)

// HandleEnqueue applies one pipeline step to the collection. The step's
// collection field is taken from the path.
func (h *Handler) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	var step pipeline.Step
	if err := json.NewDecoder(r.Body).Decode(&step); err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	step.Collection = collName

	var queued int
	err := h.workspace.Do(func(s *storage.Session) error {
		if err := step.Apply(s); err != nil {
			return err
		}
		e, err := s.Engine(collName)
		if err != nil {
			return err
		}
		queued = len(e.Operations())
		return nil
	})
	if err != nil {
		log.Printf("ERROR: Enqueue failed for collection '%s': %v", collName, err)
		WriteJSONError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":    true,
		"collection": collName,
		"operations": queued,
	})
}
