package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-ape/pkg/domain"
)

// HandleListCollections lists the workspace's collections
func (h *Handler) HandleListCollections(w http.ResponseWriter, r *http.Request) {
	names := h.workspace.Names()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"collections": names,
		"count":       len(names),
	})
}

// HandlePutCollection replaces a collection with the JSON array in the body.
// The new collection starts with an empty queue and no indexes.
func (h *Handler) HandlePutCollection(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	log.Printf("INFO: handlePutCollection called for collection '%s'", collName)

	var records domain.Collection
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	for i := range records {
		if records[i] == nil {
			records[i] = domain.Record{}
		}
	}

	h.workspace.Put(collName, records)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":    true,
		"collection": collName,
		"records":    len(records),
	})
}

// HandleDeleteCollection removes a collection
func (h *Handler) HandleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	if err := h.workspace.Drop(collName); err != nil {
		WriteJSONError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parsePagination reads limit and offset query parameters
func parsePagination(r *http.Request) (*domain.PaginationOptions, error) {
	opts := domain.DefaultPaginationOptions()
	for name, target := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q", name, raw)
		}
		*target = n
	}
	return opts, opts.Validate()
}

// HandleProcess runs the collection's queue and returns the result, or the
// page of it selected by limit and offset. X-Total-Count carries the full size.
func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	opts, err := parsePagination(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.workspace.Process(collName)
	if err != nil {
		log.Printf("ERROR: Processing collection '%s' failed: %v", collName, err)
		WriteJSONError(w, statusFor(err), err.Error())
		return
	}

	log.Printf("INFO: Processed %d records in collection '%s'", len(records), collName)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Total-Count", strconv.Itoa(len(records)))
	json.NewEncoder(w).Encode(opts.Page(records))
}
