package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-ape/pkg/domain"
	"github.com/adfharrison1/go-ape/pkg/storage"
)

// parseOrderedQuery turns a raw query string into a query whose field order
// follows the order of the parameters
func parseOrderedQuery(rawQuery string) (domain.Query, error) {
	var q domain.Query
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, fmt.Errorf("invalid query key %q: %w", k, err)
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, fmt.Errorf("invalid query value %q: %w", v, err)
		}
		q = q.And(key, value)
	}
	return q, nil
}

// HandleFindByIndex looks a record up through the index whose fields match
// the query parameters, in order
func (h *Handler) HandleFindByIndex(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	query, err := parseOrderedQuery(r.URL.RawQuery)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(query) == 0 {
		WriteJSONError(w, http.StatusBadRequest, "at least one query parameter is required")
		return
	}

	var (
		record domain.Record
		found  bool
	)
	err = h.workspace.Do(func(s *storage.Session) error {
		e, err := s.Engine(collName)
		if err != nil {
			return err
		}
		record, found, err = e.FindByIndex(query)
		return err
	})
	if err != nil {
		log.Printf("ERROR: Find failed for collection '%s': %v", collName, err)
		WriteJSONError(w, statusFor(err), err.Error())
		return
	}
	if !found {
		WriteJSONError(w, http.StatusNotFound, "no match")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}
