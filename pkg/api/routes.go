package api

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API routes with the given router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")

	// Collection operations
	router.HandleFunc("/collections", h.HandleListCollections).Methods("GET")
	router.HandleFunc("/collections/{coll}", h.HandlePutCollection).Methods("PUT")
	router.HandleFunc("/collections/{coll}", h.HandleDeleteCollection).Methods("DELETE")
	router.HandleFunc("/collections/{coll}/records", h.HandleProcess).Methods("GET")

	// Queue operations
	router.HandleFunc("/collections/{coll}/operations", h.HandleEnqueue).Methods("POST")

	// Index operations
	router.HandleFunc("/collections/{coll}/indexes", h.HandleGetIndexes).Methods("GET")
	router.HandleFunc("/collections/{coll}/indexes/{fields}", h.HandleCreateIndex).Methods("POST")
	router.HandleFunc("/collections/{coll}/indexes/{fields}", h.HandleDropIndex).Methods("DELETE")
	router.HandleFunc("/collections/{coll}/find", h.HandleFindByIndex).Methods("GET")
}
