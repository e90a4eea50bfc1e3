package server

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-ape/pkg/api"
	"github.com/adfharrison1/go-ape/pkg/storage"
)

// RequestIDHeader carries the id assigned to each request
const RequestIDHeader = "X-Request-ID"

// Server holds references to the workspace, router, etc.
type Server struct {
	router    *mux.Router
	workspace *storage.Workspace
}

// NewServer creates a new instance of Server over ws
func NewServer(ws *storage.Workspace) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		workspace: ws,
	}
	// Define HTTP routes
	api.NewHandler(ws).RegisterRoutes(s.router)

	// Use the logging middleware for all routes
	s.router.Use(requestLoggerMiddleware)

	// Customize NotFoundHandler to log 404s
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("WARN: No route found for %s %s", r.Method, r.URL.Path)
		api.WriteJSONError(w, http.StatusNotFound, "no route for "+r.URL.Path)
	})

	return s
}

// requestLoggerMiddleware stamps each request with an id and logs the
// method, URL path, and duration.
func requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		start := time.Now()
		next.ServeHTTP(w, r)
		elapsed := time.Since(start)
		log.Printf("INFO: Request %s %s %s took %s", requestID, r.Method, r.URL.Path, elapsed)
	})
}

// Router exposes the internal mux.Router.
func (s *Server) Router() http.Handler {
	return s.router
}

// Workspace returns the workspace the server serves
func (s *Server) Workspace() *storage.Workspace {
	return s.workspace
}
