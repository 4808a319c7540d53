package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pawanpaudel93/nepse-analysis/internal/api/handlers"
	"github.com/pawanpaudel93/nepse-analysis/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(reportsHandler *handlers.ReportsHandler, jobsHandler *handlers.JobsHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Reference data
	api.HandleFunc("/sectors", reportsHandler.GetSectors).Methods("GET")
	api.HandleFunc("/securities", reportsHandler.GetSecurities).Methods("GET")

	// Floorsheet reports
	api.HandleFunc("/floorsheet/{symbol}", reportsHandler.GetFloorsheet).Methods("GET")
	api.HandleFunc("/floorsheet/{symbol}/range", reportsHandler.GetFloorsheetRange).Methods("GET")
	api.HandleFunc("/sectors/{id:[0-9]+}/floorsheet", reportsHandler.GetSectorFloorsheet).Methods("GET")
	api.HandleFunc("/sectors/{id:[0-9]+}/floorsheet/combined", reportsHandler.GetSectorCombined).Methods("GET")
	api.HandleFunc("/sectors/{id:[0-9]+}/floorsheet/range", reportsHandler.GetSectorFloorsheetRange).Methods("GET")

	// Scheduler
	if jobsHandler != nil {
		api.HandleFunc("/jobs", jobsHandler.GetStats).Methods("GET")
		api.HandleFunc("/jobs/{name}/run", jobsHandler.RunJob).Methods("POST")
	}

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "nepse-analysis-api",
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
