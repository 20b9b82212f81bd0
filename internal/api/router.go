package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/mdhealth/internal/api/handlers"
	"github.com/wonny/mdhealth/pkg/logger"
)

// Handlers groups everything the router mounts; Metrics may be nil
type Handlers struct {
	Quality *handlers.QualityHandler
	Data    *handlers.DataHandler
	Stream  *handlers.StreamHandler
	Metrics http.Handler
	Source  string
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(h.Source)).Methods("GET")

	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Quality endpoints
	q := api.PathPrefix("/quality").Subrouter()
	q.HandleFunc("/scores", h.Quality.GetScores).Methods("GET")
	q.HandleFunc("/health", h.Quality.GetHealth).Methods("GET")
	q.HandleFunc("/health/{type}", h.Quality.GetDatasetHealth).Methods("GET")
	q.HandleFunc("/fields/{type}", h.Quality.GetFields).Methods("GET")
	q.HandleFunc("/summary", h.Quality.GetSummary).Methods("GET")
	q.HandleFunc("/recommendations", h.Quality.GetRecommendations).Methods("GET")
	q.HandleFunc("/trends", h.Quality.GetTrends).Methods("GET")
	q.HandleFunc("/export/issues.csv", h.Quality.ExportIssues).Methods("GET")
	q.HandleFunc("/export/recommendations.csv", h.Quality.ExportRecommendations).Methods("GET")
	q.HandleFunc("/analyze", h.Quality.Analyze).Methods("POST")

	// Data write-back
	api.HandleFunc("/data/{type}/{id}", h.Data.UpdateRecord).Methods("PATCH")

	// Push
	if h.Stream != nil {
		r.HandleFunc("/ws/runs", h.Stream.Runs).Methods("GET")
	}

	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Not found")
	})
	// 서브라우터는 405를 직접 처리해야 상위로 404가 전파되지 않음
	r.MethodNotAllowedHandler = notAllowed
	api.MethodNotAllowedHandler = notAllowed
	q.MethodNotAllowedHandler = notAllowed

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(source string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"service": "mdhealth-api",
			"source":  source,
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					writeJSONError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
