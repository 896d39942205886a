/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. Routes are mounted at the root so existing clients keep
  working unchanged.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. requestLogger: Structured request logging (logrus)
  4. CORS:       Cross-origin requests for the browser UI

ROUTE GROUPS:
  /employees/*     Employee management + spreadsheet upload
  /travels/*       Travel authorizations, bulk paths, filter, graph
  /appointments/*  Appointment documents, bulk paths, attachment, graph
  /api/chat        Assistant passthrough
  /uploads/*       Stored attachments (read-only static)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.ListEmployees)
		r.Post("/", h.CreateEmployee)
		r.Delete("/{id}", h.DeleteEmployee)
		r.Post("/upload", h.UploadEmployees)
	})

	r.Route("/travels", func(r chi.Router) {
		r.Get("/", h.ListTravels)
		r.Post("/", h.CreateTravel)
		r.Get("/filter", h.FilterTravels)
		r.Get("/graph", h.TravelGraph)
		r.Post("/upload", h.UploadTravels)
		r.Post("/bulk", h.BulkInsertTravels)
		r.Put("/bulk", h.BulkUpdateTravels)
		r.Post("/delete", h.SelectiveDeleteTravels)
		r.Put("/{id}", h.UpdateTravel)
		r.Delete("/{id}", h.DeleteTravel)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Get("/", h.ListAppointments)
		r.Post("/", h.CreateAppointment)
		r.Get("/graph", h.AppointmentGraph)
		r.Post("/bulk", h.BulkInsertAppointments)
		r.Post("/delete", h.SelectiveDeleteAppointments)
		r.Post("/{id}/attachment", h.UploadAppointmentAttachment)
		r.Put("/{id}", h.UpdateAppointment)
		r.Delete("/{id}", h.DeleteAppointment)
	})

	r.Post("/api/chat", h.HandleChat)

	// Stored attachments, read-only.
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.Files.Dir())))
	r.Get("/uploads/*", fileServer.ServeHTTP)

	return r
}

// requestLogger logs one structured line per request.
func requestLogger(h *Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			h.Log.WithFields(map[string]any{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("request")
		})
	}
}
