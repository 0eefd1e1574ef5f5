package http

import (
	"net/http"

	"go-medical-appointment/internal/delivery/http/handler"
	"go-medical-appointment/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	doctorHandler       *handler.DoctorHandler
	patientHandler      *handler.PatientHandler
	availabilityHandler *handler.AvailabilityHandler
	appointmentHandler  *handler.AppointmentHandler
	analysisHandler     *handler.AnalysisHandler
	calendarHandler     *handler.CalendarHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	rateLimiter         *middleware.RateLimiter
	metricsMiddleware   *middleware.MetricsMiddleware
	metricsHandler      http.Handler
}

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Doctor       *handler.DoctorHandler
	Patient      *handler.PatientHandler
	Availability *handler.AvailabilityHandler
	Appointment  *handler.AppointmentHandler
	Analysis     *handler.AnalysisHandler
	Calendar     *handler.CalendarHandler
	AuditLog     *handler.AuditLogHandler
}

// NewRouter wires handlers and middleware. rateLimiter, metricsMiddleware and
// metricsHandler are optional.
func NewRouter(
	handlers Handlers,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	rateLimiter *middleware.RateLimiter,
	metricsMiddleware *middleware.MetricsMiddleware,
	metricsHandler http.Handler,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         handlers.Auth,
		doctorHandler:       handlers.Doctor,
		patientHandler:      handlers.Patient,
		availabilityHandler: handlers.Availability,
		appointmentHandler:  handlers.Appointment,
		analysisHandler:     handlers.Analysis,
		calendarHandler:     handlers.Calendar,
		auditLogHandler:     handlers.AuditLog,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
		rateLimiter:         rateLimiter,
		metricsMiddleware:   metricsMiddleware,
		metricsHandler:      metricsHandler,
	}
}

func (r *Router) Setup() *mux.Router {
	if r.metricsHandler != nil {
		r.router.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)
	}

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public, rate limited)
	auth := api.PathPrefix("/auth").Subrouter()
	if r.rateLimiter != nil {
		auth.Use(r.rateLimiter.Handle)
	}
	auth.HandleFunc("/register/patient", r.authHandler.RegisterPatient).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Public catalog and directory
	api.HandleFunc("/doctors", r.doctorHandler.GetActiveDoctors).Methods(http.MethodGet)
	api.HandleFunc("/analyses", r.analysisHandler.ListAnalyses).Methods(http.MethodGet)
	api.HandleFunc("/analyses/{id:[0-9]+}", r.analysisHandler.GetAnalysis).Methods(http.MethodGet)

	// Everything below requires a valid access token
	protected := api.NewRoute().Subrouter()
	protected.Use(r.authMiddleware.Authenticate)

	protected.HandleFunc("/auth/logout", r.authHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/auth/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Doctor self-service. Registered before /doctors/{id} so "me" is not parsed as an ID.
	doctorSelf := protected.PathPrefix("/doctors/me").Subrouter()
	doctorSelf.Use(middleware.RequireDoctor)
	doctorSelf.HandleFunc("", r.doctorHandler.UpdateSelfProfile).Methods(http.MethodPut)
	doctorSelf.HandleFunc("/availability", r.availabilityHandler.Create).Methods(http.MethodPost)
	doctorSelf.HandleFunc("/availability/{id:[0-9]+}", r.availabilityHandler.Delete).Methods(http.MethodDelete)

	protected.HandleFunc("/doctors/{id}/availability", r.availabilityHandler.ListByDoctor).Methods(http.MethodGet)

	// Patient self-service
	patientSelf := protected.PathPrefix("/patients/me").Subrouter()
	patientSelf.Use(middleware.RequirePatient)
	patientSelf.HandleFunc("", r.patientHandler.GetSelfProfile).Methods(http.MethodGet)
	patientSelf.HandleFunc("", r.patientHandler.UpdateSelfProfile).Methods(http.MethodPut)
	patientSelf.HandleFunc("/analysis-history", r.analysisHandler.GetMyHistory).Methods(http.MethodGet)

	protected.Handle("/patients/{id}/analysis-history",
		middleware.RequireAdminOrDoctor(http.HandlerFunc(r.analysisHandler.GetPatientHistory))).Methods(http.MethodGet)

	// Appointments. Ownership is enforced in the usecase.
	protected.HandleFunc("/appointments", r.appointmentHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/appointments", r.appointmentHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}", r.appointmentHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}/cancel", r.appointmentHandler.Cancel).Methods(http.MethodPost)
	protected.Handle("/appointments/{id}/confirm",
		middleware.RequireAdminOrDoctor(http.HandlerFunc(r.appointmentHandler.Confirm))).Methods(http.MethodPost)
	protected.Handle("/appointments/{id}/complete",
		middleware.RequireAdminOrDoctor(http.HandlerFunc(r.appointmentHandler.Complete))).Methods(http.MethodPost)

	// Patient analyses
	staff := protected.PathPrefix("/patient-analyses").Subrouter()
	staff.HandleFunc("/{id:[0-9]+}", r.analysisHandler.GetPatientAnalysis).Methods(http.MethodGet)
	staff.HandleFunc("/{id:[0-9]+}/result/download", r.analysisHandler.DownloadResult).Methods(http.MethodGet)
	staff.Handle("", middleware.RequireAdminOrDoctor(http.HandlerFunc(r.analysisHandler.OrderAnalysis))).Methods(http.MethodPost)
	staff.Handle("/{id:[0-9]+}/result",
		middleware.RequireAdminOrDoctor(http.HandlerFunc(r.analysisHandler.RecordResult))).Methods(http.MethodPut)
	staff.Handle("/{id:[0-9]+}/result/file",
		middleware.RequireAdminOrDoctor(http.HandlerFunc(r.analysisHandler.UploadResultFile))).Methods(http.MethodPost)

	// Calendar
	protected.HandleFunc("/calendar/events", r.calendarHandler.GetEvents).Methods(http.MethodGet)
	protected.HandleFunc("/calendar/events/{id}", r.calendarHandler.GetEvent).Methods(http.MethodGet)
	protected.HandleFunc("/calendar/appointments.ics", r.calendarHandler.ExportICS).Methods(http.MethodGet)

	// Catalog writes (admin)
	catalog := protected.PathPrefix("/analyses").Subrouter()
	catalog.Use(middleware.RequireAdmin)
	catalog.HandleFunc("", r.analysisHandler.CreateAnalysis).Methods(http.MethodPost)
	catalog.HandleFunc("/{id:[0-9]+}", r.analysisHandler.UpdateAnalysis).Methods(http.MethodPut)
	catalog.HandleFunc("/{id:[0-9]+}", r.analysisHandler.DeleteAnalysis).Methods(http.MethodDelete)

	// Admin routes (protected - admin only)
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)

	// Doctor management (admin)
	admin.HandleFunc("/doctors", r.doctorHandler.CreateDoctor).Methods(http.MethodPost)
	admin.HandleFunc("/doctors", r.doctorHandler.GetAllDoctors).Methods(http.MethodGet)
	admin.HandleFunc("/doctors/{id}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)
	admin.HandleFunc("/doctors/{id}", r.doctorHandler.UpdateDoctor).Methods(http.MethodPut)

	// Audit trail (admin)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id:[0-9]+}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// Add CORS and metrics middleware
	r.router.Use(r.corsMiddleware.Handle)
	if r.metricsMiddleware != nil {
		r.router.Use(r.metricsMiddleware.Handle)
	}

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
