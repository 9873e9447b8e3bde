package devserver

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/medigate/medigate-cli/internal/api"
)

type route struct {
	method   string
	endpoint api.Endpoint
	public   bool
}

// routes maps every endpoint to the verb the client sends for it
var routes = []route{
	{http.MethodPost, api.UserLogin, true},
	{http.MethodPost, api.UserRegister, true},
	{http.MethodPost, api.UserLogout, true},
	{http.MethodGet, api.User, false},
	{http.MethodPut, api.UserUpdate, false},

	{http.MethodGet, api.Doctors, false},
	{http.MethodGet, api.DoctorByID, false},

	{http.MethodGet, api.Appointments, false},
	{http.MethodPost, api.AppointmentCreate, false},
	{http.MethodGet, api.AppointmentByID, false},
	{http.MethodPut, api.AppointmentUpdate, false},
	{http.MethodDelete, api.AppointmentDelete, false},

	{http.MethodGet, api.Medications, false},
	{http.MethodGet, api.MedicationByID, false},
	{http.MethodPost, api.MedicationMarkTaken, false},

	{http.MethodGet, api.HealthRecords, false},
	{http.MethodGet, api.HealthRecordByID, false},

	{http.MethodGet, api.Notifications, false},
	{http.MethodPost, api.NotificationMarkAllRead, false},
	{http.MethodPatch, api.NotificationMarkRead, false},

	{http.MethodGet, api.Pharmacies, false},
	{http.MethodGet, api.PharmacyByID, false},

	{http.MethodGet, api.EmergencyContacts, false},

	{http.MethodPost, api.FeedbackSubmit, true},
	{http.MethodGet, api.FeedbackList, false},
}

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	if s.config.API.EnableLogging {
		s.app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	s.app.Get("/api/health", s.handleHealth)
	s.app.Get("/api/metrics", s.handleMetricsJSON)
	s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))

	auth := s.authMiddleware()
	for _, r := range routes {
		handlers := []fiber.Handler{s.dispatch(r.endpoint)}
		if !r.public {
			handlers = append([]fiber.Handler{auth}, handlers...)
		}
		s.app.Add(r.method, r.endpoint.Path(), handlers...)
	}

	s.app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found"})
	})
}
