package router

import (
	"github.com/gin-gonic/gin"

	"agenda-service/internal/app"
	"agenda-service/internal/config"
	"agenda-service/internal/handlers"
	"agenda-service/internal/repository/postgres"
	"agenda-service/internal/service"
)

func Build(appInstance *app.App, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	{
		api.Use(app.AuthMiddleware(cfg))

		activityRepo := postgres.NewActivityRepo()
		appointmentRepo := postgres.NewAppointmentRepo()
		referenceRepo := postgres.NewReferenceRepo()

		conflictService := service.NewConflictService(appInstance.DB, appointmentRepo, referenceRepo)
		suggestionService := service.NewSuggestionService(appInstance.DB, appointmentRepo, referenceRepo)
		bookingService := service.NewBookingService(appInstance.DB, activityRepo, appointmentRepo, referenceRepo,
			conflictService, suggestionService, appInstance.Logger)
		appointmentService := service.NewAppointmentService(appInstance.DB, appointmentRepo, activityRepo, referenceRepo,
			conflictService, suggestionService, appInstance.Logger)

		activityHandlers := &handlers.ActivityHandlers{Booking: bookingService}
		appointmentHandlers := &handlers.AppointmentHandlers{Appointments: appointmentService}

		activities := api.Group("/activities")
		{
			activities.GET("", activityHandlers.ListActivities)
			activities.GET("/:id", activityHandlers.GetActivity)
			activities.POST("", app.RequirePermission("activities:create"),
				appInstance.AuditTrail("create", "activity"), activityHandlers.CreateActivity)
			activities.PUT("/:id", app.RequirePermission("activities:update"),
				appInstance.AuditTrail("update", "activity"), activityHandlers.UpdateActivity)
			activities.PUT("/:id/cancel", app.RequirePermission("activities:cancel"),
				appInstance.AuditTrail("cancel", "activity"), activityHandlers.CancelActivity)
			activities.POST("/:id/reschedule", app.RequirePermission("activities:reschedule"),
				appInstance.AuditTrail("reschedule", "activity"), activityHandlers.RescheduleActivity)
			activities.PUT("/:id/complete", app.RequirePermission("activities:complete"),
				appInstance.AuditTrail("complete", "activity"), activityHandlers.CompleteActivity)
			activities.DELETE("/:id", app.RequirePermission("activities:delete"),
				appInstance.AuditTrail("delete", "activity"), activityHandlers.DeleteActivity)
		}

		appointments := api.Group("/appointments")
		{
			appointments.GET("", appointmentHandlers.ListAppointments)
			appointments.GET("/:id", appointmentHandlers.GetAppointment)
			appointments.POST("", app.RequirePermission("appointments:create"),
				appInstance.AuditTrail("create", "appointment"), appointmentHandlers.CreateAppointment)
			appointments.PUT("/:id", app.RequirePermission("appointments:update"),
				appInstance.AuditTrail("update", "appointment"), appointmentHandlers.UpdateAppointment)
			appointments.PUT("/:id/cancel", app.RequirePermission("appointments:cancel"),
				appInstance.AuditTrail("cancel", "appointment"), appointmentHandlers.CancelAppointment)
		}
	}

	return r
}
