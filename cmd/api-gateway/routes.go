package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-registration-api/internal/middleware"
	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/pkg/config"
	"github.com/noah-isme/uni-registration-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uni-registration-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uni-registration-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, logr *zap.Logger, app *application) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics, "/metrics", "/health"))
	r.Use(middleware.ResponseMeta())

	r.GET("/health", app.metricsH.Health)
	r.GET("/ready", app.metricsH.Ready)
	r.GET("/metrics", app.metricsH.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/signup", app.authH.Signup)
	auth.POST("/login", app.authH.Login)
	auth.POST("/password/forgot", app.authH.ForgotPassword)

	api.GET("/courses", app.catalogH.ListCourses)
	api.GET("/courses/:id", app.catalogH.GetCourse)
	api.GET("/majors", app.catalogH.ListMajors)
	api.POST("/gpa/calculate", app.academicH.Calculate)

	secured := api.Group("")
	secured.Use(middleware.JWT(app.auth), middleware.Maintenance(app.settings))

	secured.GET("/auth/me", app.authH.Me)
	secured.GET("/settings", app.settingsH.Get)

	student := secured.Group("")
	student.Use(middleware.RequireRoles(models.RoleStudent))
	student.POST("/registrations", app.enrollmentH.Register)
	student.POST("/requests", app.requestH.Submit)

	me := secured.Group("/students/me")
	me.GET("/enrollments", app.enrollmentH.ListMine)
	me.GET("/gpa", app.academicH.GPA)
	me.GET("/transcript", app.academicH.Transcript)
	me.GET("/transcript/export", app.academicH.ExportTranscript)
	me.GET("/schedule", app.academicH.Schedule)
	me.GET("/dashboard", app.dashboardH.Student)
	me.GET("/requests", app.requestH.ListMine)

	secured.GET("/notifications/me", app.notificationH.ListMine)
	secured.PUT("/notifications/:id/read", app.notificationH.MarkRead)

	secured.POST("/chat/messages", app.chatH.Send)
	secured.GET("/chat/messages", app.chatH.Conversation)
	secured.GET("/chat/stream", app.chatH.Stream)
	secured.POST("/chatbot", app.chatH.Chatbot)

	staff := secured.Group("")
	staff.Use(middleware.RequireStaff())
	staff.GET("/requests", app.requestH.List)
	staff.POST("/requests/:id/approve", middleware.Audit(logr, "approve", "request"), app.requestH.Approve)
	staff.POST("/requests/:id/reject", middleware.Audit(logr, "reject", "request"), app.requestH.Reject)
	staff.PUT("/enrollments/:id/grade", middleware.Audit(logr, "grade", "enrollment"), app.enrollmentH.RecordGrade)
	staff.GET("/students", app.studentH.List)
	staff.GET("/students/:id", app.studentH.Get)

	admin := secured.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/courses", middleware.Audit(logr, "create", "course"), app.catalogH.CreateCourse)
	admin.PUT("/courses/:id", middleware.Audit(logr, "update", "course"), app.catalogH.UpdateCourse)
	admin.DELETE("/courses/:id", middleware.Audit(logr, "delete", "course"), app.catalogH.DeleteCourse)
	admin.POST("/majors", middleware.Audit(logr, "create", "major"), app.catalogH.CreateMajor)
	admin.PUT("/majors/:id", middleware.Audit(logr, "update", "major"), app.catalogH.UpdateMajor)
	admin.DELETE("/majors/:id", middleware.Audit(logr, "delete", "major"), app.catalogH.DeleteMajor)
	admin.DELETE("/students/:id", middleware.Audit(logr, "delete", "student"), app.studentH.Delete)
	admin.PUT("/settings", middleware.Audit(logr, "update", "settings"), app.settingsH.Update)
	admin.POST("/notifications/broadcast", middleware.Audit(logr, "broadcast", "notification"), app.notificationH.Broadcast)
	admin.GET("/notifications", app.notificationH.ListAll)
	admin.GET("/admin/dashboard", app.dashboardH.Admin)
	admin.GET("/users", app.userH.ListStaff)
	admin.POST("/users", middleware.Audit(logr, "create", "user"), app.userH.CreateStaff)

	return r
}
