package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"acadflow/backend/config"
	"acadflow/backend/internal/api/handler"
	"acadflow/backend/internal/api/middleware"
	"acadflow/backend/internal/service"
	"acadflow/backend/pkg/jwt"
	"acadflow/backend/pkg/redis"
)

// Setup builds the Gin engine with all routes and middleware.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── Global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── Health check ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// Auth (no token required)
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 20, time.Minute))
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.GET("/users", middleware.RequireCapability(service.CapAllocationView), h.Auth.ListUsers)

			// Course catalog
			courses := authorized.Group("/courses")
			{
				courses.GET("", h.Course.List)
				courses.GET("/:code", h.Course.Get)
				courses.POST("", middleware.RequireCapability(service.CapCourseMark), h.Course.Create)
				courses.PATCH("/:code", middleware.RequireCapability(service.CapCourseMark), h.Course.Update)
				courses.DELETE("/:code", middleware.RequireCapability(service.CapCourseMark), h.Course.Delete)
			}

			// Semester lifecycle
			semesters := authorized.Group("/semesters")
			{
				semesters.GET("/latest", h.Semester.GetLatest)
				semesters.POST("", middleware.RequireCapability(service.CapSemesterManage), h.Semester.Create)
				semesters.PUT("/latest/courses", middleware.RequireCapability(service.CapCourseMark), h.Semester.MarkCourses)
				semesters.POST("/:id/publish-form", middleware.RequireCapability(service.CapAllocationWrite), h.Semester.PublishForm)
				semesters.POST("/:id/end-form", middleware.RequireCapability(service.CapAllocationWrite), h.Semester.EndForm)
				semesters.POST("/:id/end-allocation", middleware.RequireCapability(service.CapAllocationWrite), h.Semester.EndAllocation)
			}

			// Form templates
			templates := authorized.Group("/form-templates")
			templates.Use(middleware.RequireCapability(service.CapAllocationWrite))
			{
				templates.GET("", h.Form.ListTemplates)
				templates.GET("/:id", h.Form.GetTemplate)
				templates.POST("", h.Form.CreateTemplate)
			}

			// Forms and responses
			forms := authorized.Group("/forms")
			{
				forms.POST("", middleware.RequireCapability(service.CapAllocationWrite), h.Form.CreateForm)
				forms.GET("/:id", h.Form.GetForm)
				forms.POST("/:id/responses", middleware.RequireCapability(service.CapFormRespond), h.Form.RegisterResponse)
				forms.GET("/:id/responses/others", middleware.RequireCapability(service.CapFormRespond), h.Form.OtherResponses)
				forms.GET("/:id/preferences", middleware.RequireCapability(service.CapAllocationView), h.Form.RankedPreferences)
			}

			// Allocation engine
			allocation := authorized.Group("/allocation")
			{
				allocation.GET("/status", middleware.RequireCapability(service.CapAllocationView), h.Allocation.Status)
				allocation.GET("/candidates", middleware.RequireCapability(service.CapAllocationView), h.Allocation.Candidates)
				allocation.GET("/instructors/:email", middleware.RequireCapability(service.CapAllocationView), h.Allocation.InstructorDetails)
				allocation.GET("/load-matrix", middleware.RequireCapability(service.CapAllocationView), h.Allocation.LoadMatrix)
				allocation.GET("/load-matrix/export", middleware.RequireCapability(service.CapAllocationView), h.Allocation.ExportLoadMatrix)

				allocation.POST("/sections", middleware.RequireCapability(service.CapAllocationWrite), h.Allocation.CreateSection)
				allocation.GET("/sections/:id", middleware.RequireCapability(service.CapAllocationView), h.Allocation.GetSection)
				allocation.DELETE("/sections/:id", middleware.RequireCapability(service.CapAllocationWrite), h.Allocation.DeleteSection)
				allocation.POST("/sections/:id/instructors", middleware.RequireCapability(service.CapAllocationWrite), h.Allocation.AssignInstructor)
				allocation.DELETE("/sections/:id/instructors/:email", middleware.RequireCapability(service.CapAllocationWrite), h.Allocation.DismissInstructor)
				allocation.PUT("/courses/:code/ic", middleware.RequireCapability(service.CapAllocationWrite), h.Allocation.SetIC)

				allocation.POST("/push", middleware.RequireCapability(service.CapAllocationWrite), h.Allocation.Push)
			}
		}
	}

	return r
}
