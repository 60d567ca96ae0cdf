package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnitrack/internal/app/controllers"
	"github.com/yigit/alumnitrack/internal/middleware"
)

// Controllers groups the handlers mounted under /api/v1
type Controllers struct {
	Auth       *controllers.AuthController
	Alumni     *controllers.AlumniController
	Archive    *controllers.ArchiveController
	BulkUpload *controllers.BulkUploadController
	Audit      *controllers.AuditController
	Dashboard  *controllers.DashboardController
}

// SetupRouter configures all application routes. A nil limiter leaves the public auth routes unthrottled.
func SetupRouter(
	router *gin.Engine,
	c Controllers,
	authMiddleware *middleware.AuthMiddleware,
	limiter *middleware.TokenBucket,
) {
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	public := v1.Group("/auth")
	if limiter != nil {
		public.Use(limiter.Handler())
	}
	{
		public.POST("/login", c.Auth.Login)
		public.POST("/refresh", c.Auth.RefreshToken)
		public.POST("/forgot-password", c.Auth.ForgotPassword)
		public.POST("/reset-password", c.Auth.ResetPassword)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	superAdmin := authMiddleware.SuperAdminRequired()

	account := authenticated.Group("/auth")
	{
		account.GET("/me", c.Auth.Me)
		account.POST("/change-password", c.Auth.ChangePassword)
		account.POST("/register", superAdmin, c.Auth.Register)
	}

	alumni := authenticated.Group("/alumni")
	{
		alumni.GET("", c.Alumni.List)
		alumni.POST("", c.Alumni.Create)
		alumni.POST("/check-duplicate", c.Alumni.CheckDuplicate)
		alumni.GET("/duplicates", c.Alumni.Duplicates)
		alumni.GET("/export", c.Alumni.Export)
		alumni.POST("/bulk-archive", c.Alumni.BulkArchive)
		alumni.GET("/:id", c.Alumni.GetByID)
		alumni.PUT("/:id", c.Alumni.Update)
		alumni.GET("/:id/completion", c.Alumni.Completion)
		alumni.GET("/:id/forms", c.Alumni.Forms)
		alumni.PUT("/:id/forms/:formType/complete", c.Alumni.MarkFormComplete)
		alumni.POST("/:id/archive", c.Alumni.Archive)
	}

	archive := authenticated.Group("/archive")
	{
		archive.GET("", c.Archive.List)
		archive.GET("/stats", c.Archive.Stats)
		archive.POST("/cleanup", superAdmin, c.Archive.Cleanup)
		archive.POST("/:id/restore", c.Archive.Restore)
		archive.DELETE("/:id", c.Archive.Delete)
	}

	uploads := authenticated.Group("/bulk-uploads")
	{
		uploads.POST("", c.BulkUpload.Stage)
		uploads.POST("/:batchId/confirm", c.BulkUpload.Confirm)
	}

	authenticated.GET("/audit-trail", c.Audit.List)
	authenticated.GET("/dashboard/stats", c.Dashboard.Stats)
}
