package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cognition-bio/cognition/controllers"
	"github.com/cognition-bio/cognition/middleware"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Public routes
	r.POST("/register", controllers.Register)
	r.POST("/login", controllers.Login)

	// Protected routes (dashboard UI)
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.POST("/logout", controllers.Logout)

		// Remote session
		protected.GET("/hpc/status", controllers.SessionStatus)
		protected.POST("/hpc/connect", controllers.Connect)
		protected.POST("/hpc/disconnect", controllers.Disconnect)

		// File navigator and editor
		protected.GET("/hpc/files", controllers.ListFiles)
		protected.POST("/hpc/select", controllers.SelectEntry)
		protected.POST("/hpc/open", controllers.OpenEntry)
		protected.DELETE("/hpc/selection", controllers.DeleteEntry)
		protected.GET("/hpc/download", controllers.DownloadSelection)
		protected.POST("/hpc/save", controllers.SaveFile)
		protected.POST("/hpc/upload", controllers.Upload)

		// Command console
		protected.GET("/hpc/console", controllers.Console)
		protected.POST("/hpc/exec", controllers.Exec)

		// Scheduler
		protected.GET("/hpc/queue", controllers.Queue)
		protected.GET("/hpc/job-options", controllers.JobOptions)
		protected.POST("/hpc/job-options/modules", controllers.AddModule)
		protected.DELETE("/hpc/job-options/modules", controllers.RemoveModule)
		protected.POST("/hpc/jobs", controllers.SubmitJob)

		// Proteome catalog
		protected.GET("/catalog", controllers.BrowseCatalog)
		protected.GET("/catalog/summary", controllers.CatalogSummary)
		protected.POST("/catalog/refresh", controllers.RefreshCatalog)

		// Bulk FASTA downloads
		protected.POST("/proteomes/downloads", controllers.StartDownload)
		protected.GET("/proteomes/downloads/:id", controllers.DownloadStatus)
		protected.GET("/proteomes/downloads/:id/fasta", controllers.ServeFasta)
		protected.GET("/proteomes/downloads/:id/failures", controllers.ServeFailures)
	}

	return r
}
