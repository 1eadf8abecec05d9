package router

import (
	"time"

	"github.com/cybro8/TestOps-HealthCare-Project/internal/handlers"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/middleware"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:project_id", middleware.AuthMiddleware(), handlers.WebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/login", handlers.Login)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		users := api.Group("/users", middleware.AuthMiddleware(), middleware.RequireAdmin())
		{
			users.GET("", handlers.ListUsers)
			users.POST("", handlers.CreateUser)
			users.PUT("/:user_id", handlers.UpdateUser)
			users.DELETE("/:user_id", handlers.DeleteUser)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.GET("", handlers.ListProjects)
			projects.GET("/mine", handlers.MyProject)
			projects.GET("/:project_id", handlers.GetProject)
			projects.PATCH("/:project_id", handlers.UpdateProject)

			// Admin-only project management
			admin := projects.Group("", middleware.RequireAdmin())
			{
				admin.POST("", handlers.CreateProject)
				admin.DELETE("/:project_id", handlers.DeleteProject)
				admin.GET("/:project_id/users", handlers.ListProjectUsers)
				admin.POST("/:project_id/users", handlers.AssignUser)
				admin.POST("/:project_id/users/assign", handlers.BatchAssign)
				admin.DELETE("/:project_id/users/:user_id", handlers.RemoveUser)
			}

			// Test case workspace
			projects.GET("/:project_id/testcases", handlers.ListTestCases)
			projects.POST("/:project_id/testcases", handlers.CreateTestCase)
			projects.PUT("/:project_id/testcases", handlers.SaveTestCases)
			projects.GET("/:project_id/testcases/:testcase_id", handlers.GetTestCase)
			projects.PUT("/:project_id/testcases/:testcase_id", handlers.UpdateTestCase)
			projects.DELETE("/:project_id/testcases/:testcase_id", handlers.DeleteTestCase)

			projects.POST("/:project_id/export", handlers.ExportTestCases)
			projects.POST("/:project_id/generate", handlers.GenerateTestCases)
			projects.GET("/:project_id/chat", handlers.GetChatHistory)

			projects.POST("/:project_id/files", handlers.UploadFile)
			projects.GET("/:project_id/files", handlers.ListFiles)
		}
	}

	return r
}
