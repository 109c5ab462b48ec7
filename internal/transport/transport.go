package transport

import (
	"github.com/gin-gonic/gin"

	"github.com/terrep263/snapbrand/internal/transport/middleware"
)

func InitRoutes(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := router.Group("/api")
	{
		api.POST("/batches", handler.CreateBatch)
		api.GET("/batches/:id", handler.GetBatch)
		api.DELETE("/batches/:id", handler.DeleteBatch)

		api.POST("/logos", handler.UploadLogo)

		api.POST("/designs", handler.SaveDesign)
		api.GET("/designs", handler.ListDesigns)
		api.GET("/designs/:id", handler.GetDesign)
		api.DELETE("/designs/:id", handler.DeleteDesign)

		api.POST("/snap", handler.SnapPosition)

		api.POST("/exports", handler.StartExport)
		api.GET("/exports/:id", handler.GetExport)
		api.GET("/exports/:id/images/:filename", handler.DownloadImage)
		api.POST("/exports/:id/cancel", handler.CancelExport)
		api.POST("/exports/:id/retry", handler.RetryExport)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "snapbrand",
		})
	})
	return router
}
