package http

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the pipeline's operational routes.
func RegisterRoutes(r *gin.Engine, handler *PipelineHandler) {
	r.GET("/healthz", handler.Healthz)

	v1 := r.Group("/v1")
	{
		v1.GET("/batches/stats", handler.GetStats)
		v1.GET("/batches/jobs", handler.ListJobs)
		v1.POST("/batches/flush", handler.Flush)
		v1.POST("/events", handler.SubmitEvent)
	}
}
