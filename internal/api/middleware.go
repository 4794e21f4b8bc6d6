package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// corsMiddleware разрешает отладочной странице с другого origin читать API
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requireSnapshot отвечает 503, пока симуляция не опубликовала ни одного кадра
func (ds *DebugServer) requireSnapshot() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ds.host.Latest(); !ok {
			c.JSON(http.StatusServiceUnavailable, GenericResponse{
				Success: false,
				Message: "Симуляция ещё не запущена",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
