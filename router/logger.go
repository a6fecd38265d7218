package router

import (
	"log"
	"time"

	"yuu/controllers"

	"github.com/gin-gonic/gin"
)

// Logger logs method, path, status, latency and the authenticated user, if any.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		if user, ok := controllers.GetUserLogged(c); ok {
			log.Printf("%s %s -> %d (%s) user_id=%d", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), duration, user.ID)
			return
		}
		log.Printf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), duration)
	}
}
