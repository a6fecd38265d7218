package router

import (
	"log"
	"net/http"

	"yuu/controllers"

	"github.com/gin-gonic/gin"
)

// Adminizer protege as rotas de operação (listagem por status, reanálise).
func Adminizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			controllers.RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		if !user.Admin {
			log.Printf("admin: user_id=%d denied on %s", user.ID, c.Request.URL.Path)
			controllers.RespondError(c, "admin required", http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
