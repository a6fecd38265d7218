package router

import (
	"net/http"

	"yuu/controllers"
	"yuu/models"

	"github.com/gin-gonic/gin"
)

// Authorizer: só usuários ativos podem registrar e analisar sonhos.
func Authorizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			controllers.RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}

		switch user.Status {
		case models.USER_STATUS_AVAILABLE:
			c.Next()
		case models.USER_STATUS_PENDING:
			controllers.RespondError(c, "necessário confirmar a conta", http.StatusForbidden)
			c.Abort()
		default:
			controllers.RespondError(c, "sem acesso ao diário de sonhos", http.StatusForbidden)
			c.Abort()
		}
	}
}
