package controllers

import (
	"net/http"

	"yuu/config"

	"github.com/gin-gonic/gin"
)

func Me(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	user.Password = ""
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Health responde sem autenticação; informa o provider de IA e o store em uso.
func Health(cfg config.Configuration) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"ai_provider": cfg.AI.Provider,
			"ai_model":    cfg.AI.Model,
			"store":       cfg.Store,
		})
	}
}
