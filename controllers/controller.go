package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"error": msg})
}

func RespondSuccess(c *gin.Context, payload any) {
	RespondStatus(c, payload, http.StatusOK)
}

// RespondStatus é usado para 201/202.
func RespondStatus(c *gin.Context, payload any, code int) {
	c.JSON(code, payload)
}
