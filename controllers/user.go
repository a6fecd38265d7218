package controllers

import (
	"net/http"

	dbpkg "yuu/db"
	"yuu/models"
	"yuu/tools"

	"github.com/gin-gonic/gin"
)

func CreateUser(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	user := models.User{}
	if err := c.Bind(&user); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	missing := user.MissingFields()
	if missing == "" {
		missing = tools.CheckPassword(user.Password)
	}
	if missing != "" {
		RespondError(c, "Faltando campo "+missing, http.StatusBadRequest)
		return
	}

	if !tools.ValidateEmail(user.Email) {
		RespondError(c, "E-mail inválido!", http.StatusBadRequest)
		return
	}

	var existing models.User
	if err := db.Where("email = ?", user.Email).First(&existing).Error; err == nil {
		RespondError(c, "Usuário já existe", http.StatusBadRequest)
		return
	}

	user.Password = tools.HashPassword(user.Email, user.Password)
	user.Admin = false
	user.Status = models.USER_STATUS_AVAILABLE

	if err := db.Create(&user).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	user.Password = ""
	RespondSuccess(c, user)
}
