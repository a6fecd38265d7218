package controllers

import (
	"log"
	"net/http"

	dbpkg "yuu/db"
	"yuu/models"
	"yuu/workers"

	"github.com/gin-gonic/gin"
)

var dreamStatuses = map[string]bool{
	models.DREAM_STATUS_CREATED:    true,
	models.DREAM_STATUS_PROCESSING: true,
	models.DREAM_STATUS_ANALYZED:   true,
	models.DREAM_STATUS_ERROR:      true,
}

// ListDreamsByStatus (admin): mais antigos primeiro, para achar runs presos em processing.
func ListDreamsByStatus(c *gin.Context) {
	repo := dbpkg.DreamsInstance(c)
	if repo == nil {
		RespondError(c, "store não configurado no contexto", http.StatusInternalServerError)
		return
	}
	status := c.DefaultQuery("status", models.DREAM_STATUS_PROCESSING)
	if !dreamStatuses[status] {
		RespondError(c, "status inválido", http.StatusBadRequest)
		return
	}
	limit, _, ok := QueryPage(c)
	if !ok {
		return
	}

	dreams, err := repo.ListByStatus(c.Request.Context(), status, limit)
	if err != nil {
		log.Printf("admin: list dreams by status=%s failed: %v", status, err)
		RespondError(c, "erro ao listar sonhos", http.StatusInternalServerError)
		return
	}
	if dreams == nil {
		dreams = []models.Dream{}
	}
	RespondSuccess(c, dreams)
}

// ReanalyzeDream (admin) força uma nova análise, inclusive de sonhos presos em processing.
func ReanalyzeDream(c *gin.Context) {
	pool := workers.PoolInstance(c)
	if pool == nil {
		RespondError(c, "pool de análise não configurado", http.StatusInternalServerError)
		return
	}
	dream, ok := loadDream(c)
	if !ok {
		return
	}
	if !pool.Resolver().HasAnalyzableContent(dream) {
		RespondError(c, "dream has no analyzable content (text or remote audio)", http.StatusUnprocessableEntity)
		return
	}
	if user, ok := GetUserLogged(c); ok {
		log.Printf("admin: user_id=%d forced analysis of dream_id=%s (status=%s)", user.ID, dream.ID, dream.Status)
	}
	submitAnalysis(c, dream.ID, pool.Resubmit)
}
