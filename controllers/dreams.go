package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	dbpkg "yuu/db"
	"yuu/models"
	"yuu/pipeline"
	"yuu/workers"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DreamInput são os campos que o cliente pode enviar na criação.
type DreamInput struct {
	Timestamp            *time.Time         `json:"timestamp"`
	Timezone             string             `json:"timezone"`
	TextContent          string             `json:"text_content"`
	AudioURL             string             `json:"audio_url"`
	AudioDurationSeconds *float64           `json:"audio_duration_seconds"`
	Language             string             `json:"language"`
	SharePolicy          models.SharePolicy `json:"share_policy"`
}

func (in DreamInput) toDream(ownerID int64) models.Dream {
	dream := models.Dream{
		OwnerID:              ownerID,
		Timezone:             strings.TrimSpace(in.Timezone),
		TextContent:          in.TextContent,
		AudioURL:             strings.TrimSpace(in.AudioURL),
		AudioDurationSeconds: in.AudioDurationSeconds,
		Language:             strings.TrimSpace(in.Language),
		SharePolicy:          in.SharePolicy,
	}
	if in.Timestamp != nil {
		dream.Timestamp = in.Timestamp.UTC()
	}
	return dream
}

// AcceptedResponse é a resposta do trigger de análise.
type AcceptedResponse struct {
	Status  string `json:"status"`
	DreamID string `json:"dream_id"`
}

// CreateDream aceita JSON ou multipart (campo "payload" + arquivo "audio").
func CreateDream(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	repo := dbpkg.DreamsInstance(c)
	if repo == nil {
		RespondError(c, "store não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var input DreamInput
	var audio *multipart.FileHeader
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if payload := c.PostForm("payload"); payload != "" {
			if err := json.Unmarshal([]byte(payload), &input); err != nil {
				RespondError(c, "payload inválido: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		if fh, err := c.FormFile("audio"); err == nil {
			audio = fh
		}
	} else if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	dream := input.toDream(user.ID)
	if audio != nil && dream.AudioURL == "" {
		// placeholder para a validação; o caminho real é definido ao salvar
		dream.AudioURL = audio.Filename
	}
	if missing := dream.MissingFields(); missing != "" {
		RespondError(c, "Faltando campo "+missing, http.StatusBadRequest)
		return
	}
	if dream.TextTooLong() {
		RespondError(c, "text_content excede o tamanho máximo", http.StatusUnprocessableEntity)
		return
	}

	var saved string
	if audio != nil {
		path, err := saveAudio(c, audio)
		if err != nil {
			log.Printf("dreams: failed to save audio: %v", err)
			RespondError(c, "erro ao salvar áudio", http.StatusInternalServerError)
			return
		}
		saved = path
		dream.AudioURL = path
	}

	if err := repo.Create(c.Request.Context(), &dream); err != nil {
		if saved != "" {
			_ = os.Remove(saved)
		}
		log.Printf("dreams: create failed: %v", err)
		RespondError(c, "erro ao salvar sonho", http.StatusInternalServerError)
		return
	}

	RespondStatus(c, dream, http.StatusCreated)
}

func saveAudio(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(conf.UploadFolder, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	path := filepath.Join(conf.UploadFolder, name)
	if err := c.SaveUploadedFile(fh, path); err != nil {
		return "", err
	}
	return path, nil
}

func ListMyDreams(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	repo := dbpkg.DreamsInstance(c)
	if repo == nil {
		RespondError(c, "store não configurado no contexto", http.StatusInternalServerError)
		return
	}
	limit, skip, ok := QueryPage(c)
	if !ok {
		return
	}

	dreams, err := repo.ListByOwner(c.Request.Context(), user.ID, limit, skip)
	if err != nil {
		log.Printf("dreams: list failed for user_id=%d: %v", user.ID, err)
		RespondError(c, "erro ao listar sonhos", http.StatusInternalServerError)
		return
	}
	if dreams == nil {
		dreams = []models.Dream{}
	}
	RespondSuccess(c, dreams)
}

func GetDream(c *gin.Context) {
	dream, ok := loadOwnedDream(c)
	if !ok {
		return
	}
	RespondSuccess(c, dream)
}

// AnalyzeDream agenda a análise e responde 202 sem esperar o resultado.
func AnalyzeDream(c *gin.Context) {
	pool := workers.PoolInstance(c)
	if pool == nil {
		RespondError(c, "pool de análise não configurado", http.StatusInternalServerError)
		return
	}
	dream, ok := loadOwnedDream(c)
	if !ok {
		return
	}

	if !pool.Resolver().HasAnalyzableContent(dream) {
		RespondError(c, "dream has no analyzable content (text or remote audio)", http.StatusUnprocessableEntity)
		return
	}
	if dream.Status == models.DREAM_STATUS_PROCESSING {
		RespondError(c, "analysis already in progress", http.StatusConflict)
		return
	}

	submitAnalysis(c, dream.ID, pool.Submit)
}

func submitAnalysis(c *gin.Context, dreamID string, submit func(string) error) {
	if err := submit(dreamID); err != nil {
		if errors.Is(err, workers.ErrQueueFull) || errors.Is(err, workers.ErrPoolStopped) {
			RespondError(c, err.Error(), http.StatusServiceUnavailable)
			return
		}
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("dreams: analysis scheduled for dream_id=%s", dreamID)
	RespondStatus(c, AcceptedResponse{Status: "accepted", DreamID: dreamID}, http.StatusAccepted)
}

// loadOwnedDream carrega o sonho do path e garante que pertence ao usuário logado.
func loadOwnedDream(c *gin.Context) (*models.Dream, bool) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	dream, ok := loadDream(c)
	if !ok {
		return nil, false
	}
	if dream.OwnerID != user.ID {
		RespondError(c, "forbidden", http.StatusForbidden)
		return nil, false
	}
	return dream, true
}

func loadDream(c *gin.Context) (*models.Dream, bool) {
	repo := dbpkg.DreamsInstance(c)
	if repo == nil {
		RespondError(c, "store não configurado no contexto", http.StatusInternalServerError)
		return nil, false
	}
	id, ok := ParamDreamID(c, "id")
	if !ok {
		return nil, false
	}
	dream, err := repo.Load(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			RespondError(c, "dream not found", http.StatusNotFound)
			return nil, false
		}
		log.Printf("dreams: load dream_id=%s failed: %v", id, err)
		RespondError(c, "erro ao carregar sonho", http.StatusInternalServerError)
		return nil, false
	}
	return dream, true
}
