package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const LIST_DEFAULT_LIMIT = 50
const LIST_MAX_LIMIT = 100

// ParamDreamID: id malformado é tratado como inexistente (404).
func ParamDreamID(c *gin.Context, name string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		RespondError(c, name+" é obrigatório", http.StatusBadRequest)
		return "", false
	}
	id, err := uuid.Parse(v)
	if err != nil {
		RespondError(c, "dream not found", http.StatusNotFound)
		return "", false
	}
	return id.String(), true
}

// QueryPage lê limit/skip da query string.
func QueryPage(c *gin.Context) (limit int, skip int, ok bool) {
	limit = LIST_DEFAULT_LIMIT
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			RespondError(c, "limit inválido", http.StatusBadRequest)
			return 0, 0, false
		}
		limit = n
	}
	if limit > LIST_MAX_LIMIT {
		limit = LIST_MAX_LIMIT
	}
	if v := c.Query("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			RespondError(c, "skip inválido", http.StatusBadRequest)
			return 0, 0, false
		}
		skip = n
	}
	return limit, skip, true
}
