package db

import (
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const dbKey = "db"
const dreamsKey = "dreams"

// Use este middleware no setup do gin
func SetDBtoContext(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(dbKey, database)
		c.Next()
	}
}

func DBInstance(c *gin.Context) *gorm.DB {
	v, ok := c.Get(dbKey)
	if !ok {
		return nil
	}
	db, _ := v.(*gorm.DB)
	return db
}

// SetDreamsToContext expõe o repositório de dreams (gorm ou firestore) aos controllers.
func SetDreamsToContext(repo DreamRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(dreamsKey, repo)
		c.Next()
	}
}

func DreamsInstance(c *gin.Context) DreamRepository {
	v, ok := c.Get(dreamsKey)
	if !ok {
		return nil
	}
	repo, _ := v.(DreamRepository)
	return repo
}
