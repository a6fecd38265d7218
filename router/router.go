package router

import (
	"log"

	"yuu/config"
	"yuu/controllers"
	"yuu/db"
	"yuu/middleware"
	"yuu/workers"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

// Deps são as dependências injetadas nos handlers via contexto do gin.
type Deps struct {
	DB     *gorm.DB
	Dreams db.DreamRepository
	Pool   *workers.AnalysisPool
}

// Initialize wires all routes and middlewares.
// Public routes + authenticated routes + "validated" routes (Authorizer) + admin.
func Initialize(r *gin.Engine, cfg config.Configuration, deps Deps) {
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", controllers.Health(cfg))

	api := r.Group("/api")
	api.Use(db.SetDBtoContext(deps.DB))
	api.Use(db.SetDreamsToContext(deps.Dreams))
	api.Use(workers.SetPoolToContext(deps.Pool))

	// Public (no auth)
	api.POST("/users", Logger(), controllers.CreateUser)
	api.POST("/login", Logger(), controllers.Login)

	// Authenticated routes (token required)
	auth := api.Group("")
	auth.Use(controllers.AuthRequired())

	// Validated routes (token + active user)
	validated := auth.Group("")
	validated.Use(Authorizer())

	validated.GET("/me", Logger(), controllers.Me)

	// Dreams (owner)
	validated.POST("/dreams", Logger(), controllers.CreateDream)
	validated.GET("/dreams/me", Logger(), controllers.ListMyDreams)
	validated.GET("/dreams/:id", Logger(), controllers.GetDream)
	validated.POST("/dreams/:id/analyze", Logger(), controllers.AnalyzeDream)

	// Admin routes
	admin := validated.Group("/admin")
	admin.Use(Adminizer())

	admin.GET("/dreams", Logger(), controllers.ListDreamsByStatus)
	admin.POST("/dreams/:id/reanalyze", Logger(), controllers.ReanalyzeDream)

	log.Printf("Routes initialized")
}
