package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"yuu/config"
	"yuu/controllers"
	"yuu/db"
	"yuu/pipeline"
	"yuu/router"
	"yuu/tools"
	"yuu/workers"

	"github.com/gin-gonic/gin"
)

// =====================
// ENV principais
// =====================
//
// - CONFIG_PATH        (config.json ou config.yaml; vazio = só env + defaults)
// - PORT, DATABASE, DB_HOST, DB_PORT, DB_USER, DB_NAME, DB_PASS
// - STORE_BACKEND      (gorm | firestore)
// - JWT_SECRET
// - AI_PROVIDER        (openai | vertex | mock), AI_MODEL, OPENAI_API_KEY
// - GOOGLE_PROJECT, GOOGLE_REGION
// - USE_REAL_AI=false  (força mock)
//
// =====================

func main() {
	conf := config.Get(getenv("CONFIG_PATH", ""))
	setupLog(conf.LogPath)

	ctx := context.Background()
	var closers []func() error

	database, err := db.Connect(conf)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	closers = append(closers, database.Close)

	// Store dos dreams
	var dreams db.DreamRepository
	switch conf.Store {
	case config.STORE_FIRESTORE:
		fs, err := db.NewFirestoreDreamStore(ctx, conf.AI.GoogleProject)
		if err != nil {
			log.Fatalf("firestore: %v", err)
		}
		closers = append(closers, fs.Close)
		dreams = fs
	default:
		dreams = db.NewDreamStore(database)
	}

	// Adapters de IA
	var transcriber pipeline.Transcriber
	var analyzer pipeline.Analyzer
	switch conf.AI.Provider {
	case config.AI_PROVIDER_OPENAI:
		analyzer = tools.NewOpenAIAnalyzer(conf.AI.OpenAIKey, conf.AI.Model, conf.AI.Temperature, conf.AI.MaxOutputTokens)
	case config.AI_PROVIDER_VERTEX:
		va, err := tools.NewVertexAnalyzer(ctx, conf.AI.GoogleProject, conf.AI.GoogleRegion, conf.AI.Model, conf.AI.Temperature, conf.AI.MaxOutputTokens)
		if err != nil {
			log.Fatalf("vertex: %v", err)
		}
		analyzer = va
	default:
		analyzer = tools.NewMockAnalyzer()
	}
	if conf.AI.Provider == config.AI_PROVIDER_MOCK {
		transcriber = tools.MockTranscriber{}
	} else {
		st, err := tools.NewSpeechTranscriber(ctx, conf.AI.SpeechLanguage)
		if err != nil {
			// sem transcrição: sonhos só de áudio terminam em erro de transcrição
			log.Printf("speech: transcriber unavailable: %v", err)
		} else {
			closers = append(closers, st.Close)
			transcriber = st
		}
	}
	log.Printf("AI provider=%s model=%s store=%s", conf.AI.Provider, conf.AI.Model, conf.Store)

	resolver := pipeline.NewResolver(transcriber, conf.AI.RemoteSchemes)
	orchestrator := pipeline.NewOrchestrator(dreams, resolver, analyzer)
	pool := workers.NewAnalysisPool(orchestrator, resolver, conf.Workers.Size, conf.Workers.QueueSize, conf.RunTimeout())
	pool.Start()

	controllers.Configure(conf)

	r := gin.New()
	router.Initialize(r, conf, router.Deps{DB: database, Dreams: dreams, Pool: pool})

	srv := &http.Server{
		Addr:              ":" + conf.ApiPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Yuu listening on :%s", conf.ApiPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := pool.Stop(shutdownCtx); err != nil {
		log.Printf("analysis pool stop: %v", err)
	}
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
}

// setupLog duplica o log no arquivo de LogPath e no stdout.
func setupLog(path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("log: %v", err)
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("log: %v", err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stdout, f))
	gin.DefaultWriter = io.MultiWriter(os.Stdout, f)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
