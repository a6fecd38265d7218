package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	AI_PROVIDER_OPENAI = "openai"
	AI_PROVIDER_VERTEX = "vertex"
	AI_PROVIDER_MOCK   = "mock"

	STORE_GORM      = "gorm"
	STORE_FIRESTORE = "firestore"
)

type Configuration struct {
	ApiPort string `json:"api_port" yaml:"api_port"`
	LogPath string `json:"log_path" yaml:"log_path"`

	Database string `json:"database" yaml:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host" yaml:"db_host"`
	DbPort   string `json:"db_port" yaml:"db_port"`
	DbUser   string `json:"db_user" yaml:"db_user"`
	DbName   string `json:"db_name" yaml:"db_name"`
	DbPass   string `json:"db_pass" yaml:"db_pass"`
	DbPath   string `json:"db_path" yaml:"db_path"`

	// Store escolhe onde ficam os dreams: "gorm" (mesmo banco dos usuários) ou "firestore".
	Store string `json:"store" yaml:"store"`

	Security struct {
		JwtSecret        string `json:"jwt_secret" yaml:"jwt_secret"`
		TokenExpireHours int    `json:"token_expire_hours" yaml:"token_expire_hours"`
	} `json:"security" yaml:"security"`

	AI struct {
		Provider        string   `json:"provider" yaml:"provider"`
		Model           string   `json:"model" yaml:"model"`
		OpenAIKey       string   `json:"openai_api_key" yaml:"openai_api_key"`
		GoogleProject   string   `json:"google_project" yaml:"google_project"`
		GoogleRegion    string   `json:"google_region" yaml:"google_region"`
		Temperature     float64  `json:"temperature" yaml:"temperature"`
		MaxOutputTokens int      `json:"max_output_tokens" yaml:"max_output_tokens"`
		SpeechLanguage  string   `json:"speech_language" yaml:"speech_language"`
		RemoteSchemes   []string `json:"remote_schemes" yaml:"remote_schemes"`
	} `json:"ai" yaml:"ai"`

	Workers struct {
		Size       int    `json:"size" yaml:"size"`
		QueueSize  int    `json:"queue_size" yaml:"queue_size"`
		RunTimeout string `json:"run_timeout" yaml:"run_timeout"` // ex: "5m"; vazio = sem prazo
	} `json:"workers" yaml:"workers"`

	UploadFolder string `json:"upload_folder" yaml:"upload_folder"`
}

// Get carrega a configuração ou encerra o processo (uso no main).
func Get(path string) Configuration {
	c, err := Load(path)
	if err != nil {
		log.Fatal(err)
	}
	return c
}

// Load lê o arquivo (JSON, ou YAML por extensão), aplica overrides de ambiente e defaults.
// Um path vazio usa apenas ambiente + defaults.
func Load(path string) (Configuration, error) {
	var c Configuration
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(b, &c)
		default:
			err = json.Unmarshal(b, &c)
		}
		if err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	c.applyEnv()
	c.applyDefaults()

	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

// RunTimeout devolve o prazo por execução do pipeline (0 = sem prazo).
func (c Configuration) RunTimeout() time.Duration {
	if strings.TrimSpace(c.Workers.RunTimeout) == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Workers.RunTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func (c *Configuration) applyEnv() {
	overrideString(&c.ApiPort, "PORT")
	overrideString(&c.Database, "DATABASE")
	overrideString(&c.DbHost, "DB_HOST")
	overrideString(&c.DbPort, "DB_PORT")
	overrideString(&c.DbUser, "DB_USER")
	overrideString(&c.DbName, "DB_NAME")
	overrideString(&c.DbPass, "DB_PASS")
	overrideString(&c.Store, "STORE_BACKEND")
	overrideString(&c.Security.JwtSecret, "JWT_SECRET")
	overrideString(&c.AI.Provider, "AI_PROVIDER")
	overrideString(&c.AI.Model, "AI_MODEL")
	overrideString(&c.AI.OpenAIKey, "OPENAI_API_KEY")
	overrideString(&c.AI.GoogleProject, "GOOGLE_PROJECT")
	overrideString(&c.AI.GoogleRegion, "GOOGLE_REGION")
	overrideString(&c.UploadFolder, "UPLOAD_FOLDER")

	// compatibilidade: USE_REAL_AI=false força o provider mock
	if v := strings.TrimSpace(os.Getenv("USE_REAL_AI")); v != "" {
		if real, err := strconv.ParseBool(v); err == nil && !real {
			c.AI.Provider = AI_PROVIDER_MOCK
		}
	}
}

func (c *Configuration) applyDefaults() {
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.DbPath == "" {
		c.DbPath = "db/database.db"
	}
	if c.Store == "" {
		c.Store = STORE_GORM
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = "CHANGE_ME"
	}
	if c.Security.TokenExpireHours <= 0 {
		c.Security.TokenExpireHours = 24 * 7
	}
	if c.AI.Provider == "" {
		c.AI.Provider = AI_PROVIDER_MOCK
	}
	if c.AI.Model == "" {
		switch c.AI.Provider {
		case AI_PROVIDER_OPENAI:
			c.AI.Model = "gpt-4.1-mini"
		case AI_PROVIDER_VERTEX:
			c.AI.Model = "gemini-2.5-flash-lite"
		default:
			c.AI.Model = "mock-analyzer"
		}
	}
	if c.AI.Temperature <= 0 {
		c.AI.Temperature = 0.1
	}
	if c.AI.MaxOutputTokens <= 0 {
		c.AI.MaxOutputTokens = 2048
	}
	if c.AI.SpeechLanguage == "" {
		c.AI.SpeechLanguage = "en-US"
	}
	if len(c.AI.RemoteSchemes) == 0 {
		c.AI.RemoteSchemes = []string{"gs://"}
	}
	if c.Workers.Size <= 0 {
		c.Workers.Size = 4
	}
	if c.Workers.QueueSize <= 0 {
		c.Workers.QueueSize = 100
	}
	if c.UploadFolder == "" {
		c.UploadFolder = "./uploads"
	}
}

func (c Configuration) validate() error {
	switch c.AI.Provider {
	case AI_PROVIDER_OPENAI:
		if c.AI.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case AI_PROVIDER_VERTEX:
		if c.AI.GoogleProject == "" || c.AI.GoogleRegion == "" {
			return fmt.Errorf("GOOGLE_PROJECT and GOOGLE_REGION are required for the vertex provider")
		}
	case AI_PROVIDER_MOCK:
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}

	switch c.Store {
	case STORE_GORM:
	case STORE_FIRESTORE:
		if c.AI.GoogleProject == "" {
			return fmt.Errorf("GOOGLE_PROJECT is required for the firestore store")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store)
	}

	if _, err := time.ParseDuration(c.Workers.RunTimeout); c.Workers.RunTimeout != "" && err != nil {
		return fmt.Errorf("invalid workers.run_timeout: %w", err)
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
