package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

/************************************************
/**** MARK: DREAM STATUS ****/
/************************************************/
const DREAM_STATUS_CREATED = "created"
const DREAM_STATUS_PROCESSING = "processing"
const DREAM_STATUS_ANALYZED = "analyzed"
const DREAM_STATUS_ERROR = "error"

const DREAM_TEXT_MAX_LEN = 20000
const DREAM_DEFAULT_LANGUAGE = "en"
const DREAM_DEFAULT_TIMEZONE = "UTC"

// Dream representa um sonho enviado pelo usuário (texto e/ou áudio).
// Status, Analysis, AudioTranscript e UpdatedAt são escritos apenas pelo pipeline de análise.
type Dream struct {
	ID                   string      `gorm:"primary_key;type:varchar(36)" json:"id" firestore:"-"`
	OwnerID              int64       `gorm:"not null;index" json:"user_id" firestore:"user_id"`
	Timestamp            time.Time   `json:"timestamp" firestore:"timestamp"`
	Timezone             string      `gorm:"default:'UTC'" json:"timezone" firestore:"timezone"`
	TextContent          string      `gorm:"type:text" json:"text_content,omitempty" firestore:"text_content"`
	AudioURL             string      `gorm:"default:''" json:"audio_url,omitempty" firestore:"audio_url"`
	AudioDurationSeconds *float64    `json:"audio_duration_seconds,omitempty" firestore:"audio_duration_seconds"`
	AudioTranscript      string      `gorm:"type:text" json:"audio_transcript,omitempty" firestore:"audio_transcript"`
	Language             string      `gorm:"default:'en'" json:"language" firestore:"language"`
	Analysis             *Analysis   `gorm:"type:text" json:"analysis" firestore:"analysis"`
	SharePolicy          SharePolicy `gorm:"type:text" json:"share_policy" firestore:"share_policy"`
	Status               string      `gorm:"not null;default:'created';index" json:"status" firestore:"status"`
	CreatedAt            time.Time   `json:"created_at" firestore:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at" firestore:"updated_at"`
}

// SharePolicy guarda as permissões de compartilhamento do sonho.
type SharePolicy struct {
	Shareable      bool `json:"shareable" firestore:"shareable"`
	ForumAnonymous bool `json:"forum_anonymous" firestore:"forum_anonymous"`
	AllowResearch  bool `json:"allow_research" firestore:"allow_research"`
}

func (p SharePolicy) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *SharePolicy) Scan(src any) error {
	b, err := columnBytes(src)
	if err != nil || len(b) == 0 {
		*p = SharePolicy{}
		return err
	}
	return json.Unmarshal(b, p)
}

func (d Dream) MissingFields() string {
	if strings.TrimSpace(d.TextContent) == "" && strings.TrimSpace(d.AudioURL) == "" {
		return "text_content"
	}
	return ""
}

func (d Dream) TextTooLong() bool {
	return len([]rune(d.TextContent)) > DREAM_TEXT_MAX_LEN
}

// IsTerminal indica se o status é final (analyzed ou error).
func (d Dream) IsTerminal() bool {
	return d.Status == DREAM_STATUS_ANALYZED || d.Status == DREAM_STATUS_ERROR
}

// Touch atualiza UpdatedAt mantendo UpdatedAt >= CreatedAt.
func (d *Dream) Touch(now time.Time) {
	if now.Before(d.CreatedAt) {
		now = d.CreatedAt
	}
	d.UpdatedAt = now
}

func columnBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", src)
	}
}
