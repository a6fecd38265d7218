package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"

	"yuu/config"
)

// settings usados pelos handlers; preenchidos por Configure no main.
var conf = struct {
	JwtSecret    string
	TokenExpire  time.Duration
	UploadFolder string
}{
	JwtSecret:    "CHANGE_ME",
	TokenExpire:  24 * time.Hour,
	UploadFolder: "./uploads",
}

func Configure(c config.Configuration) {
	if c.Security.JwtSecret != "" {
		conf.JwtSecret = c.Security.JwtSecret
	}
	if c.Security.TokenExpireHours > 0 {
		conf.TokenExpire = time.Duration(c.Security.TokenExpireHours) * time.Hour
	}
	if c.UploadFolder != "" {
		conf.UploadFolder = c.UploadFolder
	}
}

func getJWTSecret() string {
	return conf.JwtSecret
}

func signHS256JWT(secret string, claims map[string]any) (string, error) {
	// Header
	header := map[string]any{"alg": "HS256", "typ": "JWT"}
	headB, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	// Payload
	payloadB, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	enc := base64.RawURLEncoding
	unsigned := enc.EncodeToString(headB) + "." + enc.EncodeToString(payloadB)

	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(unsigned))
	sig := enc.EncodeToString(h.Sum(nil))
	return unsigned + "." + sig, nil
}

// issueToken assina o token de acesso do usuário.
func issueToken(userID int64, email string, now time.Time) (string, error) {
	return signHS256JWT(getJWTSecret(), map[string]any{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(conf.TokenExpire).Unix(),
	})
}
