package tools

import (
	"crypto/sha512"
	"encoding/hex"
)

func EncryptTextSHA512(text string) string {
	sum := sha512.Sum512([]byte(text))
	return hex.EncodeToString(sum[:])
}

// HashPassword aplica a mesma regra no cadastro e no login: sha512(email + ":" + sha512(senha)).
func HashPassword(email, password string) string {
	passwordEncode := EncryptTextSHA512(password)
	passwordEncode = email + ":" + passwordEncode
	return EncryptTextSHA512(passwordEncode)
}
