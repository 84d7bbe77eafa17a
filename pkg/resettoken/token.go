package resettoken

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes — длина токена в байтах до hex-кодирования.
const tokenBytes = 32

// Generate генерирует криптографически стойкий непрозрачный токен
// для сброса пароля (64 hex-символа).
func Generate() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
