package middleware

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"obralink-backend/internal/config"
)

// UploadGrantTTL bounds how long a browser may hold an upload grant before
// starting the transfer.
const UploadGrantTTL = 15 * time.Minute

// NewUploadGrant mints the short-lived token a browser presents to Supabase
// Storage when it uploads directly, bypassing this server for the payload
// bytes. Supabase validates the signature against the project JWT secret.
func NewUploadGrant(cfg *config.Config, storagePath string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"role": "authenticated",
		"path": storagePath,
		"iat":  now.Unix(),
		"exp":  now.Add(UploadGrantTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SupabaseJWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign upload grant: %w", err)
	}
	return token, nil
}
