package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"obralink-backend/internal/config"
)

// ShareCookieMaxAge is the fixed lifetime of a granted share session. After
// expiry the visitor is back at the password prompt; there is no active
// invalidation.
const ShareCookieMaxAge = 3600

func ShareCookieName(token string) string {
	return "share_success_" + token
}

// SetShareCookie issues the access cookie for one share token. The value is a
// signed claim scoped to exactly that token, HTTP-only and Secure in
// production.
func SetShareCookie(c *gin.Context, cfg *config.Config, token string) error {
	claims := jwt.MapClaims{
		"sub": token,
		"exp": time.Now().Add(ShareCookieMaxAge * time.Second).Unix(),
	}
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.ShareCookieSecret))
	if err != nil {
		return fmt.Errorf("failed to sign share cookie: %w", err)
	}

	c.SetCookie(ShareCookieName(token), value, ShareCookieMaxAge, "/", "", cfg.IsProduction(), true)
	return nil
}

// HasShareAccess reports whether the request carries a valid, unexpired access
// cookie for this exact share token.
func HasShareAccess(c *gin.Context, cfg *config.Config, token string) bool {
	value, err := c.Cookie(ShareCookieName(token))
	if err != nil || value == "" {
		return false
	}

	parsed, err := jwt.Parse(value, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.ShareCookieSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	sub, _ := claims["sub"].(string)
	return sub == token
}
