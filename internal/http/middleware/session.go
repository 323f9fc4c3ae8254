package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	SessionCookie = "registrar_session"
	sessionKey    = "sessionID"
	sessionTTL    = 24 * time.Hour
)

// signs a token embedding the session id in the "sub" claim.
func signSession(sessionID, secret string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   sessionID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(sessionTTL).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// verifies the token and returns the session id.
func parseSession(tokenString, secret string) (string, error) {
	var claims jwt.StandardClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid session token")
	}
	if claims.Subject == "" {
		return "", errors.New("invalid sub claim")
	}
	return claims.Subject, nil
}

// Session reads the signed session cookie, issuing a new session when the
// cookie is missing, expired or tampered with. The id is stored on the context.
func Session(secret string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sid string
		if raw, err := c.Cookie(SessionCookie); err == nil {
			if id, err := parseSession(raw, secret); err == nil {
				sid = id
			}
		}

		if sid == "" {
			sid = uuid.NewString()
			token, err := signSession(sid, secret, time.Now())
			if err != nil {
				log.Error().Err(err).Msg("failed to sign session cookie")
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, token, int(sessionTTL.Seconds()), "/", "", secure, true)
		}

		c.Set(sessionKey, sid)
		c.Next()
	}
}

// SessionID returns the id set by Session, or "" when the middleware did not run.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
