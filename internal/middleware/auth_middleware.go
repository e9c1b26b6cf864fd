package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"campusride/internal/utils"
	"campusride/pkg/logger"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

var errNoSubject = errors.New("token has no subject")

// Identity is what a verified bearer token tells us about the caller.
type Identity struct {
	UserID string
	Email  string
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// JWTVerifier accepts HS256 tokens issued by GenerateToken.
type JWTVerifier struct {
	secret string
	issuer string
}

func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: secret, issuer: issuer}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	claims, err := utils.ValidateToken(token, v.secret, v.issuer)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// FirebaseVerifier checks Firebase ID tokens with the Admin SDK.
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if decoded.UID == "" {
		return nil, errNoSubject
	}

	identity := &Identity{UserID: decoded.UID}
	if email, ok := decoded.Claims["email"].(string); ok {
		identity.Email = email
	}
	return identity, nil
}

// AuthRequired rejects requests without a valid bearer token and stores the
// caller's id on the gin and request contexts.
func AuthRequired(verifier TokenVerifier, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			utils.AbortWithError(c, http.StatusUnauthorized, utils.CodeUnauthorized, "Bearer token required")
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			log.WithError(err).WithField("path", c.FullPath()).Debug("Token rejected")
			utils.AbortWithError(c, http.StatusUnauthorized, utils.CodeUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextUserEmail, identity.Email)
		ctx := context.WithValue(c.Request.Context(), logger.ContextKeyUserID, identity.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// GetUserID returns the authenticated caller, or "" outside AuthRequired.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func GetUserEmail(c *gin.Context) string {
	return c.GetString(ContextUserEmail)
}

// QueryToken lets websocket clients, which cannot set headers, pass the
// bearer token as ?access_token=.
func QueryToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query("access_token"); token != "" {
				c.Request.Header.Set("Authorization", "Bearer "+token)
			}
		}
		c.Next()
	}
}
