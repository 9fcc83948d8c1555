package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"veloxhub/internal/apperr"
	"veloxhub/internal/models"
)

const ssoTokenTTL = 60 * time.Second

// SSO mints short-lived, single-use handoff tokens that satellite
// applications exchange for the user's identity. The token carries an
// HMAC over its own fields so tampering is detectable before any
// database lookup.
type SSO struct {
	db     *gorm.DB
	secret string
	log    zerolog.Logger
}

func NewSSO(db *gorm.DB, secret string, log zerolog.Logger) *SSO {
	return &SSO{db: db, secret: secret, log: log}
}

// SSOIdentity is what a satellite app learns about the user.
type SSOIdentity struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Image  string `json:"image,omitempty"`
}

// Mint issues a token for userID. Format: id.expiry.signature.
func (s *SSO) Mint(ctx context.Context, userID int64) (string, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.Unauthed("user not found")
		}
		return "", apperr.Wrap(err, "loading user")
	}

	id := uuid.NewString()
	expiresAt := time.Now().Add(ssoTokenTTL)
	token := fmt.Sprintf("%s.%d.%s", id, expiresAt.Unix(), s.sign(id, userID, expiresAt.Unix()))

	row := models.SSOToken{UserID: userID, Token: token, ExpiresAt: expiresAt}
	if err := db.Create(&row).Error; err != nil {
		return "", apperr.Wrap(err, "storing sso token")
	}
	return token, nil
}

// Validate checks a token's expiry, signature, and stored row, then
// burns it. A token validates at most once.
func (s *SSO) Validate(ctx context.Context, token string) (*SSOIdentity, error) {
	db := s.db.WithContext(ctx)

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, apperr.Unauthed("invalid token")
	}
	var expiresUnix int64
	if _, err := fmt.Sscanf(parts[1], "%d", &expiresUnix); err != nil {
		return nil, apperr.Unauthed("invalid token")
	}
	if time.Now().Unix() > expiresUnix {
		return nil, apperr.Unauthed("token expired")
	}

	var row models.SSOToken
	err := db.Where("token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthed("invalid token")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "loading sso token")
	}

	want := s.sign(parts[0], row.UserID, expiresUnix)
	if !hmac.Equal([]byte(want), []byte(parts[2])) {
		return nil, apperr.Unauthed("invalid token")
	}

	// Burn before returning; a replay must not validate.
	if err := db.Delete(&models.SSOToken{}, row.ID).Error; err != nil {
		return nil, apperr.Wrap(err, "consuming sso token")
	}

	var user models.User
	if err := db.First(&user, row.UserID).Error; err != nil {
		return nil, apperr.Unauthed("user not found")
	}
	return &SSOIdentity{UserID: user.ID, Email: user.Email, Name: user.Name, Image: user.Image}, nil
}

func (s *SSO) sign(id string, userID, expiresUnix int64) string {
	mac := hmac.New(sha256.New, []byte(s.secret))
	fmt.Fprintf(mac, "%s:%d:%d", id, userID, expiresUnix)
	return hex.EncodeToString(mac.Sum(nil))
}
