package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"veloxhub/internal/apperr"
	"veloxhub/internal/models"
	"veloxhub/internal/orgs"
)

const tokenTTL = 24 * time.Hour

// Service handles credential auth. Every registered user gets a
// personal INDIVIDUAL organization at signup.
type Service struct {
	db     *gorm.DB
	orgs   *orgs.Service
	secret string
	log    zerolog.Logger
}

func NewService(db *gorm.DB, orgSvc *orgs.Service, secret string, log zerolog.Logger) *Service {
	return &Service{db: db, orgs: orgSvc, secret: secret, log: log}
}

// Register creates a user with a bcrypt-hashed password and their
// personal organization, then returns a signed session token.
func (s *Service) Register(ctx context.Context, email, password, name string) (*models.User, string, error) {
	db := s.db.WithContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", apperr.Invalid("a valid email is required")
	}
	if len(password) < 8 {
		return nil, "", apperr.Invalid("password must be at least 8 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	var existing int64
	if err := db.Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&existing).Error; err != nil {
		return nil, "", apperr.Wrap(err, "checking email")
	}
	if existing > 0 {
		return nil, "", apperr.Invariant("email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperr.Wrap(err, "hashing password")
	}

	// The user row and the personal organization commit together; a
	// failure in either leaves no trace of the registration.
	user := models.User{Email: email, Name: name, AuthProvider: "local", PasswordHash: string(hash)}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return apperr.Wrap(err, "creating user")
		}
		_, err := s.orgs.CreateInTx(tx, user.ID, name, models.OrgIndividual)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("registration failed")
		return nil, "", err
	}

	token, err := s.mintToken(user)
	if err != nil {
		return nil, "", err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user registered")
	return &user, token, nil
}

// Login verifies credentials and returns a signed session token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	db := s.db.WithContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := db.Where("LOWER(email) = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", apperr.Unauthed("invalid email or password")
	}
	if err != nil {
		return nil, "", apperr.Wrap(err, "loading user")
	}
	if user.PasswordHash == "" {
		return nil, "", apperr.Unauthed("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperr.Unauthed("invalid email or password")
	}

	token, err := s.mintToken(user)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

func (s *Service) mintToken(user models.User) (string, error) {
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", apperr.Wrap(err, "signing token")
	}
	return signed, nil
}
