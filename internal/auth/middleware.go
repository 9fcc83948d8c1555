package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"veloxhub/internal/models"
)

// Claims is the JWT payload. Membership and role are never embedded;
// they are resolved from the database on every request.
type Claims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

const userKey = "auth.user"

// JWT validates a bearer token from the Authorization header or a
// "token" cookie and loads the user. Requests without a valid token
// are rejected with 401.
func JWT(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := userFromRequest(c, db, secret)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// OptionalJWT loads the user when a valid token is present and lets
// anonymous requests through untouched.
func OptionalJWT(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := userFromRequest(c, db, secret); ok {
			c.Set(userKey, user)
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous
// requests behind OptionalJWT.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

func userFromRequest(c *gin.Context, db *gorm.DB, secret string) (*models.User, bool) {
	tokenStr := c.GetHeader("Authorization")
	if tokenStr == "" {
		if cookie, err := c.Cookie("token"); err == nil {
			tokenStr = "Bearer " + cookie
		}
	}
	if tokenStr == "" {
		return nil, false
	}
	tokenStr = strings.TrimSpace(strings.TrimPrefix(tokenStr, "Bearer "))

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, false
	}

	var user models.User
	if err := db.First(&user, claims.UserID).Error; err != nil {
		return nil, false
	}
	return &user, true
}
