package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veloxhub/internal/auth"
)

// Register creates an account and returns a session token.
func Register(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
			Name     string `json:"name"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, token, err := svc.Register(c.Request.Context(), in.Email, in.Password, in.Name)
		if err != nil {
			fail(c, err)
			return
		}

		c.SetCookie("token", token, 24*3600, "/", "", false, true)
		c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
	}
}

// Login authenticates credentials and returns a session token.
func Login(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, token, err := svc.Login(c.Request.Context(), in.Email, in.Password)
		if err != nil {
			fail(c, err)
			return
		}

		c.SetCookie("token", token, 24*3600, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
	}
}

// Logout clears the session cookie.
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie("token", "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}
