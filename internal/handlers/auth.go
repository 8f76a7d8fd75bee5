package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"backend/internal/models"
	"backend/internal/store"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Register(users *store.Users, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/register"
		defer handlePanic(c, route)

		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		user := &models.User{
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			PasswordHash: string(hash),
			Name:         strings.TrimSpace(req.Name),
			Phone:        strings.TrimSpace(req.Phone),
			Role:         "user",
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := users.Create(ctx, user); err != nil {
			log.Println("[AUTH] [ERROR] register failed:", err)
			respondWithError(c, http.StatusConflict, route, "email already registered")
			return
		}

		token, err := issueToken(user, jwtSecret, accessTTL)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		log.Println("[AUTH] [INFO] user registered:", user.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{
			"accessToken": token,
			"user": gin.H{
				"id":    user.ID.Hex(),
				"email": user.Email,
				"name":  user.Name,
			},
		})
	}
}

func Login(users *store.Users, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/login"
		defer handlePanic(c, route)

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
		if err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}

		token, err := issueToken(user, jwtSecret, accessTTL)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		log.Println("[AUTH] [INFO] user logged in:", user.ID.Hex())
		c.JSON(http.StatusOK, gin.H{
			"accessToken": token,
			"expiresIn":   int64(accessTTL.Seconds()),
		})
	}
}

func issueToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": user.ID.Hex(),
		"role":   user.Role,
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
