// Package auth issues and verifies the bearer tokens protecting the
// back-office routes. Customer-facing editor routes are anonymous; identity
// providers for staff single sign-on live outside this service.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

var (
	jwtSecret     []byte
	adminPassword string
)

// AppClaims represents the custom claims for the JWT.
type AppClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func InitAuth() {
	jwtSecret = []byte(os.Getenv("JWT_SECRET"))
	adminPassword = os.Getenv("ADMIN_PASSWORD")
	if len(jwtSecret) == 0 {
		logrus.Warn("JWT_SECRET is not set. Admin authentication will not work.")
	}
	if adminPassword == "" {
		logrus.Warn("ADMIN_PASSWORD is not set. Admin login is disabled.")
	}
}

// HandleLogin exchanges the back-office password for a signed token.
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	if adminPassword == "" || len(jwtSecret) == 0 {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "Admin authentication is not configured"})
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(body.Password), []byte(adminPassword)) != 1 {
		logrus.Warn("Rejected admin login attempt")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, map[string]string{"error": "Invalid credentials"})
		return
	}

	now := time.Now()
	claims := &AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(12 * time.Hour)),
		},
		Role: "admin",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	if err != nil {
		logrus.WithError(err).Error("Failed to sign admin token")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "Failed to issue token"})
		return
	}

	render.JSON(w, r, map[string]string{"token": signed})
}

// ParseJWT validates a token string and returns its claims.
func ParseJWT(tokenString string) (*AppClaims, error) {
	claims := &AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
