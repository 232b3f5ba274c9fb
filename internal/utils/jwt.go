// internal/utils/jwt.go
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// InstanceClaims are the claims of a dashboard instance token. Every studio
// request carries one; the instance id scopes sessions, events, and all
// secured upstream calls.
type InstanceClaims struct {
	InstanceID string `json:"instanceId"`
	SiteID     string `json:"siteId,omitempty"`
	UserID     string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

var jwtSecret = []byte("your-secret-key-change-in-production")

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// GenerateInstanceToken issues a signed instance token. Production traffic
// carries platform-issued tokens; this is used by local tooling and tests.
func GenerateInstanceToken(instanceID, siteID, userID string, ttlHours int) (string, error) {
	claims := InstanceClaims{
		InstanceID: instanceID,
		SiteID:     siteID,
		UserID:     userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(ttlHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "photostudio",
			Subject:   instanceID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateInstanceToken(tokenString string) (*InstanceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &InstanceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*InstanceClaims); ok && token.Valid {
		if claims.InstanceID == "" {
			return nil, errors.New("token is missing an instance id")
		}
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
