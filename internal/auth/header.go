// Package auth parses credentials, issues and verifies JWTs, verifies
// third-party identity tokens and carries the caller's identity through
// request contexts.
package auth

import (
	"encoding/base64"
	"strings"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
)

const invalidFormat = "Invalid token format!"

// Credentials is an email/password pair taken from a Basic header.
type Credentials struct {
	Email    string
	Password string
}

// ParseBasicToken decodes "Basic base64(email:password)".
func ParseBasicToken(header string) (Credentials, error) {
	token, err := splitScheme(header, "basic")
	if err != nil {
		return Credentials{}, err
	}
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Credentials{}, apperr.BadRequest(invalidFormat)
	}
	parts := strings.Split(string(decoded), ":")
	if len(parts) != 2 {
		return Credentials{}, apperr.BadRequest(invalidFormat)
	}
	return Credentials{Email: parts[0], Password: parts[1]}, nil
}

// ParseBearerToken extracts the token from "Bearer <token>".
func ParseBearerToken(header string) (string, error) {
	return splitScheme(header, "bearer")
}

func splitScheme(header, want string) (string, error) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], want) {
		return "", apperr.BadRequest(invalidFormat)
	}
	return parts[1], nil
}
