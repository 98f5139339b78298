// Package auth inspects the backend's access tokens on the client side.
// Signatures are not verified here; the backend remains the authority.
package auth

import (
	"strings"

	"github.com/dmitrijs2005/journeykeeper/internal/client/models"
	"github.com/dmitrijs2005/journeykeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the access token the client cares about.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// ParseSession builds a Session from an access token. Tokens that do not
// decode as JWTs are accepted as opaque tokens with no expiry.
func ParseSession(token, journeyID string) (models.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Session{}, common.ErrInvalidToken
	}

	s := models.Session{Token: token, JourneyID: journeyID}
	if strings.Count(token, ".") != 2 {
		return s, nil
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return s, nil
	}

	s.UserID = claims.Subject
	s.Email = claims.Email
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.UTC()
		s.ExpiresAt = &exp
	}
	return s, nil
}
