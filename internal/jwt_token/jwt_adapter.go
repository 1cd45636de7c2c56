package jwttoken

import (
	authmw "arbor/pkg/platform/middleware/auth"
	"arbor/pkg/platform/strings"
)

// JWTServiceAdapter lets the auth middleware validate tokens without
// depending on the claim layout.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

// ValidateToken returns the subject as principal. Roles are trimmed and
// deduplicated so "coordinator" matches however the issuer spelled the list.
func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{
		Principal: claims.Subject,
		Roles:     strings.DedupeAndTrim(claims.Roles),
		JTI:       claims.ID,
	}, nil
}
