package service

import "github.com/noah-isme/uni-registration-api/internal/models"

// Actor is the authenticated caller on whose behalf a workflow runs.
type Actor struct {
	ID   string
	Role models.UserRole
}

// ActorFromClaims builds an Actor from verified token claims.
func ActorFromClaims(claims *models.JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{ID: claims.UserID, Role: claims.Role}
}
