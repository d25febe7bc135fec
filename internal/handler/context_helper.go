package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/survey-api/internal/middleware"
	"github.com/noah-isme/survey-api/internal/models"
	appErrors "github.com/noah-isme/survey-api/pkg/errors"
	"github.com/noah-isme/survey-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext builds the caller identity handed to services. Anonymous callers
// get an actor with only request metadata.
func actorFromContext(c *gin.Context) models.Actor {
	actor := models.Actor{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	if claims := claimsFromContext(c); claims != nil {
		actor.UserID = claims.UserID
		actor.Username = claims.Username
	}
	return actor
}

// requireActor aborts with 401 when the request carries no valid token.
func requireActor(c *gin.Context) (models.Actor, bool) {
	actor := actorFromContext(c)
	if actor.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return actor, false
	}
	return actor, true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}
