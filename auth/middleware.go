package auth

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"mlboard/api/errs"
	"mlboard/models"
)

const (
	userKey    = "auth.user"
	projectKey = "auth.project_id"
)

// Authenticate resolves the bearer token to a user and stores it on the context.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.Error(errs.ErrUnauthorized)
			c.Abort()
			return
		}

		userID, err := ParseToken(secret, raw)
		if err != nil {
			log.Debug().Err(err).Msg("rejected token")
			c.Error(errs.ErrUnauthorized)
			c.Abort()
			return
		}

		var user models.User
		if err := models.DB.First(&user, userID).Error; err != nil {
			c.Error(errs.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Set(userKey, &user)
		c.Next()
	}
}

// RequireMembership parses :project_id and checks the caller belongs to it.
func RequireMembership() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("project_id"), 10, 64)
		if err != nil || projectID == 0 {
			c.Error(errs.ErrInvalidProjectID)
			c.Abort()
			return
		}

		user := CurrentUser(c)
		if user == nil {
			c.Error(errs.ErrUnauthorized)
			c.Abort()
			return
		}

		member, err := models.IsMember(user.ID, uint(projectID))
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		if !member {
			c.Error(errs.ErrNotProjectMember)
			c.Abort()
			return
		}
		c.Set(projectKey, uint(projectID))
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// ProjectID is only valid behind RequireMembership.
func ProjectID(c *gin.Context) uint {
	return c.GetUint(projectKey)
}
