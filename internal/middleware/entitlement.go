package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/logger"
	"github.com/JohanDJ0/restapi-gastos/internal/services"
)

// UpgradeURL is where blocked free users are sent.
const UpgradeURL = "/pricing"

// FreeLimit blocks free users who already reached the quota for feature.
// Premium users always pass.
func FreeLimit(subs services.SubscriptionServicer, feature services.Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		userID := c.GetString(UserIDKey)
		if !ok || userID == "" {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		ctx := c.Request.Context()
		premium, err := subs.HasPremium(ctx, identity.ExternalID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if premium {
			c.Next()
			return
		}

		check, err := subs.CheckLimit(ctx, userID, feature)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if !check.Allowed {
			logger.Get().Infow("free limit reached", "user_id", userID, "feature", feature, "current", check.Current)
			blocked := apperrors.WithDetails(apperrors.ErrLimitExceeded, map[string]any{
				"current":     check.Current,
				"limit":       check.Limit,
				"upgrade_url": UpgradeURL,
			})
			abortWithError(c, apperrors.WithMessage(blocked, check.Message))
			return
		}

		c.Next()
	}
}
