package middleware

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/logger"
	"github.com/JohanDJ0/restapi-gastos/internal/services"
)

// Context keys set by the identity middlewares.
const (
	IdentityKey = "identity"
	UserIDKey   = "userID"
)

// IdentityClaims are the session-token claims the API reads.
type IdentityClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	jwt.RegisteredClaims
}

// TokenVerifier checks identity-provider session tokens.
type TokenVerifier struct {
	publicKey    *rsa.PublicKey
	secret       []byte
	issuerSuffix string
	audiences    []string
}

// NewTokenVerifier builds a verifier from a PEM RSA public key, falling back
// to an HMAC secret when no key is given.
func NewTokenVerifier(publicKeyPEM, secret, issuerSuffix string, audiences []string) (*TokenVerifier, error) {
	v := &TokenVerifier{issuerSuffix: issuerSuffix, audiences: audiences}
	switch {
	case publicKeyPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("invalid identity public key: %w", err)
		}
		v.publicKey = key
	case secret != "":
		v.secret = []byte(secret)
	default:
		return nil, errors.New("either CLERK_JWT_KEY or CLERK_SECRET_KEY is required")
	}
	return v, nil
}

func (v *TokenVerifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if v.publicKey != nil {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	}
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return v.secret, nil
}

// Verify parses tokenString and returns the identity it carries.
func (v *TokenVerifier) Verify(tokenString string) (services.Identity, error) {
	claims := &IdentityClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return services.Identity{}, apperrors.ErrTokenExpired
		}
		return services.Identity{}, apperrors.Wrap(apperrors.ErrInvalidToken, err)
	}

	if claims.Issuer == "" || !strings.Contains(claims.Issuer, v.issuerSuffix) {
		return services.Identity{}, apperrors.WithMessage(apperrors.ErrInvalidToken, "Invalid token issuer")
	}
	if !v.audienceAllowed(claims.Audience) {
		return services.Identity{}, apperrors.WithMessage(apperrors.ErrInvalidToken, "Invalid token audience")
	}

	externalID := claims.Subject
	if externalID == "" {
		externalID = claims.UserID
	}
	if externalID == "" {
		return services.Identity{}, apperrors.WithMessage(apperrors.ErrInvalidToken, "Token has no subject")
	}

	return services.Identity{
		ExternalID: externalID,
		Email:      claims.Email,
		FirstName:  claims.FirstName,
		LastName:   claims.LastName,
	}, nil
}

func (v *TokenVerifier) audienceAllowed(aud jwt.ClaimStrings) bool {
	for _, got := range aud {
		for _, want := range v.audiences {
			if got == want {
				return true
			}
		}
	}
	return false
}

// Auth verifies the bearer token and stores the identity in the context.
func Auth(verifier *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized,
				"Access token required. Please provide a valid session token in the Authorization header."))
			return
		}

		identity, err := verifier.Verify(parts[1])
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// MapUser resolves the verified identity to a local user id.
func MapUser(users services.UserServicer) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		userID, err := users.ResolveAccount(c.Request.Context(), identity)
		if err != nil {
			logger.Get().Errorw("user mapping failed", "clerk_user_id", identity.ExternalID, "error", err)
			abortWithError(c, apperrors.WithMessage(apperrors.ErrInternalServer, "Error processing user authentication"))
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// GetIdentity returns the identity set by Auth.
func GetIdentity(c *gin.Context) (services.Identity, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return services.Identity{}, false
	}
	identity, ok := v.(services.Identity)
	return identity, ok
}
