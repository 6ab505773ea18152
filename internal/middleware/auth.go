package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/CyberPidgi/rentiful/internal/config"
	"github.com/CyberPidgi/rentiful/internal/models"
)

// Context keys set once a caller is identified
const (
	ContextUserID = "user_id"
	ContextRole   = "user_role"
)

// Identity is the authenticated caller decoded from the bearer token
type Identity struct {
	ID   string
	Role string
}

func (i Identity) IsTenant() bool  { return i.Role == models.RoleTenant }
func (i Identity) IsManager() bool { return i.Role == models.RoleManager }

var errNoToken = errors.New("missing bearer token")

// TokenParser decodes identity tokens. With a secret the HS256 signature is
// verified; without one the token is trusted as verified upstream.
type TokenParser struct {
	secret    []byte
	roleClaim string
}

func NewTokenParser(cfg config.AuthConfig) *TokenParser {
	roleClaim := cfg.RoleClaim
	if roleClaim == "" {
		roleClaim = "custom:role"
	}
	return &TokenParser{secret: []byte(cfg.JWTSecret), roleClaim: roleClaim}
}

func (p *TokenParser) Parse(tokenString string) (Identity, error) {
	claims := jwt.MapClaims{}
	if len(p.secret) == 0 {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return Identity{}, err
		}
	} else {
		_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return p.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return Identity{}, err
		}
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return Identity{}, errors.New("token has no subject")
	}
	role, _ := claims[p.roleClaim].(string)
	return Identity{ID: sub, Role: strings.ToLower(role)}, nil
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errNoToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// RequireRole rejects requests without a valid token (401) or whose role is
// not in roles (403). An empty roles list accepts any authenticated caller.
func (p *TokenParser) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		id, err := p.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if !allowed(id.Role, roles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		setIdentity(c, id)
		c.Next()
	}
}

// Optional attaches the identity when a valid token is present and lets
// anonymous requests through. A malformed token is still rejected.
func (p *TokenParser) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if errors.Is(err, errNoToken) {
			c.Next()
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		id, err := p.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		setIdentity(c, id)
		c.Next()
	}
}

func allowed(role string, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func setIdentity(c *gin.Context, id Identity) {
	c.Set(ContextUserID, id.ID)
	c.Set(ContextRole, id.Role)
}

// CurrentIdentity returns the caller set by RequireRole or Optional
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	userID := c.GetString(ContextUserID)
	if userID == "" {
		return Identity{}, false
	}
	return Identity{ID: userID, Role: c.GetString(ContextRole)}, true
}
