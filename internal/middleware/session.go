package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-report-api/internal/models"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
	"github.com/noah-isme/civic-report-api/pkg/response"
)

// ContextAdminKey is the gin context key storing session claims.
const ContextAdminKey = "currentAdmin"

// LoginPath is where unauthenticated page requests are sent.
const LoginPath = "/admin/login"

type sessionValidator interface {
	ValidateToken(token string) (*models.SessionClaims, error)
}

// Session protects admin routes. Page requests without a valid session are
// redirected to the login page with a next parameter; API calls and form
// posts get 401.
func Session(auth sessionValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := sessionClaims(c, auth, cookieName)
		if err != nil {
			if wantsRedirect(c.Request) {
				response.SeeOther(c, LoginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()),
					appErrors.Clone(appErrors.ErrUnauthorized, "Please log in to access this page."))
			} else {
				response.Error(c, err)
			}
			c.Abort()
			return
		}

		c.Set(ContextAdminKey, claims)
		c.Next()
	}
}

// OptionalSession attaches claims when a valid session is present but does not block.
func OptionalSession(auth sessionValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := sessionClaims(c, auth, cookieName); err == nil {
			c.Set(ContextAdminKey, claims)
		}
		c.Next()
	}
}

// CurrentAdmin returns the session claims attached by Session or OptionalSession.
func CurrentAdmin(c *gin.Context) (*models.SessionClaims, bool) {
	value, ok := c.Get(ContextAdminKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.SessionClaims)
	return claims, ok && claims != nil
}

func sessionClaims(c *gin.Context, auth sessionValidator, cookieName string) (*models.SessionClaims, error) {
	token, err := c.Cookie(cookieName)
	if err != nil || token == "" {
		token = bearerToken(c.GetHeader("Authorization"))
	}
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	return auth.ValidateToken(token)
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func wantsRedirect(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	return !strings.HasPrefix(r.URL.Path, "/api/")
}
