package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"devforge/backend/internal/service"
	"devforge/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const stateCookie = "oauth_state"

// OAuthConfig carries the provider credentials and redirect targets
type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GithubClientID     string
	GithubClientSecret string
	CallbackBaseURL    string
	FrontendURL        string
}

// OAuthHandler implements the Google and GitHub login flows
type OAuthHandler struct {
	users       *service.UserService
	google      *oauth2.Config
	github      *oauth2.Config
	logger      *logger.Logger
	frontendURL string
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(users *service.UserService, config OAuthConfig, logger *logger.Logger) *OAuthHandler {
	return &OAuthHandler{
		users: users,
		google: &oauth2.Config{
			ClientID:     config.GoogleClientID,
			ClientSecret: config.GoogleClientSecret,
			RedirectURL:  config.CallbackBaseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     endpoints.Google,
		},
		github: &oauth2.Config{
			ClientID:     config.GithubClientID,
			ClientSecret: config.GithubClientSecret,
			RedirectURL:  config.CallbackBaseURL + "/auth/github/callback",
			Scopes:       []string{"user:email"},
			Endpoint:     endpoints.GitHub,
		},
		logger:      logger,
		frontendURL: config.FrontendURL,
	}
}

// RegisterRoutes registers the OAuth routes (unauthenticated)
func (h *OAuthHandler) RegisterRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.GET("/google", h.redirect(h.google))
		auth.GET("/google/callback", h.googleCallback)
		auth.GET("/github", h.redirect(h.github))
		auth.GET("/github/callback", h.githubCallback)
	}
}

func (h *OAuthHandler) redirect(cfg *oauth2.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := uuid.New().String()
		c.SetCookie(stateCookie, state, 300, "/", "", false, true)
		c.Redirect(http.StatusFound, cfg.AuthCodeURL(state))
	}
}

func (h *OAuthHandler) exchange(c *gin.Context, cfg *oauth2.Config) (*oauth2.Token, bool) {
	state, err := c.Cookie(stateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
		return nil, false
	}

	token, err := cfg.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.logger.Error("OAuth code exchange failed", "error", err.Error())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "OAuth exchange failed"})
		return nil, false
	}

	return token, true
}

type googleProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *OAuthHandler) googleCallback(c *gin.Context) {
	token, ok := h.exchange(c, h.google)
	if !ok {
		return
	}

	var profile googleProfile
	if err := fetchJSON(c.Request.Context(), h.google, token, "https://www.googleapis.com/oauth2/v2/userinfo", &profile); err != nil {
		h.logger.Error("Failed to fetch Google profile", "error", err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch profile"})
		return
	}

	h.completeLogin(c, profile.Name, profile.Email, "google", profile.ID)
}

type githubProfile struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *OAuthHandler) githubCallback(c *gin.Context) {
	token, ok := h.exchange(c, h.github)
	if !ok {
		return
	}

	var profile githubProfile
	if err := fetchJSON(c.Request.Context(), h.github, token, "https://api.github.com/user", &profile); err != nil {
		h.logger.Error("Failed to fetch GitHub profile", "error", err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch profile"})
		return
	}

	// The public profile may hide the email; the emails endpoint lists the
	// verified primary.
	if profile.Email == "" {
		var emails []struct {
			Email   string `json:"email"`
			Primary bool   `json:"primary"`
		}
		if err := fetchJSON(c.Request.Context(), h.github, token, "https://api.github.com/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary {
					profile.Email = e.Email
					break
				}
			}
		}
	}
	if profile.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "GitHub account has no accessible email"})
		return
	}

	name := profile.Name
	if name == "" {
		name = profile.Login
	}

	h.completeLogin(c, name, profile.Email, "github", strconv.FormatInt(profile.ID, 10))
}

func (h *OAuthHandler) completeLogin(c *gin.Context, name, email, provider, providerID string) {
	user, token, err := h.users.FindOrCreateOAuthUser(c.Request.Context(), name, email, provider, providerID)
	if err != nil {
		h.logger.Error("OAuth login failed", "error", err.Error(), "provider", provider)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	redirect := fmt.Sprintf("%s/oauth-success?token=%s&id=%d&name=%s&email=%s",
		h.frontendURL,
		url.QueryEscape(token),
		user.ID,
		url.QueryEscape(user.Name),
		url.QueryEscape(user.Email),
	)
	c.Redirect(http.StatusFound, redirect)
}

func fetchJSON(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, endpoint string, out interface{}) error {
	client := cfg.Client(ctx, token)
	resp, err := client.Get(endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
