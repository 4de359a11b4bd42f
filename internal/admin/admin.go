// Package admin exposes the token-protected dashboard over the local
// visitor metrics. Credentials come from the environment; the access
// token is minted per process, so restarting the server invalidates
// every admin session.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/noirrs/v3/internal/metrics"
)

const sessionCookie = "admin_token"

type Admin struct {
	store    *metrics.Store
	username string
	password string
	token    string
}

// New sets up the admin surface. Empty credentials fall back to dev
// defaults, loudly, the way the rest of the config degrades.
func New(store *metrics.Store, username, password string) (*Admin, error) {
	if username == "" {
		username = "admin"
		log.Warn().Msg("admin: ADMIN_USERNAME not set, using default")
	}
	if password == "" {
		password = "admin123"
		log.Warn().Msg("admin: ADMIN_PASSWORD not set, using default")
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}

	return &Admin{
		store:    store,
		username: username,
		password: password,
		token:    hex.EncodeToString(raw),
	}, nil
}

// Register mounts the admin routes on the engine.
func (a *Admin) Register(r *gin.Engine) {
	r.GET("/admin/login", a.loginPage)
	r.POST("/admin/login", a.login)
	r.GET("/admin/logout", a.logout)

	group := r.Group("/admin")
	group.Use(a.authRequired())
	group.GET("/dashboard", a.dashboard)
	group.GET("/visitors", a.visitors)
	group.GET("/api/stats", a.statsJSON)
	group.GET("/export/stats", a.exportStats)
	group.POST("/privacy/cleanup", a.cleanup)
}

func (a *Admin) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *Admin) loginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "admin-login.html", gin.H{"title": "Admin Login"})
}

func (a *Admin) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	if !userOK || !passOK {
		log.Warn().Str("ip", a.store.HashIP(c.ClientIP())).Msg("admin: failed login attempt")
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{"error": "Invalid credentials"})
		return
	}

	c.SetCookie(sessionCookie, a.token, 3600*24, "/admin", "", false, true)
	log.Info().Str("ip", a.store.HashIP(c.ClientIP())).Msg("admin: login")
	c.Redirect(http.StatusFound, "/admin/dashboard")
}

func (a *Admin) logout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/admin", "", false, true)
	c.Redirect(http.StatusFound, "/admin/login")
}

func (a *Admin) dashboard(c *gin.Context) {
	stats, err := a.stats(c)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"error": "Failed to load statistics"})
		return
	}
	c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{"stats": stats})
}

func (a *Admin) visitors(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	rows, err := a.store.RecentVisitors(ctx, 200)
	if err != nil {
		log.Error().Err(err).Msg("admin: load visitors")
		c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"error": "Failed to load visitors"})
		return
	}
	c.HTML(http.StatusOK, "admin-visitors.html", gin.H{"visitors": rows})
}

func (a *Admin) statsJSON(c *gin.Context) {
	stats, err := a.stats(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *Admin) exportStats(c *gin.Context) {
	stats, err := a.stats(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", "attachment; filename=visitor-stats.json")
	c.JSON(http.StatusOK, stats)
}

func (a *Admin) cleanup(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		deleted, err := a.store.CleanupOld(ctx)
		if err != nil {
			log.Error().Err(err).Msg("admin: retention cleanup failed")
			return
		}
		if deleted > 0 {
			log.Info().Int64("deleted", deleted).Msg("admin: retention cleanup")
		}
	}()
	c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup initiated"})
}

func (a *Admin) stats(c *gin.Context) (*metrics.Stats, error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	stats, err := a.store.Stats(ctx)
	if err != nil {
		log.Error().Err(err).Msg("admin: load stats")
	}
	return stats, err
}
