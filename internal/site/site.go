// Package site renders the portfolio pages: the index with the default
// skills section inline, section fragments fetched on navigation, and
// the font-pairing trial page.
package site

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noirrs/v3/internal/event"
)

// Handlers serves the HTML surface of the portfolio.
type Handlers struct {
	loader *Loader
}

func NewHandlers(loader *Loader) *Handlers {
	return &Handlers{loader: loader}
}

// Index renders the full page with the default section inline.
func (h *Handlers) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"profile":         profile,
		"sections":        event.Sections(),
		"defaultSection":  event.DefaultSection,
		"skillCategories": skillCategories,
	})
}

// Section renders one section fragment. Unknown sections 404 with a
// small fragment rather than an error page so client-side navigation
// degrades quietly.
func (h *Handlers) Section(c *gin.Context) {
	name := c.Param("name")
	if !event.ValidSection(name) {
		c.HTML(http.StatusNotFound, "section-missing.html", gin.H{"section": name})
		return
	}

	payload := gin.H{
		"section": name,
		"label":   event.SectionLabel(name),
	}

	switch name {
	case "skills":
		payload["skillCategories"] = skillCategories
	case "education":
		payload["entries"] = educationEntries
	case "experience":
		payload["works"] = h.loader.Get(c.Request.Context()).Works
	case "projects":
		payload["projects"] = h.loader.Get(c.Request.Context()).Projects
	case "resume":
		payload["resumeURL"] = "/static/resume.pdf"
	}

	c.HTML(http.StatusOK, "section-"+name+".html", payload)
}

// TrialFonts renders the font-pairing playground.
func (h *Handlers) TrialFonts(c *gin.Context) {
	c.HTML(http.StatusOK, "trial-fonts.html", gin.H{
		"pairings": []gin.H{
			{"heading": "Sora", "body": "JetBrains Mono"},
			{"heading": "Inter", "body": "IBM Plex Mono"},
			{"heading": "Space Grotesk", "body": "Fira Code"},
		},
	})
}
