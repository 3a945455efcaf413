package controllers

import (
	"github.com/rainbowartistery/atelier/app/services"
	"github.com/rainbowartistery/atelier/pkg/ctx"
)

// ContentController serves testimonials and announcements.
type ContentController struct {
	content *services.ContentService
}

func NewContentController(content *services.ContentService) *ContentController {
	return &ContentController{content: content}
}

// Testimonials handles GET /testimonials?limit=.
func (cc *ContentController) Testimonials(c *ctx.Context) {
	list, err := cc.content.Testimonials(c.Context(), c.QueryInt("limit", services.TestimonialDefaultLimit))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.Success(map[string]any{"testimonials": list})
}

// Announcements handles GET /announcements.
func (cc *ContentController) Announcements(c *ctx.Context) {
	list, err := cc.content.Announcements(c.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.Success(map[string]any{"announcements": list})
}
