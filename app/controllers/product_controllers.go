package controllers

import (
	"github.com/rainbowartistery/atelier/app/services"
	"github.com/rainbowartistery/atelier/pkg/ctx"
)

// ProductController serves the public catalogue.
type ProductController struct {
	catalog *services.CatalogService
}

func NewProductController(catalog *services.CatalogService) *ProductController {
	return &ProductController{catalog: catalog}
}

// Index handles GET /products.
func (pc *ProductController) Index(c *ctx.Context) {
	page, err := pc.catalog.PublicList(c.Context(), listQuery(c))
	if err != nil {
		respondError(c, err, "Product not found")
		return
	}
	c.Success(page)
}

// Show handles GET /products/{slug}.
func (pc *ProductController) Show(c *ctx.Context) {
	detail, err := pc.catalog.Detail(c.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, "Product not found")
		return
	}
	c.Success(detail)
}

// Categories handles GET /categories.
func (pc *ProductController) Categories(c *ctx.Context) {
	categories, err := pc.catalog.Categories(c.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.Success(map[string]any{"categories": categories})
}

// listQuery reads the shared listing filter. Malformed numbers fall back to
// the defaults.
func listQuery(c *ctx.Context) services.ListQuery {
	q := services.ListQuery{
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 0),
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Tags:     services.ParseTags(c.Query("tags")),
	}
	if v, ok := c.QueryBool("isFeatured"); ok {
		q.IsFeatured = &v
	}
	if v, ok := c.QueryBool("isPublished"); ok {
		q.IsPublished = &v
	}
	return q
}
