package controllers

import (
	"strings"

	"github.com/rainbowartistery/atelier/app/services"
	"github.com/rainbowartistery/atelier/pkg/ctx"
)

const productNotFound = "Product not found"

// AdminProductController serves the back-office product table.
type AdminProductController struct {
	catalog  *services.CatalogService
	products *services.ProductService
}

func NewAdminProductController(catalog *services.CatalogService, products *services.ProductService) *AdminProductController {
	return &AdminProductController{catalog: catalog, products: products}
}

// Index handles GET /admin/products.
func (ac *AdminProductController) Index(c *ctx.Context) {
	page, err := ac.catalog.AdminList(c.Context(), listQuery(c))
	if err != nil {
		respondError(c, err, productNotFound)
		return
	}
	c.Success(page)
}

// Store handles POST /admin/products.
func (ac *AdminProductController) Store(c *ctx.Context) {
	var in services.ProductInput
	if !c.DecodeJSON(&in) {
		return
	}
	p, err := ac.products.Create(c.Context(), in)
	if err != nil {
		respondError(c, err, productNotFound)
		return
	}
	c.Created(map[string]any{"product": p})
}

// Update handles PUT /admin/products/{id}.
func (ac *AdminProductController) Update(c *ctx.Context) {
	var patch services.ProductPatch
	if !c.DecodeJSON(&patch) {
		return
	}
	p, err := ac.products.Update(c.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err, productNotFound)
		return
	}
	c.Success(map[string]any{"product": p})
}

// ToggleFeatured handles PATCH /admin/products/{id}/featured.
func (ac *AdminProductController) ToggleFeatured(c *ctx.Context) {
	p, err := ac.products.ToggleFeatured(c.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, productNotFound)
		return
	}
	c.Success(map[string]any{"product": p})
}

// TogglePublished handles PATCH /admin/products/{id}/published.
func (ac *AdminProductController) TogglePublished(c *ctx.Context) {
	p, err := ac.products.TogglePublished(c.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, productNotFound)
		return
	}
	c.Success(map[string]any{"product": p})
}

// Destroy handles DELETE /admin/products/{id}.
func (ac *AdminProductController) Destroy(c *ctx.Context) {
	if err := ac.products.Delete(c.Context(), c.Param("id")); err != nil {
		respondError(c, err, productNotFound)
		return
	}
	c.Success(map[string]any{"success": true})
}

// SlugAvailable handles GET /admin/products/slug-available?slug=&excludeId=.
func (ac *AdminProductController) SlugAvailable(c *ctx.Context) {
	slug := strings.TrimSpace(c.Query("slug"))
	if slug == "" {
		c.ValidationError(map[string]string{"slug": "The slug field is required."})
		return
	}
	ok, err := ac.products.IsSlugUnique(c.Context(), slug, c.Query("excludeId"))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.Success(map[string]any{"slug": slug, "available": ok})
}
