// Package routes maps URLs to controller actions.
package routes

import (
	"time"

	"github.com/rainbowartistery/atelier/app/controllers"
	"github.com/rainbowartistery/atelier/pkg/auth"
	"github.com/rainbowartistery/atelier/pkg/ctx"
	"github.com/rainbowartistery/atelier/pkg/middleware"
	"github.com/rainbowartistery/atelier/pkg/router"
)

// Controllers is every controller the API routes to.
type Controllers struct {
	Products      *controllers.ProductController
	AdminProducts *controllers.AdminProductController
	Media         *controllers.MediaController
	Auth          *controllers.AuthController
	Content       *controllers.ContentController
	Enquiries     *controllers.EnquiryController

	// Gate guards the /admin group.
	Gate auth.Gate
}

func RegisterAPI(r *router.Router, c Controllers) {
	// Storefront
	r.Get("/products", "products.index", ctx.Wrap(c.Products.Index))
	r.Get("/products/{slug}", "products.show", ctx.Wrap(c.Products.Show))
	r.Get("/categories", "categories.index", ctx.Wrap(c.Products.Categories))
	r.Get("/testimonials", "testimonials.index", ctx.Wrap(c.Content.Testimonials))
	r.Get("/announcements", "announcements.index", ctx.Wrap(c.Content.Announcements))
	r.Post("/enquiries", "enquiries.store", ctx.Wrap(c.Enquiries.Store), middleware.RateLimit(10, time.Minute))

	// Sign-in
	a := r.Group("/auth")
	a.Post("/magic-link", "auth.magic-link", ctx.Wrap(c.Auth.RequestLink), middleware.RateLimit(5, time.Minute))
	a.Get("/verify", "auth.verify", ctx.Wrap(c.Auth.Verify))
	a.Get("/session", "auth.session", ctx.Wrap(c.Auth.Session))
	a.Post("/logout", "auth.logout", ctx.Wrap(c.Auth.Logout))

	// Back office. No handler runs, and no body is read, without a session.
	admin := r.Group("/admin", middleware.RequireAdmin(c.Gate))
	admin.Get("/products", "admin.products.index", ctx.Wrap(c.AdminProducts.Index))
	admin.Get("/products/slug-available", "admin.products.slug", ctx.Wrap(c.AdminProducts.SlugAvailable))
	admin.Post("/products", "admin.products.store", ctx.Wrap(c.AdminProducts.Store))
	admin.Put("/products/{id}", "admin.products.update", ctx.Wrap(c.AdminProducts.Update))
	admin.Patch("/products/{id}/featured", "admin.products.featured", ctx.Wrap(c.AdminProducts.ToggleFeatured))
	admin.Patch("/products/{id}/published", "admin.products.published", ctx.Wrap(c.AdminProducts.TogglePublished))
	admin.Delete("/products/{id}", "admin.products.destroy", ctx.Wrap(c.AdminProducts.Destroy))

	admin.Get("/media", "admin.media.index", ctx.Wrap(c.Media.Index))
	admin.Post("/media", "admin.media.store", ctx.Wrap(c.Media.Store))
	admin.Delete("/media", "admin.media.destroy", ctx.Wrap(c.Media.Destroy))

	admin.Get("/enquiries", "admin.enquiries.index", ctx.Wrap(c.Enquiries.Index))
}
