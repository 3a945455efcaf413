package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowartistery/atelier/pkg/router"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

func TestGroupMethodsAndMiddleware(t *testing.T) {
	r := router.New()

	var hits int
	counting := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			hits++
			next.ServeHTTP(w, req)
		})
	}

	admin := r.Group("/admin", counting)
	products := admin.Group("products")
	products.Put("/{id}", "admin.products.update", ok)
	products.Patch("/{id}/featured", "admin.products.featured", ok)
	products.Delete("/{id}", "admin.products.destroy", ok)

	for _, c := range []struct{ method, path string }{
		{http.MethodPut, "/admin/products/abc"},
		{http.MethodPatch, "/admin/products/abc/featured"},
		{http.MethodDelete, "/admin/products/abc"},
	} {
		rec := httptest.NewRecorder()
		r.Handler().ServeHTTP(rec, httptest.NewRequest(c.method, c.path, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code, "%s %s", c.method, c.path)
	}
	assert.Equal(t, 3, hits)
}

func TestURLAndRoutes(t *testing.T) {
	r := router.New()
	r.Get("/products/{slug}", "products.show", ok)
	r.Post("/enquiries", "enquiries.store", ok)
	r.Mount("/storage", http.NotFoundHandler())

	url, err := r.URL("products.show", map[string]string{"slug": "jiya-ring"})
	require.NoError(t, err)
	assert.Equal(t, "/products/jiya-ring", url)

	_, err = r.URL("products.show", nil)
	assert.Error(t, err)

	_, err = r.URL("missing", nil)
	assert.Error(t, err)

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, "/enquiries", routes[0].Path)
	assert.Equal(t, "enquiries.store", routes[0].Name)
	assert.Equal(t, "/storage/*", routes[2].Path)
}
