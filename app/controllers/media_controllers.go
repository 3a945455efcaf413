package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rainbowartistery/atelier/app/services"
	"github.com/rainbowartistery/atelier/pkg/bind"
	"github.com/rainbowartistery/atelier/pkg/ctx"
)

const mediaNotFound = "Media not found"

// MediaController manages the admin media library.
type MediaController struct {
	media *services.MediaService
}

func NewMediaController(media *services.MediaService) *MediaController {
	return &MediaController{media: media}
}

// Index handles GET /admin/media?prefix=&search=.
func (mc *MediaController) Index(c *ctx.Context) {
	objects, err := mc.media.List(c.Context(), c.Query("prefix"), c.Query("search"))
	if err != nil {
		respondError(c, err, mediaNotFound)
		return
	}
	c.Success(map[string]any{"media": objects})
}

// Store handles POST /admin/media (multipart field "file", optional "prefix").
func (mc *MediaController) Store(c *ctx.Context) {
	file, header, err := bind.File(c.R, "file", mc.media.MaxBytes())
	if err != nil {
		switch {
		case errors.Is(err, bind.ErrBodyTooLarge):
			c.ValidationError(map[string]string{
				"file": fmt.Sprintf("The file may not be greater than %d MB.", mc.media.MaxBytes()>>20),
			})
		case errors.Is(err, http.ErrMissingFile):
			c.ValidationError(map[string]string{"file": "The file field is required."})
		default:
			c.Error(http.StatusBadRequest, err.Error())
		}
		return
	}
	defer file.Close()

	obj, err := mc.media.Upload(c.Context(), services.UploadInput{
		Prefix:      c.R.FormValue("prefix"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondError(c, err, mediaNotFound)
		return
	}
	c.Created(map[string]any{"media": obj})
}

// Destroy handles DELETE /admin/media?key= (a key or a media URL).
func (mc *MediaController) Destroy(c *ctx.Context) {
	key := c.Query("key")
	if key == "" {
		c.ValidationError(map[string]string{"key": "The key field is required."})
		return
	}
	if err := mc.media.Delete(c.Context(), key); err != nil {
		respondError(c, err, mediaNotFound)
		return
	}
	c.Success(map[string]any{"success": true})
}
