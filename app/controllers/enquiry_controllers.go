package controllers

import (
	"github.com/rainbowartistery/atelier/app/services"
	"github.com/rainbowartistery/atelier/pkg/ctx"
)

// EnquiryController handles the contact form and the admin inbox.
type EnquiryController struct {
	enquiries *services.EnquiryService
}

func NewEnquiryController(enquiries *services.EnquiryService) *EnquiryController {
	return &EnquiryController{enquiries: enquiries}
}

// Store handles POST /enquiries.
func (ec *EnquiryController) Store(c *ctx.Context) {
	var in services.EnquiryInput
	if !c.DecodeJSON(&in) {
		return
	}
	e, err := ec.enquiries.Create(c.Context(), in)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.Created(map[string]any{"enquiry": e})
}

// Index handles GET /admin/enquiries?page=&limit=.
func (ec *EnquiryController) Index(c *ctx.Context) {
	page, err := ec.enquiries.Page(c.Context(), c.QueryInt("page", 1), c.QueryInt("limit", services.AdminDefaultLimit))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.Success(page)
}
