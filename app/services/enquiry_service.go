package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/app/repositories"
	"github.com/rainbowartistery/atelier/pkg/auth"
	"github.com/rainbowartistery/atelier/pkg/logger"
	"github.com/rainbowartistery/atelier/pkg/mail"
	"github.com/rainbowartistery/atelier/pkg/metrics"
	"github.com/rainbowartistery/atelier/pkg/reqid"
	"github.com/rainbowartistery/atelier/pkg/response"
	"github.com/rainbowartistery/atelier/pkg/validate"
	"github.com/rainbowartistery/atelier/pkg/workerpool"
)

// EnquiryInput is the body of a contact-form submission.
type EnquiryInput struct {
	Name        string  `json:"name"        validate:"required,min=2,max=80"`
	Email       string  `json:"email"       validate:"required,email,max=255"`
	Phone       string  `json:"phone"       validate:"required,min=7,max=20"`
	Message     string  `json:"message"     validate:"required,min=10,max=2000"`
	FileURL     *string `json:"fileUrl"     validate:"omitnil,httpurl"`
	ProductSlug *string `json:"productSlug" validate:"omitnil,slug"`
}

// EnquiryPage is one page of the admin inbox.
type EnquiryPage struct {
	Enquiries  []models.Enquiry    `json:"enquiries"`
	Pagination response.Pagination `json:"pagination"`
}

// EnquiryOptions configures the notification mail sent for each enquiry.
type EnquiryOptions struct {
	// NotifyTo receives a copy of every enquiry. Empty disables the mail.
	NotifyTo string
	Timeout  time.Duration
}

// EnquiryService stores enquiries and notifies the shop owner in the
// background.
type EnquiryService struct {
	enquiries *repositories.EnquiryRepository
	products  *repositories.ProductRepository
	gate      auth.Gate
	mailer    mail.Mailer
	pool      *workerpool.Pool
	opts      EnquiryOptions
}

func NewEnquiryService(enquiries *repositories.EnquiryRepository, products *repositories.ProductRepository, gate auth.Gate, mailer mail.Mailer, pool *workerpool.Pool, opts EnquiryOptions) *EnquiryService {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &EnquiryService{
		enquiries: enquiries,
		products:  products,
		gate:      gate,
		mailer:    mailer,
		pool:      pool,
		opts:      opts,
	}
}

// Create validates and stores an enquiry. A failed notification never
// fails the call.
func (s *EnquiryService) Create(ctx context.Context, in EnquiryInput) (*models.Enquiry, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Message = strings.TrimSpace(in.Message)
	in.FileURL = trimOptional(in.FileURL)
	in.ProductSlug = trimOptional(in.ProductSlug)

	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}

	if in.ProductSlug != nil {
		exists, err := s.products.SlugExists(ctx, *in.ProductSlug, "")
		if err != nil {
			return nil, fmt.Errorf("enquiries: product check: %w", err)
		}
		if !exists {
			return nil, invalid("productSlug", "The selected product is invalid.")
		}
	}

	e := &models.Enquiry{
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		Message:     in.Message,
		FileURL:     in.FileURL,
		ProductSlug: in.ProductSlug,
	}
	if err := s.enquiries.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("enquiries: create: %w", err)
	}

	s.notify(ctx, *e)
	return e, nil
}

// Page returns the inbox newest first.
func (s *EnquiryService) Page(ctx context.Context, page, limit int) (EnquiryPage, error) {
	if _, err := s.gate.RequireSession(ctx); err != nil {
		return EnquiryPage{}, err
	}
	q := ListQuery{Page: page, Limit: limit}.normalize(AdminDefaultLimit)

	list, total, err := s.enquiries.Page(ctx, (q.Page-1)*q.Limit, q.Limit)
	if err != nil {
		return EnquiryPage{}, err
	}
	return EnquiryPage{Enquiries: list, Pagination: response.NewPagination(q.Page, q.Limit, total)}, nil
}

// notify queues the owner mail on the worker pool. The job gets its own
// deadline since the request context ends with the response.
func (s *EnquiryService) notify(ctx context.Context, e models.Enquiry) {
	if s.opts.NotifyTo == "" || s.mailer == nil || s.pool == nil {
		return
	}
	log := logger.L.With("request_id", reqid.FromCtx(ctx), "enquiry_id", e.ID)

	body, err := mail.Render(enquiryMail, e)
	if err != nil {
		metrics.RecordMail("enquiry", "error")
		log.Error("enquiries: render notification", "error", err)
		return
	}
	msg := mail.Message{
		To:      []string{s.opts.NotifyTo},
		ReplyTo: e.Email,
		Subject: "New enquiry from " + e.Name,
		HTML:    body,
	}

	err = s.pool.Submit(func(pctx context.Context) {
		mctx, cancel := context.WithTimeout(pctx, s.opts.Timeout)
		defer cancel()
		if err := s.mailer.Send(mctx, msg); err != nil {
			metrics.RecordMail("enquiry", "error")
			log.Error("enquiries: send notification", "error", err)
			return
		}
		metrics.RecordMail("enquiry", "sent")
	})
	if err != nil {
		metrics.RecordMail("enquiry", "dropped")
		reason := "pool full"
		if errors.Is(err, workerpool.ErrPoolClosed) {
			reason = "pool closed"
		}
		log.Warn("enquiries: notification not queued", "reason", reason)
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
