package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	billingapp "github.com/sikka-software/Tanad-sub009/internal/application/billing"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/billing"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/logger"
	"github.com/sikka-software/Tanad-sub009/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Maximum webhook payload size; Stripe events are small
const maxWebhookPayloadSize = 65536

// BillingHandler serves the Stripe routes under /api/stripe
type BillingHandler struct {
	BaseHandler
	subscriptions *billingapp.SubscriptionService
	webhooks      *billingapp.StripeWebhookService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(subscriptions *billingapp.SubscriptionService, webhooks *billingapp.StripeWebhookService) *BillingHandler {
	return &BillingHandler{
		subscriptions: subscriptions,
		webhooks:      webhooks,
	}
}

// PriceRequest is the body of subscription create and change
type PriceRequest struct {
	PriceID string `json:"price_id"`
}

// RegisterRoutes registers the session routes on rg (/api/stripe)
func (h *BillingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/customer", h.EnsureCustomer)
	rg.POST("/subscription", h.Subscribe)
	rg.PUT("/subscription", h.ChangePlan)
	rg.DELETE("/subscription", h.Cancel)
	rg.GET("/prices", h.ListPrices)
	rg.GET("/prices/:id", h.GetPrice)
}

// RegisterWebhook registers the public webhook route on rg (/api/stripe)
func (h *BillingHandler) RegisterWebhook(rg *gin.RouterGroup) {
	rg.POST("/webhook", h.Webhook)
}

// EnsureCustomer handles POST /api/stripe/customer
func (h *BillingHandler) EnsureCustomer(c *gin.Context) {
	profile, ok := h.profile(c)
	if !ok {
		return
	}
	result, err := h.subscriptions.EnsureCustomer(c.Request.Context(), profile)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Created {
		h.Created(c, result)
		return
	}
	h.Success(c, result)
}

// Subscribe handles POST /api/stripe/subscription
func (h *BillingHandler) Subscribe(c *gin.Context) {
	profile, ok := h.profile(c)
	if !ok {
		return
	}
	var req PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	result, err := h.subscriptions.Subscribe(c.Request.Context(), profile, req.PriceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ChangePlan handles PUT /api/stripe/subscription
func (h *BillingHandler) ChangePlan(c *gin.Context) {
	profile, ok := h.profile(c)
	if !ok {
		return
	}
	var req PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	result, err := h.subscriptions.ChangePlan(c.Request.Context(), profile, req.PriceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Cancel handles DELETE /api/stripe/subscription?immediately=bool
func (h *BillingHandler) Cancel(c *gin.Context) {
	profile, ok := h.profile(c)
	if !ok {
		return
	}
	immediately := false
	if raw := c.Query("immediately"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.BadRequest(c, "immediately must be a boolean")
			return
		}
		immediately = v
	}
	result, err := h.subscriptions.Cancel(c.Request.Context(), profile, immediately)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListPrices handles GET /api/stripe/prices
func (h *BillingHandler) ListPrices(c *gin.Context) {
	prices, err := h.subscriptions.ListPrices(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, prices)
}

// GetPrice handles GET /api/stripe/prices/:id
func (h *BillingHandler) GetPrice(c *gin.Context) {
	price, err := h.subscriptions.GetPrice(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, price)
}

// Webhook handles POST /api/stripe/webhook. It is called by Stripe and
// authenticated by the Stripe-Signature header instead of a session.
// Failures answer 5xx so that Stripe retries the delivery.
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Payload too large")
		return
	}
	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidSignature, "Missing Stripe-Signature header")
		return
	}

	result, err := h.webhooks.HandleWebhook(c.Request.Context(), payload, signature)
	switch {
	case errors.Is(err, billing.ErrInvalidSignature):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidSignature, "Webhook signature verification failed")
		return
	case errors.Is(err, billing.ErrWebhookSecret):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Webhooks are not configured")
		return
	case err != nil:
		logger.L(c.Request.Context()).Error("Failed to process webhook", zap.Error(err))
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, internalErrorMessage)
		return
	}
	h.Success(c, result)
}
