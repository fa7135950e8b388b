package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/scanlytic/scanlytic/app/dto"
	businessflow "github.com/scanlytic/scanlytic/business_flow"
	"github.com/scanlytic/scanlytic/utils"
)

type BillingHandlerInterface interface {
	PurchaseQuota(c fiber.Ctx) error
}

type BillingHandler struct {
	flow      businessflow.QRCodeFlow
	validator *validator.Validate
}

func NewBillingHandler(flow businessflow.QRCodeFlow) *BillingHandler {
	return &BillingHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *BillingHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *BillingHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// PurchaseQuota applies a quota add-on purchase
// @Summary Purchase quota
// @Description Raise the QR code quota ceiling by the purchased quantity
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body dto.PurchaseQuotaRequest true "Quantity to purchase"
// @Success 200 {object} dto.APIResponse{data=dto.PurchaseQuotaResponse} "Quota increased"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/billing/quota [post]
func (h *BillingHandler) PurchaseQuota(c fiber.Ctx) error {
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	var req dto.PurchaseQuotaRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.flow.PurchaseQuota(h.createRequestContext(c, "/api/v1/billing/quota"), customerID, &req, h.clientMetadata(c))
	if err != nil {
		if errors.Is(err, businessflow.ErrInvalidQuotaPurchaseQty) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Quantity must be positive", "INVALID_QUANTITY", nil)
		}
		log.Println("Quota purchase failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to purchase quota", "QUOTA_PURCHASE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *BillingHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))
	return metadata
}

func (h *BillingHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *BillingHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
