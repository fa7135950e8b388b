package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/scanlytic/scanlytic/app/dto"
	businessflow "github.com/scanlytic/scanlytic/business_flow"
	"github.com/scanlytic/scanlytic/utils"
)

// AnalyticsHandlerInterface defines the contract for dashboard analytics handlers
type AnalyticsHandlerInterface interface {
	Overview(c fiber.Ctx) error
	ExportScans(c fiber.Ctx) error
}

type AnalyticsHandler struct {
	flow businessflow.AnalyticsFlow
}

func NewAnalyticsHandler(flow businessflow.AnalyticsFlow) *AnalyticsHandler {
	return &AnalyticsHandler{flow: flow}
}

func (h *AnalyticsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AnalyticsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Overview returns aggregate scan statistics
// @Summary Analytics overview
// @Description Aggregate scan activity across all of the customer's QR codes
// @Tags Analytics
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.AnalyticsOverviewResponse} "Overview retrieved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/analytics/overview [get]
func (h *AnalyticsHandler) Overview(c fiber.Ctx) error {
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	result, err := h.flow.Overview(h.createRequestContext(c, "/api/v1/analytics/overview"), customerID)
	if err != nil {
		log.Println("Analytics overview failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load analytics", "ANALYTICS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Analytics retrieved successfully", result)
}

// ExportScans downloads a QR code's scan history as an Excel workbook
// @Summary Export scan history
// @Tags Analytics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param uuid path string true "QR code UUID"
// @Success 200 {string} binary "Excel workbook"
// @Failure 404 {object} dto.APIResponse "Not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qrcodes/{uuid}/scans/export [get]
func (h *AnalyticsHandler) ExportScans(c fiber.Ctx) error {
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	filename, content, err := h.flow.ExportScans(h.createRequestContext(c, "/api/v1/qrcodes/:uuid/scans/export"), customerID, c.Params("uuid"))
	if err != nil {
		if businessflow.IsQRCodeNotFound(err) || businessflow.IsQRCodeAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "QR code not found", "QR_NOT_FOUND", nil)
		}
		log.Println("Scan export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export scans", "SCAN_EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(content)
}

func (h *AnalyticsHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 60*time.Second)
}

func (h *AnalyticsHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
