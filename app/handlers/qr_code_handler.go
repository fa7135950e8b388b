package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/scanlytic/scanlytic/app/dto"
	"github.com/scanlytic/scanlytic/app/services"
	businessflow "github.com/scanlytic/scanlytic/business_flow"
	"github.com/scanlytic/scanlytic/utils"
)

// QRCodeHandlerInterface defines the contract for QR code management handlers
type QRCodeHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	DownloadImage(c fiber.Ctx) error
}

// QRCodeHandler handles QR code CRUD and image download requests
type QRCodeHandler struct {
	flow      businessflow.QRCodeFlow
	renderer  services.QRRenderer
	validator *validator.Validate
}

// NewQRCodeHandler creates a new QR code handler
func NewQRCodeHandler(flow businessflow.QRCodeFlow, renderer services.QRRenderer) *QRCodeHandler {
	return &QRCodeHandler{
		flow:      flow,
		renderer:  renderer,
		validator: validator.New(),
	}
}

func (h *QRCodeHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *QRCodeHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Create issues a new QR code
// @Summary Create QR code
// @Description Create a dynamic QR code against the customer's quota
// @Tags QRCodes
// @Accept json
// @Produce json
// @Param request body dto.CreateQRCodeRequest true "QR code definition"
// @Success 201 {object} dto.APIResponse{data=dto.CreateQRCodeResponse} "QR code created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Quota exceeded"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qrcodes [post]
func (h *QRCodeHandler) Create(c fiber.Ctx) error {
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	var req dto.CreateQRCodeRequest
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

	result, err := h.flow.Create(h.createRequestContext(c, "/api/v1/qrcodes"), customerID, &req, h.clientMetadata(c))
	if err != nil {
		if businessflow.IsQuotaExceeded(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "QR code quota exceeded, upgrade your plan or purchase more slots", "QUOTA_EXCEEDED", nil)
		}
		if code, msg, ok := contentValidationError(err); ok {
			return h.ErrorResponse(c, fiber.StatusBadRequest, msg, code, nil)
		}
		log.Println("QR code creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create QR code", "QR_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "QR code created successfully", result)
}

// List returns the customer's QR codes
// @Summary List QR codes
// @Description List the customer's QR codes with lock flags and quota state
// @Tags QRCodes
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.APIResponse{data=dto.ListQRCodesResponse} "QR codes retrieved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qrcodes [get]
func (h *QRCodeHandler) List(c fiber.Ctx) error {
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	limit, _ := strconv.Atoi(c.Query("limit", "0"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	result, err := h.flow.List(h.createRequestContext(c, "/api/v1/qrcodes"), customerID, limit, offset)
	if err != nil {
		log.Println("QR code listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list QR codes", "QR_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "QR codes retrieved successfully", result)
}

// Get returns a single QR code
// @Summary Get QR code
// @Tags QRCodes
// @Produce json
// @Param uuid path string true "QR code UUID"
// @Success 200 {object} dto.APIResponse{data=dto.QRCodeDTO} "QR code retrieved"
// @Failure 404 {object} dto.APIResponse "Not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qrcodes/{uuid} [get]
func (h *QRCodeHandler) Get(c fiber.Ctx) error {
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	result, err := h.flow.Get(h.createRequestContext(c, "/api/v1/qrcodes/:uuid"), customerID, c.Params("uuid"))
	if err != nil {
		return h.qrNotFoundOr500(c, err, "Failed to get QR code", "QR_GET_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "QR code retrieved successfully", result)
}

// Update applies partial changes to a QR code
// @Summary Update QR code
// @Description Update destination, customization, or lifecycle fields; the short code never changes
// @Tags QRCodes
// @Accept json
// @Produce json
// @Param uuid path string true "QR code UUID"
// @Param request body dto.UpdateQRCodeRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.QRCodeDTO} "QR code updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qrcodes/{uuid} [put]
func (h *QRCodeHandler) Update(c fiber.Ctx) error {
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	var req dto.UpdateQRCodeRequest
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

	result, err := h.flow.Update(h.createRequestContext(c, "/api/v1/qrcodes/:uuid"), customerID, c.Params("uuid"), &req, h.clientMetadata(c))
	if err != nil {
		if code, msg, ok := contentValidationError(err); ok {
			return h.ErrorResponse(c, fiber.StatusBadRequest, msg, code, nil)
		}
		return h.qrNotFoundOr500(c, err, "Failed to update QR code", "QR_UPDATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "QR code updated successfully", result)
}

// Delete removes a QR code and its scan history
// @Summary Delete QR code
// @Tags QRCodes
// @Produce json
// @Param uuid path string true "QR code UUID"
// @Success 200 {object} dto.APIResponse "QR code deleted"
// @Failure 404 {object} dto.APIResponse "Not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qrcodes/{uuid} [delete]
func (h *QRCodeHandler) Delete(c fiber.Ctx) error {
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	err := h.flow.Delete(h.createRequestContext(c, "/api/v1/qrcodes/:uuid"), customerID, c.Params("uuid"), h.clientMetadata(c))
	if err != nil {
		return h.qrNotFoundOr500(c, err, "Failed to delete QR code", "QR_DELETE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "QR code deleted successfully", nil)
}

// DownloadImage renders the QR code as a PNG
// @Summary Download QR code image
// @Description Render the QR code PNG encoding the public redirect URL
// @Tags QRCodes
// @Produce png
// @Param uuid path string true "QR code UUID"
// @Param size query int false "Image size in pixels (default 512)"
// @Success 200 {string} binary "PNG image"
// @Failure 404 {object} dto.APIResponse "Not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qrcodes/{uuid}/image [get]
func (h *QRCodeHandler) DownloadImage(c fiber.Ctx) error {
	customerID, ok := c.Locals("customer_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	size, _ := strconv.Atoi(c.Query("size", "512"))

	qrCode, err := h.flow.GetForImage(h.createRequestContext(c, "/api/v1/qrcodes/:uuid/image"), customerID, c.Params("uuid"))
	if err != nil {
		return h.qrNotFoundOr500(c, err, "Failed to get QR code", "QR_GET_FAILED")
	}

	png, err := h.renderer.RenderPNG(qrCode, size)
	if err != nil {
		log.Println("QR image rendering failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to render QR code image", "QR_RENDER_FAILED", nil)
	}

	c.Set("Content-Type", "image/png")
	c.Set("Content-Disposition", `attachment; filename="qr_`+qrCode.ShortCode+`.png"`)
	return c.Send(png)
}

func (h *QRCodeHandler) qrNotFoundOr500(c fiber.Ctx, err error, message, errorCode string) error {
	// Foreign codes answer 404, not 403: the API does not confirm that a
	// guessed UUID exists
	if businessflow.IsQRCodeNotFound(err) || businessflow.IsQRCodeAccessDenied(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "QR code not found", "QR_NOT_FOUND", nil)
	}
	log.Println(message, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, errorCode, nil)
}

// contentValidationError maps payload and customization sentinels to API
// error codes
func contentValidationError(err error) (code, message string, ok bool) {
	switch {
	case errors.Is(err, businessflow.ErrQRCodeNameRequired):
		return "NAME_REQUIRED", "QR code name is required", true
	case errors.Is(err, businessflow.ErrQRCodeContentRequired):
		return "CONTENT_REQUIRED", "QR code content is required", true
	case errors.Is(err, businessflow.ErrInvalidQRType):
		return "INVALID_QR_TYPE", "Invalid QR code type", true
	case errors.Is(err, businessflow.ErrInvalidDestinationURL):
		return "INVALID_URL", "Destination must be a valid http(s) URL", true
	case errors.Is(err, businessflow.ErrInvalidEmailAddress):
		return "INVALID_EMAIL", "Invalid email address", true
	case errors.Is(err, businessflow.ErrInvalidPhoneNumber):
		return "INVALID_PHONE", "Invalid phone number", true
	case errors.Is(err, businessflow.ErrInvalidErrorCorrection):
		return "INVALID_ERROR_CORRECTION", "Error correction must be L, M, Q, or H", true
	case errors.Is(err, businessflow.ErrInvalidStyle):
		return "INVALID_STYLE", "Invalid QR code style", true
	case errors.Is(err, businessflow.ErrWiFiSSIDRequired):
		return "WIFI_SSID_REQUIRED", "WiFi SSID is required", true
	case errors.Is(err, businessflow.ErrVCardFirstNameRequired):
		return "VCARD_FIRST_NAME_REQUIRED", "vCard first name is required", true
	case errors.Is(err, businessflow.ErrQRCodeUpdateRequired):
		return "EMPTY_UPDATE", "At least one field must be provided", true
	case errors.Is(err, businessflow.ErrShortCodeImmutable):
		return "SHORT_CODE_IMMUTABLE", "The short code cannot be changed", true
	default:
		return "", "", false
	}
}

func (h *QRCodeHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))
	return metadata
}

func (h *QRCodeHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *QRCodeHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
