package handlers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/scanlytic/scanlytic/app/middleware"
	businessflow "github.com/scanlytic/scanlytic/business_flow"
	"github.com/scanlytic/scanlytic/config"
	"github.com/scanlytic/scanlytic/utils"
)

// RedirectHandlerInterface defines the contract for the public scan endpoint
type RedirectHandlerInterface interface {
	Redirect(c fiber.Ctx) error
}

type RedirectHandler struct {
	flow businessflow.RedirectFlow
	cfg  *config.RedirectConfig
}

func NewRedirectHandler(flow businessflow.RedirectFlow, cfg *config.RedirectConfig) RedirectHandlerInterface {
	return &RedirectHandler{flow: flow, cfg: cfg}
}

// Redirect resolves a scanned short code and redirects the visitor
// @Summary Resolve QR code scan
// @Description Resolve a short code, track the scan, and redirect to the destination
// @Tags Redirect
// @Param code path string true "QR short code"
// @Success 302 {string} string "Redirect"
// @Router /r/{code} [get]
func (h *RedirectHandler) Redirect(c fiber.Ctx) error {
	shortCode := c.Params("code")

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetReferrer(c.Get("Referer"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result := h.flow.Resolve(h.createRequestContext(c, "/r/"+shortCode), shortCode, metadata)

	middleware.RecordRedirectOutcome(result.Outcome)

	// Every outcome is a 302, never a JSON error.
	c.Redirect().Status(fiber.StatusFound).To(h.location(result))
	return nil
}

func (h *RedirectHandler) location(result *businessflow.RedirectResult) string {
	switch result.Outcome {
	case businessflow.RedirectOutcomeOK:
		return result.DestinationURL
	case businessflow.RedirectOutcomePassword:
		return fmt.Sprintf("%s%s?code=%s", h.cfg.HomeURL, h.cfg.ProtectedPath, url.QueryEscape(result.ShortCode))
	default:
		return fmt.Sprintf("%s/?error=%s", h.cfg.HomeURL, result.Outcome)
	}
}

func (h *RedirectHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func (h *RedirectHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
