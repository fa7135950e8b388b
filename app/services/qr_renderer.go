package services

import (
	"fmt"
	"image/color"

	"github.com/scanlytic/scanlytic/models"
	qrcode "github.com/skip2/go-qrcode"
)

// QRRenderer renders QR code PNGs for download.
// The encoded payload is always the public redirect URL, never the raw
// destination: that is what makes the printed code dynamic.
type QRRenderer interface {
	RenderPNG(qrCode *models.QRCode, size int) ([]byte, error)
}

type QRRendererImpl struct {
	publicBaseURL string
}

func NewQRRenderer(publicBaseURL string) QRRenderer {
	return &QRRendererImpl{publicBaseURL: publicBaseURL}
}

func (r *QRRendererImpl) RenderPNG(code *models.QRCode, size int) ([]byte, error) {
	if size <= 0 {
		size = 512
	}

	payload := fmt.Sprintf("%s/r/%s", r.publicBaseURL, code.ShortCode)

	qr, err := qrcode.New(payload, recoveryLevel(code.ErrorCorrection))
	if err != nil {
		return nil, fmt.Errorf("failed to build QR matrix: %w", err)
	}

	fg, err := parseHexColor(code.ColorFg)
	if err != nil {
		return nil, fmt.Errorf("invalid foreground color %q: %w", code.ColorFg, err)
	}
	bg, err := parseHexColor(code.ColorBg)
	if err != nil {
		return nil, fmt.Errorf("invalid background color %q: %w", code.ColorBg, err)
	}
	qr.ForegroundColor = fg
	qr.BackgroundColor = bg

	return qr.PNG(size)
}

func recoveryLevel(errorCorrection string) qrcode.RecoveryLevel {
	switch errorCorrection {
	case "L":
		return qrcode.Low
	case "Q":
		return qrcode.High
	case "H":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

func parseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("expected #RRGGBB")
	}
	_, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B)
	if err != nil {
		return c, err
	}
	return c, nil
}
