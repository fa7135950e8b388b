package businessflow

import (
	"testing"

	"github.com/scanlytic/scanlytic/models"
	"github.com/stretchr/testify/assert"
)

func TestClassifyUserAgent(t *testing.T) {
	cases := []struct {
		name       string
		userAgent  string
		deviceType string
		os         string
		browser    string
	}{
		{
			name:       "iPhoneSafari",
			userAgent:  "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			deviceType: models.DeviceTypeMobile,
			os:         "iOS",
			browser:    "Safari",
		},
		{
			name:       "iPadTakesTabletPriority",
			userAgent:  "Mozilla/5.0 (iPad; CPU OS 16_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Mobile/15E148 Safari/604.1",
			deviceType: models.DeviceTypeTablet,
			os:         "iOS",
			browser:    "Safari",
		},
		{
			name:       "AndroidChrome",
			userAgent:  "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			deviceType: models.DeviceTypeMobile,
			os:         "Android",
			browser:    "Chrome",
		},
		{
			name:       "AndroidTablet",
			userAgent:  "Mozilla/5.0 (Linux; Android 13; SM-X710 Tablet) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
			deviceType: models.DeviceTypeTablet,
			os:         "Android",
			browser:    "Chrome",
		},
		{
			name:       "WindowsEdge",
			userAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
			deviceType: models.DeviceTypeDesktop,
			os:         "Windows",
			browser:    "Edge",
		},
		{
			name:       "MacFirefox",
			userAgent:  "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
			deviceType: models.DeviceTypeDesktop,
			os:         "macOS",
			browser:    "Firefox",
		},
		{
			name:       "LinuxChrome",
			userAgent:  "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			deviceType: models.DeviceTypeDesktop,
			os:         "Linux",
			browser:    "Chrome",
		},
		{
			name:       "OperaDesktop",
			userAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) OPR/106.0.0.0",
			deviceType: models.DeviceTypeDesktop,
			os:         "Windows",
			browser:    "Opera",
		},
		{
			name:       "EmptyDegradesToDesktopUnknown",
			userAgent:  "",
			deviceType: models.DeviceTypeDesktop,
			os:         "Unknown",
			browser:    "Unknown",
		},
		{
			name:       "GarbageDegradesToDesktopUnknown",
			userAgent:  "curl/8.4.0",
			deviceType: models.DeviceTypeDesktop,
			os:         "Unknown",
			browser:    "Unknown",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info := ClassifyUserAgent(tc.userAgent)
			assert.Equal(t, tc.deviceType, info.DeviceType)
			assert.Equal(t, tc.os, info.OS)
			assert.Equal(t, tc.browser, info.Browser)
		})
	}
}
