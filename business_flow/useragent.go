package businessflow

import (
	"strings"

	"github.com/scanlytic/scanlytic/models"
)

// DeviceInfo is the client classification derived from a user-agent string
type DeviceInfo struct {
	DeviceType string
	OS         string
	Browser    string
}

// tablet tokens take priority over mobile tokens: every tablet UA also
// matches at least one mobile token
var (
	tabletTokens = []string{"tablet", "ipad", "playbook", "silk"}
	mobileTokens = []string{"mobile", "iphone", "ipod", "android", "blackberry", "opera mini", "iemobile"}
)

// ClassifyUserAgent derives device type, OS, and browser from a raw
// user-agent string. The function is total: unrecognized input degrades to
// desktop/Unknown rather than erroring. The check order is significant -
// "mac" is a substring of iOS user agents and "chrome" of Edge ones.
func ClassifyUserAgent(userAgent string) DeviceInfo {
	ua := strings.ToLower(userAgent)

	return DeviceInfo{
		DeviceType: classifyDeviceType(ua),
		OS:         classifyOS(ua),
		Browser:    classifyBrowser(ua),
	}
}

func classifyDeviceType(ua string) string {
	for _, token := range tabletTokens {
		if strings.Contains(ua, token) {
			return models.DeviceTypeTablet
		}
	}
	for _, token := range mobileTokens {
		if strings.Contains(ua, token) {
			return models.DeviceTypeMobile
		}
	}
	return models.DeviceTypeDesktop
}

func classifyOS(ua string) string {
	switch {
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		return "iOS"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "mac"):
		return "macOS"
	case strings.Contains(ua, "linux"):
		return "Linux"
	default:
		return "Unknown"
	}
}

func classifyBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "chrome") && !strings.Contains(ua, "edg"):
		return "Chrome"
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome"):
		return "Safari"
	case strings.Contains(ua, "firefox"):
		return "Firefox"
	case strings.Contains(ua, "edg"):
		return "Edge"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr"):
		return "Opera"
	default:
		return "Unknown"
	}
}
