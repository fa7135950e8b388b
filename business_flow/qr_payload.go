package businessflow

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/scanlytic/scanlytic/app/dto"
	"github.com/scanlytic/scanlytic/models"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[+]?[\d\s\-()]+$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// BuildPayload converts typed QR content into the string that is actually
// encoded for the QR type: mailto:/tel:/sms: URIs, WIFI: network config,
// a version 3.0 vCard, or the raw url/text.
func BuildPayload(content *dto.QRContentDTO) (string, error) {
	if content == nil {
		return "", ErrQRCodeContentRequired
	}

	switch content.Type {
	case models.QRTypeURL:
		if !IsValidURL(content.URL) {
			return "", ErrInvalidDestinationURL
		}
		return content.URL, nil

	case models.QRTypeEmail:
		if !IsValidEmail(content.Email) {
			return "", ErrInvalidEmailAddress
		}
		payload := "mailto:" + content.Email
		var params []string
		if content.Subject != "" {
			params = append(params, "subject="+url.QueryEscape(content.Subject))
		}
		if content.Body != "" {
			params = append(params, "body="+url.QueryEscape(content.Body))
		}
		if len(params) > 0 {
			payload += "?" + strings.Join(params, "&")
		}
		return payload, nil

	case models.QRTypePhone:
		if !IsValidPhone(content.Phone) {
			return "", ErrInvalidPhoneNumber
		}
		return "tel:" + content.Phone, nil

	case models.QRTypeSMS:
		if !IsValidPhone(content.Phone) {
			return "", ErrInvalidPhoneNumber
		}
		payload := "sms:" + content.Phone
		if content.Message != "" {
			payload += "?body=" + url.QueryEscape(content.Message)
		}
		return payload, nil

	case models.QRTypeWiFi:
		if content.SSID == "" {
			return "", ErrWiFiSSIDRequired
		}
		encryption := content.Encryption
		if encryption == "" {
			encryption = "WPA"
		}
		var b strings.Builder
		fmt.Fprintf(&b, "WIFI:T:%s;S:%s;", encryption, content.SSID)
		if content.Password != "" {
			fmt.Fprintf(&b, "P:%s;", content.Password)
		}
		if content.Hidden {
			b.WriteString("H:true;")
		}
		b.WriteString(";")
		return b.String(), nil

	case models.QRTypeVCard:
		if content.FirstName == "" {
			return "", ErrVCardFirstNameRequired
		}
		lines := []string{
			"BEGIN:VCARD",
			"VERSION:3.0",
			fmt.Sprintf("N:%s;%s", content.LastName, content.FirstName),
		}
		fullName := content.FirstName
		if content.LastName != "" {
			fullName += " " + content.LastName
		}
		lines = append(lines, "FN:"+fullName)
		if content.Email != "" {
			lines = append(lines, "EMAIL:"+content.Email)
		}
		if content.Phone != "" {
			lines = append(lines, "TEL:"+content.Phone)
		}
		if content.Company != "" {
			lines = append(lines, "ORG:"+content.Company)
		}
		if content.Title != "" {
			lines = append(lines, "TITLE:"+content.Title)
		}
		if content.Website != "" {
			lines = append(lines, "URL:"+content.Website)
		}
		if content.Address != "" {
			lines = append(lines, "ADR:;;"+content.Address)
		}
		lines = append(lines, "END:VCARD")
		return strings.Join(lines, "\n"), nil

	case models.QRTypeText:
		if content.Text == "" {
			return "", ErrQRCodeContentRequired
		}
		return content.Text, nil

	default:
		return "", ErrInvalidQRType
	}
}

// IsValidURL reports whether the value parses as an absolute http(s) URL
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidEmail reports whether the value looks like an email address
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidPhone reports whether the value looks like a phone number with at
// least 10 digits
func IsValidPhone(phone string) bool {
	if !phonePattern.MatchString(phone) {
		return false
	}
	return len(nonDigits.ReplaceAllString(phone, "")) >= 10
}
