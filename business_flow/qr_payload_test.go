package businessflow

import (
	"testing"

	"github.com/scanlytic/scanlytic/app/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPayloadURL(t *testing.T) {
	t.Run("PassesThroughValidURL", func(t *testing.T) {
		payload, err := BuildPayload(&dto.QRContentDTO{Type: "url", URL: "https://example.com/menu"})
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/menu", payload)
	})

	t.Run("RejectsSchemelessURL", func(t *testing.T) {
		_, err := BuildPayload(&dto.QRContentDTO{Type: "url", URL: "example.com"})
		assert.ErrorIs(t, err, ErrInvalidDestinationURL)
	})

	t.Run("RejectsNonHTTPScheme", func(t *testing.T) {
		_, err := BuildPayload(&dto.QRContentDTO{Type: "url", URL: "ftp://example.com/file"})
		assert.ErrorIs(t, err, ErrInvalidDestinationURL)
	})
}

func TestBuildPayloadEmail(t *testing.T) {
	t.Run("BareAddress", func(t *testing.T) {
		payload, err := BuildPayload(&dto.QRContentDTO{Type: "email", Email: "sales@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "mailto:sales@example.com", payload)
	})

	t.Run("SubjectAndBodyAreEscaped", func(t *testing.T) {
		payload, err := BuildPayload(&dto.QRContentDTO{
			Type:    "email",
			Email:   "sales@example.com",
			Subject: "Hello there",
			Body:    "A & B",
		})
		require.NoError(t, err)
		assert.Equal(t, "mailto:sales@example.com?subject=Hello+there&body=A+%26+B", payload)
	})

	t.Run("RejectsInvalidAddress", func(t *testing.T) {
		_, err := BuildPayload(&dto.QRContentDTO{Type: "email", Email: "not-an-email"})
		assert.ErrorIs(t, err, ErrInvalidEmailAddress)
	})
}

func TestBuildPayloadPhoneAndSMS(t *testing.T) {
	t.Run("Phone", func(t *testing.T) {
		payload, err := BuildPayload(&dto.QRContentDTO{Type: "phone", Phone: "+14155550123"})
		require.NoError(t, err)
		assert.Equal(t, "tel:+14155550123", payload)
	})

	t.Run("PhoneTooShort", func(t *testing.T) {
		_, err := BuildPayload(&dto.QRContentDTO{Type: "phone", Phone: "12345"})
		assert.ErrorIs(t, err, ErrInvalidPhoneNumber)
	})

	t.Run("SMSWithMessage", func(t *testing.T) {
		payload, err := BuildPayload(&dto.QRContentDTO{
			Type:    "sms",
			Phone:   "+14155550123",
			Message: "Check in now",
		})
		require.NoError(t, err)
		assert.Equal(t, "sms:+14155550123?body=Check+in+now", payload)
	})

	t.Run("SMSWithoutMessage", func(t *testing.T) {
		payload, err := BuildPayload(&dto.QRContentDTO{Type: "sms", Phone: "+14155550123"})
		require.NoError(t, err)
		assert.Equal(t, "sms:+14155550123", payload)
	})
}

func TestBuildPayloadWiFi(t *testing.T) {
	t.Run("FullConfig", func(t *testing.T) {
		payload, err := BuildPayload(&dto.QRContentDTO{
			Type:       "wifi",
			SSID:       "CafeGuest",
			Password:   "espresso",
			Encryption: "WPA",
			Hidden:     true,
		})
		require.NoError(t, err)
		assert.Equal(t, "WIFI:T:WPA;S:CafeGuest;P:espresso;H:true;;", payload)
	})

	t.Run("EncryptionDefaultsToWPA", func(t *testing.T) {
		payload, err := BuildPayload(&dto.QRContentDTO{Type: "wifi", SSID: "CafeGuest"})
		require.NoError(t, err)
		assert.Equal(t, "WIFI:T:WPA;S:CafeGuest;;", payload)
	})

	t.Run("RequiresSSID", func(t *testing.T) {
		_, err := BuildPayload(&dto.QRContentDTO{Type: "wifi"})
		assert.ErrorIs(t, err, ErrWiFiSSIDRequired)
	})
}

func TestBuildPayloadVCard(t *testing.T) {
	t.Run("FullCard", func(t *testing.T) {
		payload, err := BuildPayload(&dto.QRContentDTO{
			Type:      "vcard",
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Phone:     "+14155550123",
			Company:   "Analytical Engines",
			Title:     "Engineer",
			Website:   "https://example.com",
			Address:   "12 Byron St",
		})
		require.NoError(t, err)
		expected := "BEGIN:VCARD\n" +
			"VERSION:3.0\n" +
			"N:Lovelace;Ada\n" +
			"FN:Ada Lovelace\n" +
			"EMAIL:ada@example.com\n" +
			"TEL:+14155550123\n" +
			"ORG:Analytical Engines\n" +
			"TITLE:Engineer\n" +
			"URL:https://example.com\n" +
			"ADR:;;12 Byron St\n" +
			"END:VCARD"
		assert.Equal(t, expected, payload)
	})

	t.Run("FirstNameOnly", func(t *testing.T) {
		payload, err := BuildPayload(&dto.QRContentDTO{Type: "vcard", FirstName: "Ada"})
		require.NoError(t, err)
		assert.Equal(t, "BEGIN:VCARD\nVERSION:3.0\nN:;Ada\nFN:Ada\nEND:VCARD", payload)
	})

	t.Run("RequiresFirstName", func(t *testing.T) {
		_, err := BuildPayload(&dto.QRContentDTO{Type: "vcard", LastName: "Lovelace"})
		assert.ErrorIs(t, err, ErrVCardFirstNameRequired)
	})
}

func TestBuildPayloadTextAndErrors(t *testing.T) {
	t.Run("TextPassesThrough", func(t *testing.T) {
		payload, err := BuildPayload(&dto.QRContentDTO{Type: "text", Text: "table 7"})
		require.NoError(t, err)
		assert.Equal(t, "table 7", payload)
	})

	t.Run("EmptyTextRejected", func(t *testing.T) {
		_, err := BuildPayload(&dto.QRContentDTO{Type: "text"})
		assert.ErrorIs(t, err, ErrQRCodeContentRequired)
	})

	t.Run("NilContentRejected", func(t *testing.T) {
		_, err := BuildPayload(nil)
		assert.ErrorIs(t, err, ErrQRCodeContentRequired)
	})

	t.Run("UnknownTypeRejected", func(t *testing.T) {
		_, err := BuildPayload(&dto.QRContentDTO{Type: "geo"})
		assert.ErrorIs(t, err, ErrInvalidQRType)
	})
}
