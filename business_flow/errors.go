// Package businessflow contains the core business logic and use cases for the QR code platform
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Customer-related errors
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrEmailAlreadyExists = errors.New("email already exists")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// QR code lifecycle errors (redirect path)
	ErrQRCodeNotFound     = errors.New("qr code not found")
	ErrQRCodeInactive     = errors.New("qr code is inactive")
	ErrQRCodeExpired      = errors.New("qr code has expired")
	ErrQRCodeLimitReached = errors.New("qr code scan limit reached")

	// QR code dashboard errors
	ErrQRCodeAccessDenied       = errors.New("qr code access denied")
	ErrQRCodeNameRequired       = errors.New("qr code name is required")
	ErrQRCodeContentRequired    = errors.New("qr code content is required")
	ErrInvalidQRType            = errors.New("invalid qr type")
	ErrInvalidDestinationURL    = errors.New("invalid destination url")
	ErrInvalidEmailAddress      = errors.New("invalid email address")
	ErrInvalidPhoneNumber       = errors.New("invalid phone number")
	ErrInvalidErrorCorrection   = errors.New("invalid error correction level")
	ErrInvalidStyle             = errors.New("invalid style")
	ErrQRCodeUpdateRequired     = errors.New("at least one field must be provided for update")
	ErrShortCodeImmutable       = errors.New("short code cannot be changed")
	ErrWiFiSSIDRequired         = errors.New("wifi ssid is required")
	ErrVCardFirstNameRequired   = errors.New("vcard first name is required")
	ErrInvalidQuotaPurchaseQty  = errors.New("quota purchase quantity must be positive")

	// Quota errors
	ErrQuotaExceeded = errors.New("qr code quota exceeded")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsCustomerNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

func IsQRCodeNotFound(err error) bool {
	return errors.Is(err, ErrQRCodeNotFound)
}

func IsQRCodeAccessDenied(err error) bool {
	return errors.Is(err, ErrQRCodeAccessDenied)
}

func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

func IsValidationError(err error) bool {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code == "VALIDATION_ERROR"
	}
	return false
}
