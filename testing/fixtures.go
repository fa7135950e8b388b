// Package testing provides test utilities and database setup for testing the QR code platform
package testing

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	mathrand "math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/scanlytic/scanlytic/models"
	"github.com/scanlytic/scanlytic/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestCustomer creates a free-tier test customer with the default quota
func (tf *TestFixtures) CreateTestCustomer() (*models.Customer, error) {
	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	randomDigits := fmt.Sprintf("%09d", mathrand.Intn(900000000)+100000000)

	customer := &models.Customer{
		UUID:               uuid.New(),
		Email:              fmt.Sprintf("jane.doe.%s@example.com", randomDigits),
		Name:               utils.ToPtr("Jane Doe"),
		PasswordHash:       string(hashedPassword),
		SubscriptionStatus: utils.SubscriptionFree,
		QRQuota:            utils.FreeTierQuota,
		QRUsed:             0,
		IsActive:           utils.ToPtr(true),
	}

	err = tf.DB.DB.Create(customer).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test customer: %w", err)
	}

	return customer, nil
}

// CreateTestQRCode creates a URL-type QR code owned by the given customer
func (tf *TestFixtures) CreateTestQRCode(customerID uint) (*models.QRCode, error) {
	shortCode, err := GenerateSecureToken(4)
	if err != nil {
		return nil, fmt.Errorf("failed to generate short code: %w", err)
	}

	qrCode := &models.QRCode{
		UUID:            uuid.New(),
		CustomerID:      customerID,
		Name:            "Test QR Code",
		ShortCode:       shortCode[:6],
		QRType:          models.QRTypeURL,
		DestinationURL:  "https://example.com/landing",
		ColorFg:         "#000000",
		ColorBg:         "#FFFFFF",
		Style:           models.QRStyleClassic,
		ErrorCorrection: "M",
		IsActive:        utils.ToPtr(true),
	}

	err = tf.DB.DB.Create(qrCode).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test QR code: %w", err)
	}

	return qrCode, nil
}

// CreateTestScan records a scan event for the given QR code
func (tf *TestFixtures) CreateTestScan(qrCodeID uint, deviceType string) (*models.QRScan, error) {
	scan := &models.QRScan{
		QRCodeID:           qrCodeID,
		IPAddress:          utils.ToPtr("203.0.113.10"),
		UserAgent:          utils.ToPtr("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"),
		DeviceType:         utils.ToPtr(deviceType),
		OS:                 utils.ToPtr("iOS"),
		Browser:            utils.ToPtr("Safari"),
		VisitorFingerprint: utils.ToPtr(fmt.Sprintf("fp-%d", mathrand.Intn(100000))),
		ScannedAt:          utils.UTCNow(),
	}

	err := tf.DB.DB.Create(scan).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test scan: %w", err)
	}

	return scan, nil
}

// CreateTestSession creates a test customer session
func (tf *TestFixtures) CreateTestSession(customerID uint) (*models.CustomerSession, error) {
	sessionToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure session token: %w", err)
	}

	refreshToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure refresh token: %w", err)
	}

	session := &models.CustomerSession{
		CustomerID:   customerID,
		SessionToken: sessionToken,
		RefreshToken: &refreshToken,
		IsActive:     utils.ToPtr(true),
		ExpiresAt:    time.Now().Add(utils.SessionTimeout),
	}

	err = tf.DB.DB.Create(session).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test session: %w", err)
	}

	return session, nil
}

func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
