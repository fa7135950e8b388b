// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"
	"github.com/scanlytic/scanlytic/app/dto"
	"github.com/scanlytic/scanlytic/app/services"
	"github.com/scanlytic/scanlytic/models"
	"github.com/scanlytic/scanlytic/repository"
	"github.com/scanlytic/scanlytic/utils"
	"gorm.io/gorm"
)

// AuthFlow handles signup, login and session refresh
type AuthFlow interface {
	Signup(ctx context.Context, req *dto.SignupRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	GetProfile(ctx context.Context, customerID uint) (*dto.CustomerDTO, error)
}

// AuthFlowImpl implements the authentication business flow
type AuthFlowImpl struct {
	customerRepo repository.CustomerRepository
	sessionRepo  repository.CustomerSessionRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	db           *gorm.DB
}

// NewAuthFlow creates a new auth flow instance
func NewAuthFlow(
	customerRepo repository.CustomerRepository,
	sessionRepo repository.CustomerSessionRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	db *gorm.DB,
) AuthFlow {
	return &AuthFlowImpl{
		customerRepo: customerRepo,
		sessionRepo:  sessionRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		db:           db,
	}
}

// Signup registers a new customer on the free plan with the default quota.
func (f *AuthFlowImpl) Signup(ctx context.Context, req *dto.SignupRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !IsValidEmail(email) {
		return nil, ErrInvalidEmailAddress
	}

	existing, err := f.customerRepo.ByEmail(ctx, email)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewBusinessError("PASSWORD_HASH_FAILED", "Failed to hash password", err)
	}

	customer := &models.Customer{
		UUID:               uuid.New(),
		Email:              email,
		PasswordHash:       string(hash),
		SubscriptionStatus: utils.SubscriptionFree,
		QRQuota:            utils.FreeTierQuota,
		IsActive:           utils.ToPtr(true),
		CreatedAt:          utils.UTCNow(),
		UpdatedAt:          utils.UTCNow(),
	}
	if req.Name != "" {
		customer.Name = utils.ToPtr(req.Name)
	}

	var session *models.CustomerSession
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.customerRepo.Save(txCtx, customer); err != nil {
			return NewBusinessError("CUSTOMER_SAVE_FAILED", "Failed to save customer", err)
		}

		session, err = f.createSession(txCtx, customer.ID, metadata)
		if err != nil {
			return err
		}

		return f.createAuditLog(txCtx, &customer.ID, models.AuditActionSignupCompleted,
			fmt.Sprintf("Customer %s signed up", customer.Email), true, nil, metadata)
	})
	if err != nil {
		return nil, err
	}

	return f.authResponse(customer, session), nil
}

// Login authenticates a customer with email and password.
func (f *AuthFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	customer, err := f.customerRepo.ByEmail(ctx, email)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	if !utils.IsTrue(customer.IsActive) {
		return nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(req.Password)); err != nil {
		errMsg := "Login failed: incorrect password"
		_ = f.createAuditLog(ctx, &customer.ID, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)
		return nil, ErrIncorrectPassword
	}

	var session *models.CustomerSession
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		session, err = f.createSession(txCtx, customer.ID, metadata)
		if err != nil {
			return err
		}
		if err := f.customerRepo.UpdateLastLogin(txCtx, customer.ID, utils.UTCNow()); err != nil {
			return NewBusinessError("LAST_LOGIN_UPDATE_FAILED", "Failed to update last login", err)
		}
		return f.createAuditLog(txCtx, &customer.ID, models.AuditActionLoginSuccessful,
			fmt.Sprintf("Customer %s logged in", customer.Email), true, nil, metadata)
	})
	if err != nil {
		return nil, err
	}

	return f.authResponse(customer, session), nil
}

// RefreshToken rotates the token pair bound to an existing session.
// The old session row is expired and a new one created so refresh tokens
// are single use.
func (f *AuthFlowImpl) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	session, err := f.sessionRepo.ByRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("SESSION_LOOKUP_FAILED", "Failed to lookup session", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !session.IsUsable() {
		return nil, ErrSessionExpired
	}

	if _, err := f.tokenService.ValidateToken(req.RefreshToken); err != nil {
		return nil, ErrSessionExpired
	}

	customer, err := f.customerRepo.ByID(ctx, session.CustomerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	if !utils.IsTrue(customer.IsActive) {
		return nil, ErrAccountInactive
	}

	var newSession *models.CustomerSession
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.sessionRepo.ExpireSession(txCtx, session.ID); err != nil {
			return NewBusinessError("SESSION_EXPIRE_FAILED", "Failed to expire session", err)
		}
		newSession, err = f.createSession(txCtx, customer.ID, metadata)
		if err != nil {
			return err
		}
		return f.createAuditLog(txCtx, &customer.ID, models.AuditActionSessionCreated,
			"Session refreshed", true, nil, metadata)
	})
	if err != nil {
		return nil, err
	}

	return f.authResponse(customer, newSession), nil
}

// GetProfile returns the customer's account and quota state.
func (f *AuthFlowImpl) GetProfile(ctx context.Context, customerID uint) (*dto.CustomerDTO, error) {
	customer, err := f.customerRepo.ByID(ctx, customerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	out := ToCustomerDTO(customer)
	return &out, nil
}

func (f *AuthFlowImpl) createSession(ctx context.Context, customerID uint, metadata *ClientMetadata) (*models.CustomerSession, error) {
	accessToken, refreshToken, err := f.tokenService.GenerateTokens(customerID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	session := &models.CustomerSession{
		CustomerID:     customerID,
		SessionToken:   accessToken,
		RefreshToken:   &refreshToken,
		ExpiresAt:      utils.UTCNowAdd(utils.SessionTimeout),
		IsActive:       utils.ToPtr(true),
		CreatedAt:      utils.UTCNow(),
		LastAccessedAt: utils.UTCNow(),
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			session.IPAddress = utils.ToPtr(metadata.IPAddress)
		}
		if metadata.UserAgent != "" {
			session.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
	}

	if err := f.sessionRepo.Save(ctx, session); err != nil {
		return nil, NewBusinessError("SESSION_SAVE_FAILED", "Failed to save session", err)
	}
	return session, nil
}

func (f *AuthFlowImpl) authResponse(customer *models.Customer, session *models.CustomerSession) *dto.AuthResponse {
	refreshToken := ""
	if session.RefreshToken != nil {
		refreshToken = *session.RefreshToken
	}
	return &dto.AuthResponse{
		Customer:     ToCustomerDTO(customer),
		AccessToken:  session.SessionToken,
		RefreshToken: refreshToken,
		ExpiresAt:    session.ExpiresAt.Format(time.RFC3339),
	}
}

func (f *AuthFlowImpl) createAuditLog(ctx context.Context, customerID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	audit := &models.AuditLog{
		CustomerID:   customerID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		ErrorMessage: errorMsg,
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			audit.IPAddress = utils.ToPtr(metadata.IPAddress)
		}
		if metadata.UserAgent != "" {
			audit.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
		if metadata.RequestID != "" {
			audit.RequestID = utils.ToPtr(metadata.RequestID)
		}
	}
	return f.auditRepo.Save(ctx, audit)
}
