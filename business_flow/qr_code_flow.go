package businessflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/scanlytic/scanlytic/app/dto"
	"github.com/scanlytic/scanlytic/config"
	"github.com/scanlytic/scanlytic/models"
	"github.com/scanlytic/scanlytic/repository"
	"github.com/scanlytic/scanlytic/utils"
	"gorm.io/gorm"
)

var validErrorCorrections = map[string]bool{"L": true, "M": true, "Q": true, "H": true}

var validStyles = map[string]bool{
	models.QRStyleClassic: true,
	models.QRStyleRounded: true,
	models.QRStyleDots:    true,
	models.QRStyleClassy:  true,
}

// QRCodeFlow handles QR code lifecycle management for authenticated customers
type QRCodeFlow interface {
	Create(ctx context.Context, customerID uint, req *dto.CreateQRCodeRequest, metadata *ClientMetadata) (*dto.CreateQRCodeResponse, error)
	List(ctx context.Context, customerID uint, limit, offset int) (*dto.ListQRCodesResponse, error)
	Get(ctx context.Context, customerID uint, qrUUID string) (*dto.QRCodeDTO, error)
	GetForImage(ctx context.Context, customerID uint, qrUUID string) (*models.QRCode, error)
	Update(ctx context.Context, customerID uint, qrUUID string, req *dto.UpdateQRCodeRequest, metadata *ClientMetadata) (*dto.QRCodeDTO, error)
	Delete(ctx context.Context, customerID uint, qrUUID string, metadata *ClientMetadata) error
	PurchaseQuota(ctx context.Context, customerID uint, req *dto.PurchaseQuotaRequest, metadata *ClientMetadata) (*dto.PurchaseQuotaResponse, error)
}

// QRCodeFlowImpl implements the QR code management flow
type QRCodeFlowImpl struct {
	qrCodeRepo   repository.QRCodeRepository
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditLogRepository
	rc           *redis.Client
	cacheConfig  *config.CacheConfig
	db           *gorm.DB
}

// NewQRCodeFlow creates a new QR code flow instance
func NewQRCodeFlow(
	qrCodeRepo repository.QRCodeRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditLogRepository,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
	db *gorm.DB,
) QRCodeFlow {
	return &QRCodeFlowImpl{
		qrCodeRepo:   qrCodeRepo,
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		rc:           rc,
		cacheConfig:  cacheConfig,
		db:           db,
	}
}

// Create issues a new dynamic QR code. Quota consumption, short code
// issuance and the row insert happen in one transaction so a collision or
// constraint failure never leaks a consumed quota slot.
func (f *QRCodeFlowImpl) Create(ctx context.Context, customerID uint, req *dto.CreateQRCodeRequest, metadata *ClientMetadata) (*dto.CreateQRCodeResponse, error) {
	customer, err := f.loadActiveCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrQRCodeNameRequired
	}
	payload, err := BuildPayload(req.Content)
	if err != nil {
		return nil, err
	}

	qrCode := &models.QRCode{
		UUID:            uuid.New(),
		CustomerID:      customer.ID,
		Name:            name,
		QRType:          req.Content.Type,
		DestinationURL:  payload,
		ColorFg:         defaultString(req.ColorFg, "#000000"),
		ColorBg:         defaultString(req.ColorBg, "#FFFFFF"),
		Style:           defaultString(req.Style, models.QRStyleClassic),
		ErrorCorrection: defaultString(req.ErrorCorrection, "M"),
		IsActive:        utils.ToPtr(true),
		ExpiresAt:       utils.TimeToUTCPtr(req.ExpiresAt),
		MaxScans:        req.MaxScans,
		CreatedAt:       utils.UTCNow(),
		UpdatedAt:       utils.UTCNow(),
	}
	if req.Content.Type == models.QRTypeURL {
		qrCode.OriginalURL = utils.ToPtr(req.Content.URL)
	}
	if req.IsActive != nil {
		qrCode.IsActive = req.IsActive
	}

	if !validStyles[qrCode.Style] {
		return nil, ErrInvalidStyle
	}
	if !validErrorCorrections[qrCode.ErrorCorrection] {
		return nil, ErrInvalidErrorCorrection
	}

	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, NewBusinessError("PASSWORD_HASH_FAILED", "Failed to hash QR code password", err)
		}
		qrCode.PasswordHash = utils.ToPtr(string(hash))
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		// Paying customers get the counter bumped without the guard
		if err := f.customerRepo.ConsumeQuota(txCtx, customer.ID, customer.IsFreeTier()); err != nil {
			if errors.Is(err, repository.ErrQuotaExhausted) {
				return ErrQuotaExceeded
			}
			return NewBusinessError("QUOTA_CONSUME_FAILED", "Failed to reserve quota slot", err)
		}

		shortCode, err := GenerateUniqueShortCode(txCtx, func(c context.Context, code string) (bool, error) {
			return f.qrCodeRepo.ShortCodeExists(c, code)
		})
		if err != nil {
			return NewBusinessError("SHORT_CODE_GENERATION_FAILED", "Failed to generate short code", err)
		}
		qrCode.ShortCode = shortCode

		if err := f.qrCodeRepo.Save(txCtx, qrCode); err != nil {
			return NewBusinessError("QR_CODE_SAVE_FAILED", "Failed to save QR code", err)
		}

		return f.createAuditLog(txCtx, &customer.ID, models.AuditActionQRCodeCreated,
			fmt.Sprintf("QR code %q created with short code %s", qrCode.Name, qrCode.ShortCode),
			true, nil, metadata)
	})
	if err != nil {
		return nil, err
	}

	out := &dto.CreateQRCodeResponse{
		QRCode:         ToQRCodeDTO(qrCode, false),
		QuotaRemaining: customer.QRQuota - customer.QRUsed - 1,
	}
	if customer.IsFreeTier() && out.QuotaRemaining <= utils.LowQuotaWarningThreshold {
		out.LowQuotaWarning = utils.ToPtr(fmt.Sprintf("Only %d QR code slots remaining on the free plan", out.QuotaRemaining))
	}
	return out, nil
}

// List returns the customer's QR codes newest first, with locked flags
// computed against the current quota.
func (f *QRCodeFlowImpl) List(ctx context.Context, customerID uint, limit, offset int) (*dto.ListQRCodesResponse, error) {
	customer, err := f.loadActiveCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	codes, err := f.qrCodeRepo.ListByCustomer(ctx, customerID, "created_at DESC")
	if err != nil {
		return nil, NewBusinessError("QR_CODE_LIST_FAILED", "Failed to list QR codes", err)
	}

	locked := ComputeLockedIDs(customer, codes)

	if limit <= 0 {
		limit = len(codes)
	}
	page := codes
	if offset > 0 {
		if offset >= len(page) {
			page = nil
		} else {
			page = page[offset:]
		}
	}
	if limit < len(page) {
		page = page[:limit]
	}

	items := make([]dto.QRCodeDTO, 0, len(page))
	for _, code := range page {
		items = append(items, ToQRCodeDTO(code, locked[code.ID]))
	}

	return &dto.ListQRCodesResponse{
		Items: items,
		Total: int64(len(codes)),
		Quota: quotaDTO(customer),
	}, nil
}

func (f *QRCodeFlowImpl) Get(ctx context.Context, customerID uint, qrUUID string) (*dto.QRCodeDTO, error) {
	customer, err := f.loadActiveCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	qrCode, err := f.ownedQRCode(ctx, customerID, qrUUID)
	if err != nil {
		return nil, err
	}

	codes, err := f.qrCodeRepo.ListByCustomer(ctx, customerID, "created_at DESC")
	if err != nil {
		return nil, NewBusinessError("QR_CODE_LIST_FAILED", "Failed to list QR codes", err)
	}
	locked := ComputeLockedIDs(customer, codes)

	out := ToQRCodeDTO(qrCode, locked[qrCode.ID])
	return &out, nil
}

// GetForImage returns the full row for PNG rendering (short code, colors,
// error correction level).
func (f *QRCodeFlowImpl) GetForImage(ctx context.Context, customerID uint, qrUUID string) (*models.QRCode, error) {
	if _, err := f.loadActiveCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return f.ownedQRCode(ctx, customerID, qrUUID)
}

// Update applies partial changes. The short code is immutable once issued,
// which is the whole point of a dynamic QR code: the printed code keeps
// working while the destination changes.
func (f *QRCodeFlowImpl) Update(ctx context.Context, customerID uint, qrUUID string, req *dto.UpdateQRCodeRequest, metadata *ClientMetadata) (*dto.QRCodeDTO, error) {
	if _, err := f.loadActiveCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	qrCode, err := f.ownedQRCode(ctx, customerID, qrUUID)
	if err != nil {
		return nil, err
	}

	if req.ShortCode != nil && *req.ShortCode != qrCode.ShortCode {
		return nil, ErrShortCodeImmutable
	}

	if req.Name == nil && req.Content == nil && req.ColorFg == nil && req.ColorBg == nil &&
		req.Style == nil && req.ErrorCorrection == nil && req.Password == nil &&
		req.IsActive == nil && req.ExpiresAt == nil && req.MaxScans == nil {
		return nil, ErrQRCodeUpdateRequired
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrQRCodeNameRequired
		}
		qrCode.Name = name
	}
	if req.Content != nil {
		payload, err := BuildPayload(req.Content)
		if err != nil {
			return nil, err
		}
		qrCode.QRType = req.Content.Type
		qrCode.DestinationURL = payload
		if req.Content.Type == models.QRTypeURL {
			qrCode.OriginalURL = utils.ToPtr(req.Content.URL)
		} else {
			qrCode.OriginalURL = nil
		}
	}
	if req.ColorFg != nil {
		qrCode.ColorFg = *req.ColorFg
	}
	if req.ColorBg != nil {
		qrCode.ColorBg = *req.ColorBg
	}
	if req.Style != nil {
		if !validStyles[*req.Style] {
			return nil, ErrInvalidStyle
		}
		qrCode.Style = *req.Style
	}
	if req.ErrorCorrection != nil {
		if !validErrorCorrections[*req.ErrorCorrection] {
			return nil, ErrInvalidErrorCorrection
		}
		qrCode.ErrorCorrection = *req.ErrorCorrection
	}
	if req.Password != nil {
		if *req.Password == "" {
			qrCode.PasswordHash = nil
		} else {
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, NewBusinessError("PASSWORD_HASH_FAILED", "Failed to hash QR code password", err)
			}
			qrCode.PasswordHash = utils.ToPtr(string(hash))
		}
	}
	if req.IsActive != nil {
		qrCode.IsActive = req.IsActive
	}
	if req.ExpiresAt != nil {
		qrCode.ExpiresAt = utils.TimeToUTCPtr(req.ExpiresAt)
	}
	if req.MaxScans != nil {
		qrCode.MaxScans = req.MaxScans
	}
	qrCode.UpdatedAt = utils.UTCNow()

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.qrCodeRepo.Update(txCtx, qrCode); err != nil {
			return NewBusinessError("QR_CODE_UPDATE_FAILED", "Failed to update QR code", err)
		}
		return f.createAuditLog(txCtx, &customerID, models.AuditActionQRCodeUpdated,
			fmt.Sprintf("QR code %s updated", qrCode.UUID), true, nil, metadata)
	})
	if err != nil {
		return nil, err
	}

	f.invalidateShortCode(ctx, qrCode.ShortCode)

	out := ToQRCodeDTO(qrCode, false)
	return &out, nil
}

// Delete removes the QR code and its scan history. The consumed quota slot
// is not released: deleting codes is not a way to recycle free-tier slots.
func (f *QRCodeFlowImpl) Delete(ctx context.Context, customerID uint, qrUUID string, metadata *ClientMetadata) error {
	if _, err := f.loadActiveCustomer(ctx, customerID); err != nil {
		return err
	}
	qrCode, err := f.ownedQRCode(ctx, customerID, qrUUID)
	if err != nil {
		return err
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.qrCodeRepo.Delete(txCtx, qrCode.ID); err != nil {
			return NewBusinessError("QR_CODE_DELETE_FAILED", "Failed to delete QR code", err)
		}
		return f.createAuditLog(txCtx, &customerID, models.AuditActionQRCodeDeleted,
			fmt.Sprintf("QR code %q (short code %s) deleted", qrCode.Name, qrCode.ShortCode),
			true, nil, metadata)
	})
	if err != nil {
		return err
	}

	f.invalidateShortCode(ctx, qrCode.ShortCode)
	return nil
}

// PurchaseQuota raises the customer's quota ceiling by the purchased
// quantity. Payment capture happens upstream; this flow only applies the
// entitlement.
func (f *QRCodeFlowImpl) PurchaseQuota(ctx context.Context, customerID uint, req *dto.PurchaseQuotaRequest, metadata *ClientMetadata) (*dto.PurchaseQuotaResponse, error) {
	customer, err := f.loadActiveCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, ErrInvalidQuotaPurchaseQty
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.customerRepo.AddQuota(txCtx, customer.ID, req.Quantity); err != nil {
			return NewBusinessError("QUOTA_PURCHASE_FAILED", "Failed to apply purchased quota", err)
		}
		return f.createAuditLog(txCtx, &customer.ID, models.AuditActionQuotaPurchased,
			fmt.Sprintf("Purchased %d additional QR code slots", req.Quantity),
			true, nil, metadata)
	})
	if err != nil {
		return nil, err
	}

	customer.QRQuota += req.Quantity
	return &dto.PurchaseQuotaResponse{
		Message: fmt.Sprintf("Quota increased by %d", req.Quantity),
		Quota:   quotaDTO(customer),
	}, nil
}

// ComputeLockedIDs decides which QR codes are locked for a free-tier
// customer holding more codes than the quota allows, typically after a
// downgrade. The newest codes up to the quota stay usable, everything
// older is locked. Paid tiers are never locked.
func ComputeLockedIDs(customer *models.Customer, codes []*models.QRCode) map[uint]bool {
	locked := make(map[uint]bool)
	if customer == nil || !customer.IsFreeTier() {
		return locked
	}
	if len(codes) <= customer.QRQuota {
		return locked
	}

	sorted := make([]*models.QRCode, len(codes))
	copy(sorted, codes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	for _, code := range sorted[customer.QRQuota:] {
		locked[code.ID] = true
	}
	return locked
}

func (f *QRCodeFlowImpl) loadActiveCustomer(ctx context.Context, customerID uint) (*models.Customer, error) {
	customer, err := f.customerRepo.ByID(ctx, customerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	if !utils.IsTrue(customer.IsActive) {
		return nil, ErrAccountInactive
	}
	return customer, nil
}

func (f *QRCodeFlowImpl) ownedQRCode(ctx context.Context, customerID uint, qrUUID string) (*models.QRCode, error) {
	qrCode, err := f.qrCodeRepo.ByUUID(ctx, qrUUID)
	if err != nil {
		return nil, NewBusinessError("QR_CODE_LOOKUP_FAILED", "Failed to lookup QR code", err)
	}
	if qrCode == nil {
		return nil, ErrQRCodeNotFound
	}
	if qrCode.CustomerID != customerID {
		return nil, ErrQRCodeAccessDenied
	}
	return qrCode, nil
}

func (f *QRCodeFlowImpl) invalidateShortCode(ctx context.Context, shortCode string) {
	if f.rc == nil || f.cacheConfig == nil || !f.cacheConfig.Enabled {
		return
	}
	_ = f.rc.Del(ctx, redisKey(f.cacheConfig, utils.QRCodeCacheKeyPrefix+shortCode)).Err()
}

func (f *QRCodeFlowImpl) createAuditLog(ctx context.Context, customerID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
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

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func quotaDTO(c *models.Customer) dto.QuotaDTO {
	return dto.QuotaDTO{
		Limit:              c.QRQuota,
		Used:               c.QRUsed,
		Remaining:          c.RemainingQuota(),
		SubscriptionStatus: c.SubscriptionStatus,
	}
}
