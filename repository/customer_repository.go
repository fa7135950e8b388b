package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scanlytic/scanlytic/models"
	"github.com/scanlytic/scanlytic/utils"
	"gorm.io/gorm"
)

// CustomerRepositoryImpl implements CustomerRepository
type CustomerRepositoryImpl struct {
	*BaseRepository[models.Customer, models.CustomerFilter]
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &CustomerRepositoryImpl{BaseRepository: NewBaseRepository[models.Customer, models.CustomerFilter](db)}
}

func (r *CustomerRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Customer, error) {
	db := r.getDB(ctx)
	var row models.Customer
	if err := db.Where("email = ?", email).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *CustomerRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Customer, error) {
	db := r.getDB(ctx)
	var row models.Customer
	if err := db.Where("uuid = ?", uuid).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *CustomerRepositoryImpl) applyFilter(db *gorm.DB, f models.CustomerFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.Email != nil {
		db = db.Where("email = ?", *f.Email)
	}
	if f.SubscriptionStatus != nil {
		db = db.Where("subscription_status = ?", *f.SubscriptionStatus)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *CustomerRepositoryImpl) ByFilter(ctx context.Context, filter models.CustomerFilter, orderBy string, limit, offset int) ([]*models.Customer, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Customer{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Customer
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CustomerRepositoryImpl) Count(ctx context.Context, filter models.CustomerFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Customer{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CustomerRepositoryImpl) Exists(ctx context.Context, filter models.CustomerFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *CustomerRepositoryImpl) UpdatePassword(ctx context.Context, customerID uint, passwordHash string) error {
	db := r.getDB(ctx)
	res := db.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]any{
			"password_hash": passwordHash,
			"updated_at":    utils.UTCNow(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update password: %w", res.Error)
	}
	return nil
}

func (r *CustomerRepositoryImpl) UpdateLastLogin(ctx context.Context, customerID uint, at time.Time) error {
	db := r.getDB(ctx)
	res := db.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("last_login_at", at)
	if res.Error != nil {
		return fmt.Errorf("failed to update last login: %w", res.Error)
	}
	return nil
}

// ConsumeQuota bumps qr_used with a single guarded UPDATE so that
// concurrent creations by the same customer cannot under-count usage or
// slip past the free-tier ceiling.
func (r *CustomerRepositoryImpl) ConsumeQuota(ctx context.Context, customerID uint, enforceQuota bool) error {
	db := r.getDB(ctx)
	query := db.Model(&models.Customer{}).Where("id = ?", customerID)
	if enforceQuota {
		query = query.Where("qr_used < qr_quota")
	}
	res := query.Updates(map[string]any{
		"qr_used":    gorm.Expr("qr_used + 1"),
		"updated_at": utils.UTCNow(),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to consume quota: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrQuotaExhausted
	}
	return nil
}

func (r *CustomerRepositoryImpl) AddQuota(ctx context.Context, customerID uint, n int) error {
	if n <= 0 {
		return fmt.Errorf("quota increment must be positive, got %d", n)
	}
	db := r.getDB(ctx)
	res := db.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]any{
			"qr_quota":   gorm.Expr("qr_quota + ?", n),
			"updated_at": utils.UTCNow(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to add quota: %w", res.Error)
	}
	return nil
}
