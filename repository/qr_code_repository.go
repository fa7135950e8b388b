package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/scanlytic/scanlytic/models"
	"github.com/scanlytic/scanlytic/utils"
	"gorm.io/gorm"
)

// QRCodeRepositoryImpl implements QRCodeRepository
type QRCodeRepositoryImpl struct {
	*BaseRepository[models.QRCode, models.QRCodeFilter]
}

func NewQRCodeRepository(db *gorm.DB) QRCodeRepository {
	return &QRCodeRepositoryImpl{BaseRepository: NewBaseRepository[models.QRCode, models.QRCodeFilter](db)}
}

func (r *QRCodeRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.QRCode, error) {
	db := r.getDB(ctx)
	var row models.QRCode
	if err := db.Where("uuid = ?", uuid).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *QRCodeRepositoryImpl) ByShortCode(ctx context.Context, shortCode string) (*models.QRCode, error) {
	filter := models.QRCodeFilter{ShortCode: &shortCode}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *QRCodeRepositoryImpl) ShortCodeExists(ctx context.Context, shortCode string) (bool, error) {
	return r.Exists(ctx, models.QRCodeFilter{ShortCode: &shortCode})
}

func (r *QRCodeRepositoryImpl) applyFilter(db *gorm.DB, f models.QRCodeFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.CustomerID != nil {
		db = db.Where("customer_id = ?", *f.CustomerID)
	}
	if f.ShortCode != nil {
		db = db.Where("short_code = ?", *f.ShortCode)
	}
	if f.QRType != nil {
		db = db.Where("qr_type = ?", *f.QRType)
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

func (r *QRCodeRepositoryImpl) ByFilter(ctx context.Context, filter models.QRCodeFilter, orderBy string, limit, offset int) ([]*models.QRCode, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.QRCode{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.QRCode
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *QRCodeRepositoryImpl) Count(ctx context.Context, filter models.QRCodeFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.QRCode{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *QRCodeRepositoryImpl) Exists(ctx context.Context, filter models.QRCodeFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *QRCodeRepositoryImpl) ListByCustomer(ctx context.Context, customerID uint, orderBy string) ([]*models.QRCode, error) {
	if orderBy == "" {
		orderBy = "created_at ASC"
	}
	return r.ByFilter(ctx, models.QRCodeFilter{CustomerID: &customerID}, orderBy, 0, 0)
}

func (r *QRCodeRepositoryImpl) Delete(ctx context.Context, id uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Where("qr_code_id = ?", id).Delete(&models.QRScan{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete scan events: %w", err)
	}
	err = db.Delete(&models.QRCode{}, id).Error
	if err != nil {
		return fmt.Errorf("failed to delete qr code: %w", err)
	}
	return nil
}

// RecordScan appends one scan event and bumps the scan counter in a single
// transaction. The counter UPDATE is guarded so that a max_scans budget can
// never be overrun by concurrent scans: the guard matching no row rolls the
// scan insert back too.
func (r *QRCodeRepositoryImpl) RecordScan(ctx context.Context, scan *models.QRScan) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Create(scan).Error
	if err != nil {
		return fmt.Errorf("failed to insert scan event: %w", err)
	}

	res := db.Model(&models.QRCode{}).
		Where("id = ?", scan.QRCodeID).
		Where("max_scans IS NULL OR current_scans < max_scans").
		Updates(map[string]any{
			"current_scans":   gorm.Expr("current_scans + 1"),
			"last_scanned_at": utils.UTCNow(),
		})
	if res.Error != nil {
		err = fmt.Errorf("failed to increment scan count: %w", res.Error)
		return err
	}
	if res.RowsAffected == 0 {
		err = ErrScanLimitReached
		return err
	}
	return nil
}

// ReconcileScanCounts repairs counter drift by recomputing current_scans
// from the scan event table. Only rows whose stored counter disagrees with
// the event count are touched.
func (r *QRCodeRepositoryImpl) ReconcileScanCounts(ctx context.Context) (int64, error) {
	db := r.getDB(ctx)
	res := db.Exec(`
		UPDATE qr_codes q
		SET current_scans = s.n
		FROM (
			SELECT qr_code_id, COUNT(*) AS n
			FROM qr_scans
			GROUP BY qr_code_id
		) s
		WHERE q.id = s.qr_code_id AND q.current_scans <> s.n`)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to reconcile scan counts: %w", res.Error)
	}
	return res.RowsAffected, nil
}
