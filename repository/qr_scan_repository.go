package repository

import (
	"context"
	"time"

	"github.com/scanlytic/scanlytic/models"
	"gorm.io/gorm"
)

// QRScanRepositoryImpl implements QRScanRepository
type QRScanRepositoryImpl struct {
	*BaseRepository[models.QRScan, models.QRScanFilter]
}

func NewQRScanRepository(db *gorm.DB) QRScanRepository {
	return &QRScanRepositoryImpl{BaseRepository: NewBaseRepository[models.QRScan, models.QRScanFilter](db)}
}

func (r *QRScanRepositoryImpl) applyFilter(db *gorm.DB, f models.QRScanFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.QRCodeID != nil {
		db = db.Where("qr_code_id = ?", *f.QRCodeID)
	}
	if f.DeviceType != nil {
		db = db.Where("device_type = ?", *f.DeviceType)
	}
	if f.VisitorFingerprint != nil {
		db = db.Where("visitor_fingerprint = ?", *f.VisitorFingerprint)
	}
	if f.ScannedAfter != nil {
		db = db.Where("scanned_at >= ?", *f.ScannedAfter)
	}
	if f.ScannedBefore != nil {
		db = db.Where("scanned_at < ?", *f.ScannedBefore)
	}
	return db
}

func (r *QRScanRepositoryImpl) ByFilter(ctx context.Context, filter models.QRScanFilter, orderBy string, limit, offset int) ([]*models.QRScan, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.QRScan{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.QRScan
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *QRScanRepositoryImpl) Count(ctx context.Context, filter models.QRScanFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.QRScan{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *QRScanRepositoryImpl) Exists(ctx context.Context, filter models.QRScanFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *QRScanRepositoryImpl) ListByQRCode(ctx context.Context, qrCodeID uint, orderBy string, limit, offset int) ([]*models.QRScan, error) {
	if orderBy == "" {
		orderBy = "scanned_at DESC"
	}
	return r.ByFilter(ctx, models.QRScanFilter{QRCodeID: &qrCodeID}, orderBy, limit, offset)
}

func (r *QRScanRepositoryImpl) customerScans(db *gorm.DB, customerID uint) *gorm.DB {
	return db.Model(&models.QRScan{}).
		Joins("JOIN qr_codes ON qr_codes.id = qr_scans.qr_code_id").
		Where("qr_codes.customer_id = ?", customerID)
}

func (r *QRScanRepositoryImpl) CountByCustomer(ctx context.Context, customerID uint) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.customerScans(db, customerID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *QRScanRepositoryImpl) CountByCustomerSince(ctx context.Context, customerID uint, since time.Time) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.customerScans(db, customerID).Where("qr_scans.scanned_at >= ?", since).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *QRScanRepositoryImpl) CountUniqueVisitors(ctx context.Context, customerID uint) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	err := r.customerScans(db, customerID).
		Where("qr_scans.visitor_fingerprint IS NOT NULL").
		Distinct("qr_scans.visitor_fingerprint").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *QRScanRepositoryImpl) CountByDevice(ctx context.Context, customerID uint) (map[string]int64, error) {
	db := r.getDB(ctx)
	type row struct {
		DeviceType *string
		N          int64
	}
	var rows []row
	err := r.customerScans(db, customerID).
		Select("qr_scans.device_type AS device_type, COUNT(*) AS n").
		Group("qr_scans.device_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, rw := range rows {
		device := "unknown"
		if rw.DeviceType != nil && *rw.DeviceType != "" {
			device = *rw.DeviceType
		}
		out[device] += rw.N
	}
	return out, nil
}

func (r *QRScanRepositoryImpl) TopQRCodes(ctx context.Context, customerID uint, limit int) ([]*QRCodeScanCount, error) {
	db := r.getDB(ctx)
	if limit <= 0 {
		limit = 5
	}
	var rows []*QRCodeScanCount
	err := r.customerScans(db, customerID).
		Select("qr_codes.id AS qr_code_id, qr_codes.name AS name, COUNT(*) AS scans").
		Group("qr_codes.id, qr_codes.name").
		Order("scans DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *QRScanRepositoryImpl) ScansPerDay(ctx context.Context, customerID uint, days int) ([]*DailyScanCount, error) {
	db := r.getDB(ctx)
	if days <= 0 {
		days = 30
	}
	var rows []*DailyScanCount
	err := r.customerScans(db, customerID).
		Select("date_trunc('day', qr_scans.scanned_at) AS day, COUNT(*) AS scans").
		Where("qr_scans.scanned_at >= CURRENT_DATE - ?::int", days).
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
