package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/scanlytic/scanlytic/app/dto"
	"github.com/scanlytic/scanlytic/repository"
	"github.com/scanlytic/scanlytic/utils"
	"github.com/xuri/excelize/v2"
)

const (
	overviewRecentWindowDays = 7
	overviewChartDays        = 30
	overviewTopCodesLimit    = 5
	exportScanPageSize       = 1000
)

// AnalyticsFlow serves the dashboard aggregates and scan exports
type AnalyticsFlow interface {
	Overview(ctx context.Context, customerID uint) (*dto.AnalyticsOverviewResponse, error)
	ExportScans(ctx context.Context, customerID uint, qrUUID string) (string, []byte, error)
}

type AnalyticsFlowImpl struct {
	qrScanRepo   repository.QRScanRepository
	qrCodeRepo   repository.QRCodeRepository
	customerRepo repository.CustomerRepository
}

func NewAnalyticsFlow(
	qrScanRepo repository.QRScanRepository,
	qrCodeRepo repository.QRCodeRepository,
	customerRepo repository.CustomerRepository,
) AnalyticsFlow {
	return &AnalyticsFlowImpl{
		qrScanRepo:   qrScanRepo,
		qrCodeRepo:   qrCodeRepo,
		customerRepo: customerRepo,
	}
}

// Overview aggregates scan activity across all of the customer's QR codes.
func (f *AnalyticsFlowImpl) Overview(ctx context.Context, customerID uint) (*dto.AnalyticsOverviewResponse, error) {
	customer, err := f.customerRepo.ByID(ctx, customerID)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Failed to lookup customer", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	totalScans, err := f.qrScanRepo.CountByCustomer(ctx, customerID)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to count scans", err)
	}

	now := utils.UTCNow()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	scansToday, err := f.qrScanRepo.CountByCustomerSince(ctx, customerID, startOfDay)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to count today's scans", err)
	}

	since := now.AddDate(0, 0, -overviewRecentWindowDays)
	recentScans, err := f.qrScanRepo.CountByCustomerSince(ctx, customerID, since)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to count recent scans", err)
	}

	uniqueVisitors, err := f.qrScanRepo.CountUniqueVisitors(ctx, customerID)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to count unique visitors", err)
	}

	deviceCounts, err := f.qrScanRepo.CountByDevice(ctx, customerID)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to aggregate devices", err)
	}

	topCodes, err := f.qrScanRepo.TopQRCodes(ctx, customerID, overviewTopCodesLimit)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to rank QR codes", err)
	}

	daily, err := f.qrScanRepo.ScansPerDay(ctx, customerID, overviewChartDays)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to aggregate daily scans", err)
	}

	out := &dto.AnalyticsOverviewResponse{
		TotalScans:     totalScans,
		ScansToday:     scansToday,
		RecentScans:    recentScans,
		UniqueVisitors: uniqueVisitors,
		DeviceCounts:   deviceCounts,
		Quota:          quotaDTO(customer),
	}
	for _, tc := range topCodes {
		out.TopQRCodes = append(out.TopQRCodes, dto.TopQRCodeDTO{
			QRCodeID: tc.QRCodeID,
			Name:     tc.Name,
			Scans:    tc.Scans,
		})
	}
	for _, d := range daily {
		out.ScansPerDay = append(out.ScansPerDay, dto.DailyScansDTO{
			Day:   d.Day.UTC().Format("2006-01-02"),
			Scans: d.Scans,
		})
	}
	return out, nil
}

// ExportScans renders the scan history of one QR code as an Excel workbook.
// Scans are paged out of the database oldest first so large histories do
// not need a single unbounded query.
func (f *AnalyticsFlowImpl) ExportScans(ctx context.Context, customerID uint, qrUUID string) (string, []byte, error) {
	qrCode, err := f.qrCodeRepo.ByUUID(ctx, qrUUID)
	if err != nil {
		return "", nil, NewBusinessError("QR_CODE_LOOKUP_FAILED", "Failed to lookup QR code", err)
	}
	if qrCode == nil {
		return "", nil, ErrQRCodeNotFound
	}
	if qrCode.CustomerID != customerID {
		return "", nil, ErrQRCodeAccessDenied
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := sanitizeSheetName(qrCode.Name)
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"id", "scanned_at", "device_type", "os", "browser", "ip_address", "visitor_fingerprint", "referrer", "country", "city"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	row := 2
	offset := 0
	for {
		scans, err := f.qrScanRepo.ListByQRCode(ctx, qrCode.ID, "scanned_at ASC", exportScanPageSize, offset)
		if err != nil {
			return "", nil, NewBusinessError("SCAN_EXPORT_FAILED", "Failed to fetch scans for export", err)
		}
		for _, scan := range scans {
			record := []string{
				strconv.FormatUint(uint64(scan.ID), 10),
				scan.ScannedAt.UTC().Format(time.RFC3339),
				derefOrEmpty(scan.DeviceType),
				derefOrEmpty(scan.OS),
				derefOrEmpty(scan.Browser),
				derefOrEmpty(scan.IPAddress),
				derefOrEmpty(scan.VisitorFingerprint),
				derefOrEmpty(scan.Referrer),
				derefOrEmpty(scan.Country),
				derefOrEmpty(scan.City),
			}
			cellRef, _ := excelize.CoordinatesToCellName(1, row)
			_ = xl.SetSheetRow(sheet, cellRef, &record)
			row++
		}
		if len(scans) < exportScanPageSize {
			break
		}
		offset += exportScanPageSize
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	filename := fmt.Sprintf("qr_scans_%s.xlsx", qrCode.ShortCode)
	return filename, buf.Bytes(), nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sanitizeSheetName(name string) string {
	// Excel sheet names cannot contain: : \ / ? * [ ] and must be <= 31 chars
	replacer := strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")
	safe := strings.TrimSpace(replacer.Replace(name))
	if len(safe) > 31 {
		safe = safe[:31]
	}
	if safe == "" {
		return "Scans"
	}
	return safe
}
