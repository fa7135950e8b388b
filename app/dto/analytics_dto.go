package dto

// AnalyticsOverviewResponse aggregates scan activity for the dashboard
type AnalyticsOverviewResponse struct {
	TotalScans     int64            `json:"total_scans" example:"1042"`
	ScansToday     int64            `json:"scans_today" example:"14"`
	RecentScans    int64            `json:"recent_scans" example:"87"`
	UniqueVisitors int64            `json:"unique_visitors" example:"311"`
	DeviceCounts   map[string]int64 `json:"device_counts"`
	TopQRCodes     []TopQRCodeDTO   `json:"top_qr_codes"`
	ScansPerDay    []DailyScansDTO  `json:"scans_per_day"`
	Quota          QuotaDTO         `json:"quota"`
}

// TopQRCodeDTO is one row of the most-scanned ranking
type TopQRCodeDTO struct {
	QRCodeID uint   `json:"qr_code_id" example:"12"`
	Name     string `json:"name" example:"Menu QR"`
	Scans    int64  `json:"scans" example:"412"`
}

// DailyScansDTO is one day of the scans-over-time chart
type DailyScansDTO struct {
	Day   string `json:"day" example:"2024-01-15"`
	Scans int64  `json:"scans" example:"23"`
}
