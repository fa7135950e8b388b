// Package scheduler provides background maintenance jobs that run alongside the HTTP server
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/scanlytic/scanlytic/repository"
)

// MaintenanceScheduler periodically reconciles denormalized scan counters
// against the scan event log and expires stale customer sessions.
type MaintenanceScheduler struct {
	qrCodeRepo  repository.QRCodeRepository
	sessionRepo repository.CustomerSessionRepository
	logger      *log.Logger

	reconcileInterval      time.Duration
	sessionCleanupEnabled  bool
	sessionCleanupInterval time.Duration
}

func NewMaintenanceScheduler(
	qrCodeRepo repository.QRCodeRepository,
	sessionRepo repository.CustomerSessionRepository,
	logger *log.Logger,
	reconcileInterval time.Duration,
	sessionCleanupEnabled bool,
	sessionCleanupInterval time.Duration,
) *MaintenanceScheduler {
	if reconcileInterval <= 0 {
		reconcileInterval = time.Hour
	}
	if sessionCleanupInterval <= 0 {
		sessionCleanupInterval = time.Hour
	}
	if logger == nil {
		logger = log.Default()
	}

	return &MaintenanceScheduler{
		qrCodeRepo:             qrCodeRepo,
		sessionRepo:            sessionRepo,
		logger:                 logger,
		reconcileInterval:      reconcileInterval,
		sessionCleanupEnabled:  sessionCleanupEnabled,
		sessionCleanupInterval: sessionCleanupInterval,
	}
}

// Start launches the maintenance loops. The returned cancel function stops them.
func (s *MaintenanceScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.reconcileInterval)
		defer ticker.Stop()

		s.reconcileOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.reconcileOnce(ctx)
			}
		}
	}()

	if s.sessionCleanupEnabled {
		go func() {
			ticker := time.NewTicker(s.sessionCleanupInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.cleanupSessionsOnce(ctx)
				}
			}
		}()
	}

	return cancel
}

func (s *MaintenanceScheduler) reconcileOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, 5*time.Minute)
	defer cancel()

	repaired, err := s.qrCodeRepo.ReconcileScanCounts(ctx)
	if err != nil {
		s.logger.Printf("scheduler: scan count reconciliation failed: %v", err)
		return
	}
	if repaired > 0 {
		s.logger.Printf("scheduler: repaired scan counters on %d QR codes", repaired)
	}
}

func (s *MaintenanceScheduler) cleanupSessionsOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, time.Minute)
	defer cancel()

	if err := s.sessionRepo.CleanupExpiredSessions(ctx); err != nil {
		s.logger.Printf("scheduler: session cleanup failed: %v", err)
	}
}
