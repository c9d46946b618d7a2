package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/innologic/company-service/internal/cache"
	"github.com/innologic/company-service/internal/logger"
	"github.com/innologic/company-service/internal/metrics"
	"github.com/innologic/company-service/internal/models"
	"github.com/innologic/company-service/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DeletionService orchestrates the asynchronous company deletion workflow.
// A deletion is started by creating a tombstone; downstream services then
// acknowledge their cleanup, and once every required service has acked the
// company and its locations are purged in a single transaction.
type DeletionService struct {
	db       *gorm.DB
	cache    *cache.Cache
	required map[string]struct{}
}

// NewDeletionService creates a new DeletionService. requiredServices lists
// the downstream services whose acknowledgement is needed before purge; an
// empty list means deletion completes immediately on start.
func NewDeletionService(db *gorm.DB, c *cache.Cache, requiredServices []string) *DeletionService {
	required := make(map[string]struct{}, len(requiredServices))
	for _, name := range requiredServices {
		required[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	delete(required, "")
	return &DeletionService{db: db, cache: c, required: required}
}

// GetDeletion returns the deletion tombstone for a company.
func (s *DeletionService) GetDeletion(companyID string) (*models.DeletionTombstone, error) {
	tombstone, err := repository.NewTombstoneRepository(s.db).FindByCompanyID(companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeletionNotFound
		}
		return nil, fmt.Errorf("failed to find deletion: %w", err)
	}
	return tombstone, nil
}

// StartDeletion begins the deletion workflow for a company. Starting is
// idempotent: if a tombstone already exists it is returned unchanged, unless
// both the stored and incoming idempotency keys are present and differ.
func (s *DeletionService) StartDeletion(ctx context.Context, companyID, requestedBy string, idempotencyKey string) (*models.DeletionTombstone, error) {
	key := strings.TrimSpace(idempotencyKey)

	tombstone, created, err := s.startDeletionOnce(companyID, requestedBy, key)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a concurrent start race; the winner's tombstone is now
			// resolvable.
			tombstone, created, err = s.startDeletionOnce(companyID, requestedBy, key)
		}
		if err != nil {
			return nil, err
		}
	}

	s.cache.InvalidateCompany(ctx, companyID)

	if created {
		metrics.RecordDeletionStarted()
	}
	if created && len(s.required) == 0 {
		return s.finalize(ctx, tombstone)
	}
	return tombstone, nil
}

func (s *DeletionService) startDeletionOnce(companyID, requestedBy, key string) (*models.DeletionTombstone, bool, error) {
	existing, err := repository.NewTombstoneRepository(s.db).FindByCompanyID(companyID)
	if err == nil {
		if key != "" && existing.IdempotencyKey != nil && *existing.IdempotencyKey != key {
			return nil, false, ErrIdempotencyKeyConflict
		}
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to find deletion: %w", err)
	}

	if _, err := repository.NewCompanyRepository(s.db).FindByID(companyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrCompanyNotFound
		}
		return nil, false, fmt.Errorf("failed to find company: %w", err)
	}

	tombstone := &models.DeletionTombstone{
		DeletionID:     uuid.NewString(),
		CompanyID:      companyID,
		State:          models.DeletionStateInProgress,
		RequestedAtUTC: time.Now().UTC(),
		RequestedBySub: requestedBy,
	}
	if key != "" {
		tombstone.IdempotencyKey = &key
	}
	if err := repository.NewTombstoneRepository(s.db).Create(tombstone); err != nil {
		return nil, false, err
	}
	return tombstone, true, nil
}

// AcknowledgeDeletion records a downstream service's cleanup acknowledgement.
// Recording the same service twice is harmless. Once the acknowledged set
// covers every required service the purge runs.
func (s *DeletionService) AcknowledgeDeletion(ctx context.Context, companyID, serviceName, ackedBy string) (*models.DeletionTombstone, error) {
	tombstone, err := repository.NewTombstoneRepository(s.db).FindByCompanyID(companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeletionNotFound
		}
		return nil, fmt.Errorf("failed to find deletion: %w", err)
	}
	if tombstone.Terminal() {
		return tombstone, nil
	}

	name := strings.ToLower(strings.TrimSpace(serviceName))
	if name == "" {
		return nil, ErrBlankServiceName
	}
	if _, ok := s.required[name]; !ok && len(s.required) > 0 {
		return nil, ErrServiceNotRequired
	}

	ackRepo := repository.NewAckRepository(s.db)
	if _, err := ackRepo.Find(tombstone.DeletionID, name); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to find acknowledgement: %w", err)
		}
		ack := &models.DeletionAck{
			DeletionID:  tombstone.DeletionID,
			ServiceName: name,
			AckedAtUTC:  time.Now().UTC(),
			AckedBySub:  ackedBy,
		}
		if err := ackRepo.Create(ack); err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to record acknowledgement: %w", err)
		}
	}

	acked, err := ackRepo.ListServiceNames(tombstone.DeletionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list acknowledgements: %w", err)
	}
	ackedSet := make(map[string]struct{}, len(acked))
	for _, a := range acked {
		ackedSet[a] = struct{}{}
	}
	for required := range s.required {
		if _, ok := ackedSet[required]; !ok {
			return tombstone, nil
		}
	}
	return s.finalize(ctx, tombstone)
}

// finalize purges the company and its locations and marks the tombstone
// COMPLETED, all in one transaction. The tombstone itself survives the purge
// so the company id stays invisible forever.
func (s *DeletionService) finalize(ctx context.Context, tombstone *models.DeletionTombstone) (*models.DeletionTombstone, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewLocationRepository(tx).DeleteAllByCompany(tombstone.CompanyID); err != nil {
			return err
		}
		if err := repository.NewCompanyRepository(tx).DeleteByID(tombstone.CompanyID); err != nil {
			return err
		}
		now := time.Now().UTC()
		tombstone.State = models.DeletionStateCompleted
		tombstone.CompletedAtUTC = &now
		return repository.NewTombstoneRepository(tx).Update(tombstone)
	})
	if err != nil {
		s.markFailed(tombstone, err)
		return nil, fmt.Errorf("failed to finalize deletion: %w", err)
	}

	s.cache.InvalidateCompany(ctx, tombstone.CompanyID)
	metrics.RecordDeletionCompleted()
	return tombstone, nil
}

// markFailed records the purge failure on the tombstone. Best effort: the
// purge error is what the caller sees either way.
func (s *DeletionService) markFailed(tombstone *models.DeletionTombstone, cause error) {
	now := time.Now().UTC()
	reason := cause.Error()
	tombstone.State = models.DeletionStateFailed
	tombstone.FailedAtUTC = &now
	tombstone.FailureReason = &reason
	if err := repository.NewTombstoneRepository(s.db).Update(tombstone); err != nil {
		logger.Get().Error("failed to record deletion failure",
			zap.String("companyId", tombstone.CompanyID),
			zap.Error(err))
	}
}
