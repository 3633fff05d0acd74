package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"menu-import-service/internal/broker"
	"menu-import-service/internal/models"
	"menu-import-service/internal/snapshot"
	"menu-import-service/internal/store"
	"menu-import-service/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
)

// ImportService wraps one restaurant's snapshot import in a single
// commit boundary. All entity and price writes for that restaurant take
// effect together or not at all; only the session audit row lives
// outside the transaction.
type ImportService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	resolver       *EntityResolver
	reconciler     *ProductReconciler
	offers         *OfferExtractor
	prices         *PriceHistoryWriter
	logger         *zap.Logger

	retryAttempts int
	retryBackoff  time.Duration
}

// NewImportService creates a new import service. The event publisher
// may be nil when no broker is configured.
func NewImportService(st *store.Store, eventPublisher *broker.EventPublisher, retryAttempts int, retryBackoff time.Duration) *ImportService {
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &ImportService{
		store:          st,
		eventPublisher: eventPublisher,
		resolver:       NewEntityResolver(),
		reconciler:     NewProductReconciler(),
		offers:         NewOfferExtractor(),
		prices:         NewPriceHistoryWriter(),
		logger:         util.GetLogger(),
		retryAttempts:  retryAttempts,
		retryBackoff:   retryBackoff,
	}
}

// ImportResult summarizes one restaurant session.
type ImportResult struct {
	SessionID     uuid.UUID            `json:"session_id"`
	RestaurantID  *uuid.UUID           `json:"restaurant_id,omitempty"`
	Status        string               `json:"status"`
	ProductCount  int                  `json:"product_count"`
	CategoryCount int                  `json:"category_count"`
	PricePoints   int                  `json:"price_points"`
	Errors        []models.ImportError `json:"errors,omitempty"`
}

// Failed reports whether the session ended in FAILED state.
func (r *ImportResult) Failed() bool {
	return r.Status == models.SessionStatusFailed
}

// BatchResult summarizes a directory import.
type BatchResult struct {
	Results []ImportResult `json:"results"`
	Failed  int            `json:"failed"`
}

// ImportFile imports one snapshot file.
func (s *ImportService) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()

	doc, err := snapshot.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	s.logger.Info("Importing snapshot file", zap.String("path", path))
	return s.ImportSnapshot(ctx, doc)
}

// ImportDirectory imports every *.json snapshot in a directory. A batch
// is just repeated invocation: one restaurant's failure is recorded and
// the next import proceeds independently.
func (s *ImportService) ImportDirectory(ctx context.Context, dir string) (*BatchResult, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		s.logger.Warn("No snapshot files found", zap.String("directory", dir))
		return &BatchResult{}, nil
	}

	batch := &BatchResult{Results: make([]ImportResult, 0, len(paths))}
	for _, path := range paths {
		result, err := s.ImportFile(ctx, path)
		if err != nil {
			// Unreadable or unparseable file: no session exists yet.
			s.logger.Error("Skipping snapshot file",
				zap.String("path", path),
				zap.Error(err))
			batch.Failed++
			continue
		}
		batch.Results = append(batch.Results, *result)
		if result.Failed() {
			batch.Failed++
		}
	}

	s.logger.Info("Batch import finished",
		zap.Int("files", len(paths)),
		zap.Int("failed", batch.Failed))
	return batch, nil
}

// ImportSnapshot imports one already-decoded snapshot document.
func (s *ImportService) ImportSnapshot(ctx context.Context, doc *snapshot.Document) (*ImportResult, error) {
	ctx, span := util.StartSpan(ctx, "ImportService.ImportSnapshot")
	defer span.End()

	start := time.Now()
	defer func() {
		util.ImportDuration.Observe(time.Since(start).Seconds())
	}()

	session := &models.ImportSession{
		ID:        uuid.New(),
		Platform:  doc.Metadata.Domain,
		URL:       doc.Source.URL,
		StartedAt: start,
		Status:    models.SessionStatusRunning,
	}

	if err := doc.Validate(); err != nil {
		// The document never reached the data path; record the failed
		// attempt and move on.
		util.SnapshotsFailedTotal.WithLabelValues("validation").Inc()
		if sessErr := s.store.CreateSession(ctx, session); sessErr != nil {
			return nil, fmt.Errorf("failed to record session: %w", sessErr)
		}
		return s.finishFailed(ctx, session, models.ImportError{
			Stage:   "validate",
			Message: err.Error(),
		})
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to record session: %w", err)
	}

	s.logger.Info("Import session started",
		zap.String("session_id", session.ID.String()),
		zap.String("restaurant", doc.Restaurant.Name),
		zap.String("platform", doc.Metadata.Domain))

	var outcome *txOutcome
	var err error
	for attempt := 1; attempt <= s.retryAttempts; attempt++ {
		outcome, err = s.runImportTx(ctx, doc)
		if err == nil {
			break
		}
		if !store.IsRetryable(err) || attempt == s.retryAttempts {
			break
		}
		util.ImportRetriesTotal.Inc()
		s.logger.Warn("Transient store failure, retrying session",
			zap.String("session_id", session.ID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err))
		select {
		case <-time.After(time.Duration(attempt) * s.retryBackoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		util.SnapshotsFailedTotal.WithLabelValues("store").Inc()
		return s.finishFailed(ctx, session, models.ImportError{
			Stage:   "import",
			Message: err.Error(),
		})
	}

	if err := s.store.SetSessionRestaurant(ctx, session.ID, outcome.restaurantID); err != nil {
		s.logger.Error("Failed to link session to restaurant", zap.Error(err))
	}

	// Extraction-time anomalies are pass-through records; only errors
	// raised by the import itself downgrade the session to partial.
	status := models.SessionStatusCompleted
	for _, e := range outcome.errors {
		if e.Stage != "extraction" {
			status = models.SessionStatusPartial
			break
		}
	}
	if err := s.finishSession(ctx, session.ID, status, outcome); err != nil {
		return nil, err
	}

	util.SnapshotsImportedTotal.Inc()
	s.logger.Info("Import session finished",
		zap.String("session_id", session.ID.String()),
		zap.String("status", status),
		zap.Int("products", outcome.productCount),
		zap.Int("categories", outcome.categoryCount),
		zap.Int("price_points", outcome.pricePoints))

	s.publishCompleted(ctx, session.ID, doc.Restaurant.Name, status, outcome)

	return &ImportResult{
		SessionID:     session.ID,
		RestaurantID:  &outcome.restaurantID,
		Status:        status,
		ProductCount:  outcome.productCount,
		CategoryCount: outcome.categoryCount,
		PricePoints:   outcome.pricePoints,
		Errors:        outcome.errors,
	}, nil
}

// txOutcome carries the counts gathered inside one committed session.
type txOutcome struct {
	restaurantID  uuid.UUID
	productCount  int
	categoryCount int
	pricePoints   int
	errors        []models.ImportError
}

// runImportTx runs the whole data path for one snapshot inside a single
// transaction: resolve entities, extract offers, reconcile each product
// and append its price observation, then commit.
func (s *ImportService) runImportTx(ctx context.Context, doc *snapshot.Document) (*txOutcome, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	observedAt := doc.ObservedAt()
	outcome := &txOutcome{errors: extractionErrors(doc.Errors)}

	ctx, span := util.StartSpan(ctx, "ImportService.runImportTx")
	defer span.End()

	restaurantID, err := s.resolver.ResolveRestaurant(ctx, tx, &doc.Restaurant)
	if err != nil {
		return nil, err
	}
	outcome.restaurantID = restaurantID

	categories, err := s.resolver.ResolveCategories(ctx, tx, restaurantID, doc.Categories)
	if err != nil {
		return nil, err
	}
	outcome.categoryCount = len(doc.Categories)

	offerIDs, err := s.offers.Extract(ctx, tx, restaurantID, doc.Products, observedAt)
	if err != nil {
		return nil, err
	}

	for i := range doc.Products {
		item := &doc.Products[i]
		if err := item.Validate(); err != nil {
			outcome.errors = append(outcome.errors, models.ImportError{
				Stage:   "product",
				Item:    item.Name,
				Message: err.Error(),
			})
			continue
		}

		categoryID, ok := categories[item.Category]
		if !ok {
			categoryID = categories[snapshot.FallbackCategory]
		}

		productID, err := s.reconciler.Resolve(ctx, tx, restaurantID, categoryID, item)
		if err != nil {
			return nil, err
		}

		var offerID *uuid.UUID
		var offerName *string
		if name, ok := s.offers.OfferNameFor(item); ok {
			if id, resolved := offerIDs[name]; resolved {
				offerID = &id
				offerName = &name
			}
		}

		inserted, err := s.prices.Append(ctx, tx, productID, item, offerID, offerName, observedAt)
		if err != nil {
			return nil, err
		}
		if inserted {
			outcome.pricePoints++
		}
		outcome.productCount++
	}

	if err := s.resolver.RecordRestaurantSnapshot(ctx, tx, restaurantID, doc); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit session: %w", err)
	}
	return outcome, nil
}

func (s *ImportService) finishSession(ctx context.Context, sessionID uuid.UUID, status string, outcome *txOutcome) error {
	errs, err := marshalErrors(outcome.errors)
	if err != nil {
		return err
	}
	if err := s.store.FinishSession(ctx, sessionID, status,
		outcome.productCount, outcome.categoryCount, len(outcome.errors), errs, time.Now()); err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}
	return nil
}

// finishFailed marks the session failed with its error recorded. The
// failure itself is reported to the caller; the batch driver decides to
// continue.
func (s *ImportService) finishFailed(ctx context.Context, session *models.ImportSession, cause models.ImportError) (*ImportResult, error) {
	errorList := []models.ImportError{cause}
	errs, err := marshalErrors(errorList)
	if err != nil {
		return nil, err
	}
	if err := s.store.FinishSession(ctx, session.ID, models.SessionStatusFailed,
		0, 0, len(errorList), errs, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to finish session: %w", err)
	}

	s.logger.Error("Import session failed",
		zap.String("session_id", session.ID.String()),
		zap.String("url", session.URL),
		zap.String("cause", cause.Message))

	s.publishFailed(ctx, session, cause.Message)

	return &ImportResult{
		SessionID: session.ID,
		Status:    models.SessionStatusFailed,
		Errors:    errorList,
	}, nil
}

// publishCompleted emits the session event. Publishing is best-effort:
// a broker failure is logged and never fails the committed import.
func (s *ImportService) publishCompleted(ctx context.Context, sessionID uuid.UUID, restaurantName, status string, outcome *txOutcome) {
	if s.eventPublisher == nil {
		return
	}
	event := &models.ImportCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeImportCompleted,
			Timestamp: time.Now(),
		},
		SessionID:      sessionID,
		RestaurantID:   outcome.restaurantID,
		RestaurantName: restaurantName,
		Status:         status,
		ProductCount:   outcome.productCount,
		CategoryCount:  outcome.categoryCount,
		PricePoints:    outcome.pricePoints,
	}
	if err := s.eventPublisher.PublishImportCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish ImportCompleted event", zap.Error(err))
	}
}

func (s *ImportService) publishFailed(ctx context.Context, session *models.ImportSession, reason string) {
	if s.eventPublisher == nil {
		return
	}
	event := &models.ImportFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeImportFailed,
			Timestamp: time.Now(),
		},
		SessionID: session.ID,
		URL:       session.URL,
		Reason:    reason,
	}
	if err := s.eventPublisher.PublishImportFailed(ctx, event); err != nil {
		s.logger.Error("Failed to publish ImportFailed event", zap.Error(err))
	}
}

// extractionErrors passes the extraction layer's recorded anomalies
// through into the session record without reprocessing them.
func extractionErrors(raw []json.RawMessage) []models.ImportError {
	if len(raw) == 0 {
		return nil
	}
	errs := make([]models.ImportError, 0, len(raw))
	for _, r := range raw {
		errs = append(errs, models.ImportError{
			Stage:   "extraction",
			Message: string(r),
		})
	}
	return errs
}

func marshalErrors(errs []models.ImportError) (types.JSONText, error) {
	if len(errs) == 0 {
		return types.JSONText("[]"), nil
	}
	data, err := json.Marshal(errs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session errors: %w", err)
	}
	return types.JSONText(data), nil
}
