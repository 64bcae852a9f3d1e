package app

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"gophercalc/internal/model"
	"gophercalc/internal/observability"
	"gophercalc/internal/pkg/operations"
)

var ErrCalculationNotFound = errors.New("calculation not found")

const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 1000
)

type CalculationStore interface {
	Create(ctx context.Context, calc *model.Calculation) error
	ListByUserID(ctx context.Context, userID uint, offset, limit int) ([]model.Calculation, error)
	GetByIDAndUserID(ctx context.Context, id, userID uint) (*model.Calculation, error)
	Update(ctx context.Context, calc *model.Calculation) error
	DeleteByIDAndUserID(ctx context.Context, id, userID uint) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, userID uint) ([]model.Calculation, bool, error)
	SetHistory(ctx context.Context, userID uint, calcs []model.Calculation) error
	Invalidate(ctx context.Context, userID uint) error
}

// CalculationService owns the arithmetic records. Every operation is
// scoped to the calling user; rows belonging to other users behave as
// if they do not exist.
type CalculationService struct {
	calcs   CalculationStore
	history HistoryCache
	logger  *logrus.Logger
	metrics *observability.Metrics
}

type CalculationInput struct {
	A    float64
	B    float64
	Type string
}

// CalculationUpdateInput uses pointers so zero is a settable value.
type CalculationUpdateInput struct {
	A    *float64
	B    *float64
	Type *string
}

func NewCalculationService(calcs CalculationStore, history HistoryCache, logger *logrus.Logger, metrics *observability.Metrics) *CalculationService {
	return &CalculationService{
		calcs:   calcs,
		history: history,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *CalculationService) Create(ctx context.Context, userID uint, input CalculationInput) (*model.Calculation, error) {
	result, err := operations.Calculate(input.A, input.B, input.Type)
	if err != nil {
		return nil, err
	}

	calc := &model.Calculation{
		UserID: userID,
		A:      input.A,
		B:      input.B,
		Type:   input.Type,
		Result: result,
	}
	if err := s.calcs.Create(ctx, calc); err != nil {
		return nil, err
	}
	s.invalidateHistory(ctx, userID)

	s.logger.WithFields(logrus.Fields{
		"user_id":        userID,
		"calculation_id": calc.ID,
		"type":           calc.Type,
	}).Info("calculation created")
	return calc, nil
}

// List returns a page of the user's history, newest first. The default
// page is served from Redis when present; other pages always hit the
// database.
func (s *CalculationService) List(ctx context.Context, userID uint, offset, limit int) ([]model.Calculation, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	defaultPage := offset == 0 && limit == DefaultHistoryLimit
	if defaultPage {
		cached, ok, err := s.history.GetHistory(ctx, userID)
		switch {
		case err != nil:
			s.logger.WithError(err).WithField("user_id", userID).Warn("read calculation history cache failed")
		case ok:
			s.metrics.CacheHitsTotal.Inc()
			return cached, nil
		default:
			s.metrics.CacheMissesTotal.Inc()
		}
	}

	calcs, err := s.calcs.ListByUserID(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}

	if defaultPage {
		if err := s.history.SetHistory(ctx, userID, calcs); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("write calculation history cache failed")
		}
	}
	return calcs, nil
}

func (s *CalculationService) Get(ctx context.Context, userID, id uint) (*model.Calculation, error) {
	calc, err := s.calcs.GetByIDAndUserID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if calc == nil {
		return nil, ErrCalculationNotFound
	}
	return calc, nil
}

// Update applies the provided fields and recomputes the result. With
// no fields set the stored record comes back unchanged.
func (s *CalculationService) Update(ctx context.Context, userID, id uint, input CalculationUpdateInput) (*model.Calculation, error) {
	calc, err := s.calcs.GetByIDAndUserID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if calc == nil {
		return nil, ErrCalculationNotFound
	}

	if input.A == nil && input.B == nil && input.Type == nil {
		return calc, nil
	}

	if input.A != nil {
		calc.A = *input.A
	}
	if input.B != nil {
		calc.B = *input.B
	}
	if input.Type != nil {
		calc.Type = *input.Type
	}

	result, err := operations.Calculate(calc.A, calc.B, calc.Type)
	if err != nil {
		return nil, err
	}
	calc.Result = result

	if err := s.calcs.Update(ctx, calc); err != nil {
		return nil, err
	}
	s.invalidateHistory(ctx, userID)

	s.logger.WithFields(logrus.Fields{
		"user_id":        userID,
		"calculation_id": calc.ID,
	}).Info("calculation updated")
	return calc, nil
}

func (s *CalculationService) Delete(ctx context.Context, userID, id uint) error {
	calc, err := s.calcs.GetByIDAndUserID(ctx, id, userID)
	if err != nil {
		return err
	}
	if calc == nil {
		return ErrCalculationNotFound
	}

	if err := s.calcs.DeleteByIDAndUserID(ctx, id, userID); err != nil {
		return err
	}
	s.invalidateHistory(ctx, userID)

	s.logger.WithFields(logrus.Fields{
		"user_id":        userID,
		"calculation_id": id,
	}).Info("calculation deleted")
	return nil
}

// A stale cache would serve deleted or outdated rows for up to the
// TTL, so every write path drops the user's entry.
func (s *CalculationService) invalidateHistory(ctx context.Context, userID uint) {
	if err := s.history.Invalidate(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("invalidate calculation history cache failed")
	}
}
