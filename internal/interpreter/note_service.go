package interpreter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shanti-orders/internal/models"
	"shanti-orders/internal/service"
	"shanti-orders/internal/util"

	"go.uber.org/zap"
)

// Outcome tells the caller how an AI call ended. A failed call is not an
// error: the caller shows an empty result and a retry hint.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeEmpty  Outcome = "empty"
	OutcomeFailed Outcome = "failed"
)

const aiDetectedDescription = "AI detected"

type NoteResult struct {
	Items   []InterpretedItem `json:"items"`
	Outcome Outcome           `json:"outcome"`
}

type SuggestResult struct {
	Suggestions *Suggestions `json:"suggestions,omitempty"`
	Outcome     Outcome      `json:"outcome"`
}

// NoteService guards and times AI calls made on behalf of a composer
type NoteService struct {
	ai      Interpreter
	locker  service.Locker
	timeout time.Duration
	logger  *zap.Logger
}

func NewNoteService(ai Interpreter, locker service.Locker, timeout time.Duration) *NoteService {
	return &NoteService{
		ai:      ai,
		locker:  locker,
		timeout: timeout,
		logger:  util.GetLogger(),
	}
}

// Interpret reads a note for a composer. Only one call per composer may
// be outstanding; a second one fails with service.ErrBusy.
func (s *NoteService) Interpret(ctx context.Context, composerID, note string) (*NoteResult, error) {
	if strings.TrimSpace(note) == "" {
		return nil, &service.ValidationError{Fields: map[string]bool{service.FieldNote: true}}
	}

	ctx, span := util.StartSpan(ctx, "NoteService.Interpret")
	defer span.End()

	var result *NoteResult
	err := s.guard(ctx, "interpret:"+composerID, func() {
		var items []InterpretedItem
		outcome := s.call(ctx, "interpret", func(ctx context.Context) (bool, error) {
			var err error
			items, err = s.ai.Interpret(ctx, note)
			return len(items) > 0, err
		})
		if outcome != OutcomeOK {
			items = nil
		}
		result = &NoteResult{Items: items, Outcome: outcome}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Suggest runs a symptom or name search
func (s *NoteService) Suggest(ctx context.Context, composerID, query string) (*SuggestResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &service.ValidationError{Fields: map[string]bool{service.FieldQuery: true}}
	}

	ctx, span := util.StartSpan(ctx, "NoteService.Suggest")
	defer span.End()

	var result *SuggestResult
	err := s.guard(ctx, "suggest:"+composerID, func() {
		var sugg *Suggestions
		outcome := s.call(ctx, "suggest", func(ctx context.Context) (bool, error) {
			var err error
			sugg, err = s.ai.Suggest(ctx, query)
			return sugg != nil && len(sugg.Medicines) > 0, err
		})
		if outcome == OutcomeFailed {
			sugg = nil
		}
		result = &SuggestResult{Suggestions: sugg, Outcome: outcome}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *NoteService) guard(ctx context.Context, key string, fn func()) error {
	ok, err := s.locker.TryLock(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to acquire ai lock: %w", err)
	}
	if !ok {
		return service.ErrBusy
	}
	defer func() {
		if err := s.locker.Unlock(context.Background(), key); err != nil {
			s.logger.Error("Failed to release ai lock", zap.String("key", key), zap.Error(err))
		}
	}()
	fn()
	return nil
}

func (s *NoteService) call(ctx context.Context, operation string, fn func(context.Context) (bool, error)) Outcome {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	found, err := fn(ctx)
	util.AICallLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeFailed
		s.logger.Warn("AI call failed", zap.String("operation", operation), zap.Error(err))
	case !found:
		outcome = OutcomeEmpty
	}
	util.AICallsTotal.WithLabelValues(operation, string(outcome)).Inc()
	return outcome
}

// ToCartItems turns interpreted medicines into cart additions
func ToCartItems(items []InterpretedItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(items))
	for _, it := range items {
		q := it.Quantity
		if q < 1 {
			q = 1
		}
		out = append(out, models.CartItem{
			Medicine: models.Medicine{
				Name:        it.Name,
				Category:    it.Category,
				Price:       it.Price,
				Description: aiDetectedDescription,
			}.Canonical(),
			Quantity: q,
		})
	}
	return out
}
