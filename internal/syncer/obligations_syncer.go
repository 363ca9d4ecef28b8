package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lachiem1/giddycycles/internal/cycles"
	"github.com/lachiem1/giddycycles/internal/remote"
	"github.com/lachiem1/giddycycles/internal/storage"
)

// ObligationsClient is the part of the backend client the obligations
// syncer needs.
type ObligationsClient interface {
	ListObligations(ctx context.Context) (*remote.ListResponse, error)
}

type ObligationsSyncer struct {
	client      ObligationsClient
	obligations *storage.ObligationsRepo
	syncState   *storage.SyncStateRepo
}

func NewObligationsSyncer(
	client ObligationsClient,
	obligations *storage.ObligationsRepo,
	syncState *storage.SyncStateRepo,
) *ObligationsSyncer {
	return &ObligationsSyncer{
		client:      client,
		obligations: obligations,
		syncState:   syncState,
	}
}

func (s *ObligationsSyncer) Collection() string {
	return CollectionObligations
}

func (s *ObligationsSyncer) HasCachedData(ctx context.Context) (bool, error) {
	return s.obligations.HasActiveObligations(ctx)
}

func (s *ObligationsSyncer) LastSuccessAt(ctx context.Context) (time.Time, bool, error) {
	return lastSuccessAt(ctx, s.syncState, s.Collection())
}

func (s *ObligationsSyncer) Sync(ctx context.Context) error {
	return runSyncAttempt(ctx, s.syncState, s.Collection(), func(runCtx context.Context) (time.Time, error) {
		list, err := s.client.ListObligations(runCtx)
		if err != nil {
			return time.Time{}, err
		}

		records := make([]storage.ObligationRecord, 0, len(list.Data))
		for _, res := range list.Data {
			rec, err := mapObligation(res)
			if err != nil {
				return time.Time{}, err
			}
			records = append(records, rec)
		}

		fetchedAt := time.Now().UTC()
		if err := s.obligations.ReplaceSnapshot(runCtx, records, fetchedAt); err != nil {
			return time.Time{}, err
		}
		return fetchedAt, nil
	})
}

var kindAliases = map[string]cycles.Kind{
	"liability":             cycles.KindLiability,
	"loan":                  cycles.KindLiability,
	"debt":                  cycles.KindLiability,
	"budget":                cycles.KindBudget,
	"goal":                  cycles.KindGoal,
	"savings_goal":          cycles.KindGoal,
	"recurring":             cycles.KindRecurring,
	"recurring_transaction": cycles.KindRecurring,
	"subscription":          cycles.KindRecurring,
}

func normalizeKind(raw string) (cycles.Kind, bool) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(raw))]
	return k, ok
}

func mapObligation(res remote.Resource) (storage.ObligationRecord, error) {
	if res.ID == "" {
		return storage.ObligationRecord{}, errors.New("obligation id is empty")
	}
	attrs := res.Attributes
	if attrs == nil {
		return storage.ObligationRecord{}, fmt.Errorf("obligation %q missing attributes", res.ID)
	}

	wrap := func(err error) error {
		return fmt.Errorf("obligation %q: %w", res.ID, err)
	}

	name, err := stringAttr(attrs, "name")
	if err != nil {
		return storage.ObligationRecord{}, wrap(err)
	}
	kindRaw, err := stringAttr(attrs, "kind")
	if err != nil {
		return storage.ObligationRecord{}, wrap(err)
	}
	kind, ok := normalizeKind(kindRaw)
	if !ok {
		return storage.ObligationRecord{}, wrap(fmt.Errorf("unknown kind %q", kindRaw))
	}
	startDate, err := stringAttr(attrs, "startDate")
	if err != nil {
		return storage.ObligationRecord{}, wrap(err)
	}
	if _, err := cycles.ParseDate(startDate); err != nil {
		return storage.ObligationRecord{}, wrap(fmt.Errorf("%w: %v", cycles.ErrInvalidStartDate, err))
	}
	freqRaw, err := stringAttr(attrs, "frequency")
	if err != nil {
		return storage.ObligationRecord{}, wrap(err)
	}
	freq, ok := cycles.ParseFrequency(freqRaw)
	if !ok {
		return storage.ObligationRecord{}, wrap(fmt.Errorf("%w: unknown frequency %q", cycles.ErrInvalidRecurrence, freqRaw))
	}

	rec := storage.ObligationRecord{
		ID:        res.ID,
		Name:      name,
		Kind:      string(kind),
		StartDate: startDate,
		Frequency: string(freq),
		Interval:  1,
	}

	if interval, err := optionalIntAttr(attrs, "interval"); err != nil {
		return storage.ObligationRecord{}, wrap(err)
	} else if interval != nil {
		rec.Interval = *interval
	}
	if rec.EndDate, err = optionalStringAttr(attrs, "endDate"); err != nil {
		return storage.ObligationRecord{}, wrap(err)
	}

	amount, err := moneyAttr(attrs, "amount")
	if err != nil {
		return storage.ObligationRecord{}, wrap(err)
	}
	if amount == nil {
		zero := "0"
		amount = &zero
	}
	rec.AmountValue = *amount

	if rec.MinimumValue, err = moneyAttr(attrs, "minimumAmount"); err != nil {
		return storage.ObligationRecord{}, wrap(err)
	}
	if rec.ToleranceDays, err = optionalIntAttr(attrs, "toleranceDays"); err != nil {
		return storage.ObligationRecord{}, wrap(err)
	}
	if rec.AllowsMultiplePayments, err = boolAttr(attrs, "allowsMultiplePayments"); err != nil {
		return storage.ObligationRecord{}, wrap(err)
	}
	if rec.PrincipalValue, err = moneyAttr(attrs, "principal"); err != nil {
		return storage.ObligationRecord{}, wrap(err)
	}
	if rec.AnnualRate, err = moneyAttr(attrs, "annualRate"); err != nil {
		return storage.ObligationRecord{}, wrap(err)
	}
	if rec.TargetValue, err = moneyAttr(attrs, "targetAmount"); err != nil {
		return storage.ObligationRecord{}, wrap(err)
	}
	if term, err := optionalIntAttr(attrs, "termCycles"); err != nil {
		return storage.ObligationRecord{}, wrap(err)
	} else if term != nil {
		rec.TermCycles = *term
	}
	if offset, err := optionalIntAttr(attrs, "dueOffsetDays"); err != nil {
		return storage.ObligationRecord{}, wrap(err)
	} else if offset != nil {
		rec.DueOffsetDays = *offset
	}

	return rec, nil
}
