package reminder

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lachiem1/giddycycles/internal/cycles"
	"github.com/lachiem1/giddycycles/internal/storage"
)

// StoreSource computes cycles from the local cache.
type StoreSource struct {
	db        *sql.DB
	maxCycles int
	log       *logrus.Logger
}

func NewStoreSource(db *sql.DB, maxCycles int, log *logrus.Logger) *StoreSource {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StoreSource{db: db, maxCycles: maxCycles, log: log}
}

// CyclesAsOf computes every cached obligation. An obligation whose
// configuration is invalid is logged and skipped so one bad record does not
// silence the rest.
func (s *StoreSource) CyclesAsOf(ctx context.Context, asOf time.Time) ([]ObligationCycles, error) {
	records, err := storage.NewObligationsRepo(s.db).List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ObligationCycles, 0, len(records))
	for _, rec := range records {
		snap, err := storage.LoadSnapshot(ctx, s.db, rec.ID)
		if err != nil {
			s.log.WithError(err).WithField("obligation_id", rec.ID).Warn("skipping obligation")
			continue
		}
		cs, err := snap.Compute(cycles.Options{AsOf: asOf, MaxCycles: s.maxCycles})
		if err != nil {
			s.log.WithError(err).WithField("obligation_id", rec.ID).Warn("skipping obligation")
			continue
		}
		out = append(out, ObligationCycles{ID: rec.ID, Name: rec.Name, Cycles: cs})
	}
	return out, nil
}
