package syncer

import (
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lachiem1/giddycycles/internal/remote"
	"github.com/lachiem1/giddycycles/internal/storage"
)

// Options configures NewObligationsService. Zero values use engine defaults.
type Options struct {
	StaleTTL     time.Duration
	PollInterval time.Duration
	Workers      int
	Log          *logrus.Logger
	// OnEvent receives every engine event after it is logged.
	OnEvent func(Event)
}

// NewObligationsService wires the obligations and ledger syncers onto one
// engine backed by db.
func NewObligationsService(db *sql.DB, client *remote.Client, opts Options) (*Service, error) {
	obligationsRepo := storage.NewObligationsRepo(db)
	syncStateRepo := storage.NewSyncStateRepo(db)

	obligationsSyncer := NewObligationsSyncer(client, obligationsRepo, syncStateRepo)
	ledgerSyncer := NewLedgerSyncer(client, obligationsRepo, storage.NewLedgerRepo(db), syncStateRepo, opts.Workers, opts.Log)

	engine, err := New(
		Config{
			StaleTTL:     opts.StaleTTL,
			PollInterval: opts.PollInterval,
			Backoff:      []time.Duration{2 * time.Second, 5 * time.Second, 15 * time.Second, 60 * time.Second},
		},
		[]Syncer{obligationsSyncer, ledgerSyncer},
		loggingHandler(opts.Log, opts.OnEvent),
	)
	if err != nil {
		return nil, err
	}
	return NewService(engine), nil
}

func loggingHandler(log *logrus.Logger, next func(Event)) func(Event) {
	return func(evt Event) {
		if log != nil {
			entry := log.WithFields(logrus.Fields{
				"collection": evt.Collection,
				"event":      string(evt.Type),
			})
			switch evt.Type {
			case EventSyncFailed:
				entry.WithError(evt.Err).Warn("sync failed")
			case EventSyncOK:
				entry.WithField("duration", evt.Duration.String()).Info("sync complete")
			default:
				entry.Debug("sync started")
			}
		}
		if next != nil {
			next(evt)
		}
	}
}
