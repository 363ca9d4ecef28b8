package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lachiem1/giddycycles/internal/cycles"
	"github.com/lachiem1/giddycycles/internal/remote"
	"github.com/lachiem1/giddycycles/internal/storage"
)

const defaultLedgerWorkers = 4

// errNotPayment marks a transaction flowing the opposite way to the
// obligation's payments, such as a refund or reversal.
var errNotPayment = errors.New("not a payment")

// LedgerClient is the part of the backend client the ledger syncer needs.
type LedgerClient interface {
	ListTransactions(ctx context.Context, obligationID string, opts remote.LedgerListOptions) (*remote.ListResponse, error)
	ListBills(ctx context.Context, obligationID string, opts remote.LedgerListOptions) (*remote.ListResponse, error)
}

// LedgerSyncer refreshes transactions and bills for every cached obligation.
type LedgerSyncer struct {
	client      LedgerClient
	obligations *storage.ObligationsRepo
	ledger      *storage.LedgerRepo
	syncState   *storage.SyncStateRepo
	workers     int
	log         *logrus.Logger
}

func NewLedgerSyncer(
	client LedgerClient,
	obligations *storage.ObligationsRepo,
	ledger *storage.LedgerRepo,
	syncState *storage.SyncStateRepo,
	workers int,
	log *logrus.Logger,
) *LedgerSyncer {
	if workers <= 0 {
		workers = defaultLedgerWorkers
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LedgerSyncer{
		client:      client,
		obligations: obligations,
		ledger:      ledger,
		syncState:   syncState,
		workers:     workers,
		log:         log,
	}
}

func (s *LedgerSyncer) Collection() string {
	return CollectionLedger
}

// DependsOn reports that ledgers are fetched per cached obligation.
func (s *LedgerSyncer) DependsOn() []string {
	return []string{CollectionObligations}
}

func (s *LedgerSyncer) HasCachedData(ctx context.Context) (bool, error) {
	return s.ledger.HasAny(ctx)
}

func (s *LedgerSyncer) LastSuccessAt(ctx context.Context) (time.Time, bool, error) {
	return lastSuccessAt(ctx, s.syncState, s.Collection())
}

type obligationLedger struct {
	obligationID string
	transactions []storage.TransactionRecord
	bills        []storage.BillRecord
}

func (s *LedgerSyncer) Sync(ctx context.Context) error {
	return runSyncAttempt(ctx, s.syncState, s.Collection(), func(runCtx context.Context) (time.Time, error) {
		obligations, err := s.obligations.List(runCtx)
		if err != nil {
			return time.Time{}, err
		}
		ids := make([]string, 0, len(obligations))
		kinds := make(map[string]cycles.Kind, len(obligations))
		for _, o := range obligations {
			ids = append(ids, o.ID)
			kinds[o.ID] = cycles.Kind(o.Kind)
		}

		ledgers, err := fetchAllByID(runCtx, ids, s.workers, func(ctx context.Context, id string) (obligationLedger, error) {
			return s.fetchLedger(ctx, id, kinds[id])
		})
		if err != nil {
			return time.Time{}, err
		}

		fetchedAt := time.Now().UTC()
		for _, l := range ledgers {
			if err := s.ledger.ReplaceForObligation(runCtx, l.obligationID, l.transactions, l.bills, fetchedAt); err != nil {
				return time.Time{}, err
			}
		}
		return fetchedAt, nil
	})
}

// fetchLedger pulls one obligation's transactions and bills. Records that
// cannot be mapped are logged and left out so the rest of the ledger still
// lands.
func (s *LedgerSyncer) fetchLedger(ctx context.Context, obligationID string, kind cycles.Kind) (obligationLedger, error) {
	txList, err := s.client.ListTransactions(ctx, obligationID, remote.LedgerListOptions{})
	if err != nil {
		return obligationLedger{}, fmt.Errorf("list transactions for %q: %w", obligationID, err)
	}
	billList, err := s.client.ListBills(ctx, obligationID, remote.LedgerListOptions{})
	if err != nil {
		return obligationLedger{}, fmt.Errorf("list bills for %q: %w", obligationID, err)
	}

	out := obligationLedger{
		obligationID: obligationID,
		transactions: make([]storage.TransactionRecord, 0, len(txList.Data)),
		bills:        make([]storage.BillRecord, 0, len(billList.Data)),
	}
	for _, res := range txList.Data {
		rec, err := mapTransaction(obligationID, kind, res)
		if err != nil {
			s.skipRecord(obligationID, "transaction", res.ID, err)
			continue
		}
		out.transactions = append(out.transactions, rec)
	}
	for _, res := range billList.Data {
		rec, err := mapBill(obligationID, res)
		if err != nil {
			s.skipRecord(obligationID, "bill", res.ID, err)
			continue
		}
		out.bills = append(out.bills, rec)
	}
	return out, nil
}

func (s *LedgerSyncer) skipRecord(obligationID, recordType, id string, err error) {
	entry := s.log.WithFields(logrus.Fields{
		"obligation_id": obligationID,
		"record_type":   recordType,
		"record_id":     id,
	}).WithError(err)
	if errors.Is(err, errNotPayment) {
		entry.Debug("skipping ledger record")
		return
	}
	entry.Warn("skipping ledger record")
}

// paymentAmount returns the magnitude of a transaction that pays toward an
// obligation. Goals are paid by deposits. Every other kind is paid by debits
// from the paying account.
func paymentAmount(kind cycles.Kind, raw string) (string, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q", raw)
	}
	credit := d.IsPositive()
	if kind == cycles.KindGoal {
		credit = d.IsNegative()
	}
	if credit {
		return "", fmt.Errorf("%w: amount %s", errNotPayment, d.String())
	}
	return d.Abs().String(), nil
}

func mapTransaction(obligationID string, kind cycles.Kind, res remote.Resource) (storage.TransactionRecord, error) {
	if res.ID == "" {
		return storage.TransactionRecord{}, errors.New("transaction id is empty")
	}
	attrs := res.Attributes
	if attrs == nil {
		return storage.TransactionRecord{}, fmt.Errorf("transaction %q missing attributes", res.ID)
	}
	wrap := func(err error) error {
		return fmt.Errorf("transaction %q: %w", res.ID, err)
	}

	amount, err := moneyAttr(attrs, "amount")
	if err != nil {
		return storage.TransactionRecord{}, wrap(err)
	}
	if amount == nil {
		return storage.TransactionRecord{}, wrap(errors.New("missing amount"))
	}
	paid, err := paymentAmount(kind, *amount)
	if err != nil {
		return storage.TransactionRecord{}, wrap(err)
	}

	// Settled date wins over the creation timestamp when both exist.
	postedOn, err := optionalStringAttr(attrs, "settledAt")
	if err != nil {
		return storage.TransactionRecord{}, wrap(err)
	}
	if postedOn == nil {
		created, err := stringAttr(attrs, "createdAt")
		if err != nil {
			return storage.TransactionRecord{}, wrap(err)
		}
		postedOn = &created
	}
	day, err := cycles.ParseDate(*postedOn)
	if err != nil {
		return storage.TransactionRecord{}, wrap(err)
	}

	rec := storage.TransactionRecord{
		ID:           res.ID,
		ObligationID: obligationID,
		AmountValue:  paid,
		PostedOn:     cycles.FormatDate(day),
		Metadata:     map[string]string{},
	}
	if desc, err := optionalStringAttr(attrs, "description"); err != nil {
		return storage.TransactionRecord{}, wrap(err)
	} else if desc != nil {
		rec.Description = *desc
	}
	if raw, err := optionalStringAttr(attrs, "rawText"); err != nil {
		return storage.TransactionRecord{}, wrap(err)
	} else if raw != nil {
		rec.RawText = *raw
	}
	if accountID := relationshipID(res.Relationships, "account"); accountID != "" {
		rec.Metadata["account_id"] = accountID
	}
	if status, _ := optionalStringAttr(attrs, "status"); status != nil {
		rec.Metadata["status"] = *status
	}
	return rec, nil
}

func mapBill(obligationID string, res remote.Resource) (storage.BillRecord, error) {
	if res.ID == "" {
		return storage.BillRecord{}, errors.New("bill id is empty")
	}
	attrs := res.Attributes
	if attrs == nil {
		return storage.BillRecord{}, fmt.Errorf("bill %q missing attributes", res.ID)
	}
	wrap := func(err error) error {
		return fmt.Errorf("bill %q: %w", res.ID, err)
	}

	amount, err := moneyAttr(attrs, "amount")
	if err != nil {
		return storage.BillRecord{}, wrap(err)
	}
	if amount == nil {
		return storage.BillRecord{}, wrap(errors.New("missing amount"))
	}
	dueRaw, err := stringAttr(attrs, "dueDate")
	if err != nil {
		return storage.BillRecord{}, wrap(err)
	}
	due, err := cycles.ParseDate(dueRaw)
	if err != nil {
		return storage.BillRecord{}, wrap(err)
	}

	rec := storage.BillRecord{
		ID:           res.ID,
		ObligationID: obligationID,
		AmountValue:  absMoney(*amount),
		DueOn:        cycles.FormatDate(due),
	}
	if rec.TotalAmountValue, err = moneyAttr(attrs, "totalAmount"); err != nil {
		return storage.BillRecord{}, wrap(err)
	}
	if status, err := optionalStringAttr(attrs, "status"); err != nil {
		return storage.BillRecord{}, wrap(err)
	} else if status != nil {
		rec.Status = *status
	}
	return rec, nil
}
