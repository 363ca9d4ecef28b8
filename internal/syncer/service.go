package syncer

import "context"

// Service is the view-level facade over the engine used by the TUI and CLI.
type Service struct {
	engine *Engine
}

func NewService(engine *Engine) *Service {
	return &Service{engine: engine}
}

func (s *Service) EnterObligationsView(ctx context.Context) error {
	return s.engine.EnterView(ctx, CollectionObligations)
}

func (s *Service) RefreshObligations() error {
	return s.engine.ManualRefresh(CollectionObligations)
}

// EnterCyclesView keeps the ledger fresh while cycles are on screen. A stale
// obligations cache is pulled first.
func (s *Service) EnterCyclesView(ctx context.Context) error {
	return s.engine.EnterView(ctx, CollectionLedger)
}

func (s *Service) RefreshLedger() error {
	return s.engine.ManualRefresh(CollectionLedger)
}

func (s *Service) LeaveView() {
	s.engine.LeaveView()
}

// SyncAll fetches obligations and then their ledgers once.
func (s *Service) SyncAll(ctx context.Context) error {
	return s.engine.SyncAll(ctx)
}
