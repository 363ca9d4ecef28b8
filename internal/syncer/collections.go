package syncer

const (
	CollectionObligations = "obligations"
	CollectionLedger      = "ledger"
)
