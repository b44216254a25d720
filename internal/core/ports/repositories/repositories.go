package repositories

// LedgerStore is the durable keyed storage for accounts and their append-only movement
// logs. Implementations must make AppendMovementAndUpdateBalance atomic per account and
// must never serialize writes to different accounts behind one lock.
type LedgerStore interface {
	AccountRepositoryFacade
	MovementRepositoryFacade
	StoreLifecycle
}

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	AccountRepo  AccountRepositoryFacade
	MovementRepo MovementRepositoryFacade
	Lifecycle    StoreLifecycle
}

// NewRepositoryProvider exposes a single LedgerStore through the provider.
func NewRepositoryProvider(store LedgerStore) RepositoryProvider {
	return RepositoryProvider{
		AccountRepo:  store,
		MovementRepo: store,
		Lifecycle:    store,
	}
}
