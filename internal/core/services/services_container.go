package services

import (
	portsrepo "github.com/SscSPs/current_account_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/current_account_ledger/internal/core/ports/services"
	"github.com/SscSPs/current_account_ledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The engine comes first; both writers consult it before touching the store.
	container.Balance = NewBalanceEngine(repos.AccountRepo, repos.MovementRepo)

	container.Account = NewAccountService(
		repos.AccountRepo,
		repos.MovementRepo,
		WithBalanceProposer(container.Balance),
	)

	container.Movement = NewMovementService(
		repos.AccountRepo,
		repos.MovementRepo,
		WithMovementEngine(container.Balance),
		WithRetryPolicy(RetryPolicy{
			MaxAttempts: cfg.MovementMaxAttempts,
			Backoff:     cfg.MovementRetryBackoff,
		}),
	)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade  = (*accountService)(nil)
	_ portssvc.MovementSvcFacade = (*movementService)(nil)
	_ portssvc.BalanceEngineSvc  = (*balanceEngine)(nil)
)
