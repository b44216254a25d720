package services

import (
	"context"

	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	"github.com/SscSPs/current_account_ledger/internal/dto"
)

// MovementRecorderSvc is the single public entry point for writing to the ledger.
type MovementRecorderSvc interface {
	// RecordMovement validates and commits a movement, retrying on version conflicts.
	RecordMovement(ctx context.Context, accountID string, req dto.RecordMovementRequest, actor string) (*domain.Movement, error)
}

// MovementReaderSvc serves the reporting layer.
type MovementReaderSvc interface {
	// ListMovements returns a page of movements in canonical order plus the token for the
	// next page, if any.
	ListMovements(ctx context.Context, accountID string, params dto.ListMovementsParams) (*dto.ListMovementsResponse, error)
}

// MovementSvcFacade combines all movement-related service interfaces
type MovementSvcFacade interface {
	MovementRecorderSvc
	MovementReaderSvc
}
