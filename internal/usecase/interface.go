package usecase

import (
	"context"

	"lead-reconciliation/internal/domain"
)

// LeadRepository defines the interface for fetching and soft-disabling leads.
// The usecase layer depends on this interface, not on a concrete CRM or file.
//
//go:generate mockgen -destination=mocks/mock_repository.go -source=interface.go
type LeadRepository interface {
	FetchLeads(ctx context.Context) ([]domain.LeadRecord, error)
	DisableLead(ctx context.Context, id string) error
}

// AccountRepository exposes the accounts that were already issued.
type AccountRepository interface {
	ListUsernames(ctx context.Context) ([]string, error)
	CountsBySchool(ctx context.Context) ([]domain.SchoolAccountCount, error)
}
