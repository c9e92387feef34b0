package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lead-reconciliation/internal/accounts"
	"lead-reconciliation/internal/dedup"
	"lead-reconciliation/internal/domain"
	"lead-reconciliation/internal/export"
	"lead-reconciliation/internal/report"
)

var (
	// ErrNoLeads is returned when a batch holds nothing to reconcile.
	ErrNoLeads = errors.New("no leads provided")
	// ErrMissingLeadID is returned when a disable request names no lead.
	ErrMissingLeadID = errors.New("lead id is required")
)

// ReconciliationUseCase orchestrates the lead reconciliation pipeline.
type ReconciliationUseCase struct {
	leads    LeadRepository
	accounts AccountRepository
	catalog  domain.Catalog
	logger   *zap.Logger
}

// NewReconciliationUseCase creates a new instance of the usecase.
func NewReconciliationUseCase(leads LeadRepository, accounts AccountRepository, catalog domain.Catalog, logger *zap.Logger) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		leads:    leads,
		accounts: accounts,
		catalog:  catalog,
		logger:   logger.Named("reconciliation"),
	}
}

// TemplateResult is the account-issuance template of one run.
type TemplateResult struct {
	RunID       string
	Document    *export.Document
	Assignments []domain.AccountAssignment
	// Excluded counts leads left out as duplicates or for lacking a name.
	Excluded int
}

// AnalysisResult is the operator overview of a batch.
type AnalysisResult struct {
	RunID       string                     `json:"runId"`
	Analytics   domain.Analytics           `json:"analytics"`
	SchoolWard  []domain.SchoolWardSummary `json:"schoolWardSummary"`
	Duplicates  []domain.DuplicateGroup    `json:"duplicateGroups"`
	Pairs       []domain.PairResolution    `json:"pairResolutions"`
	TotalLeads  int                        `json:"totalDeals"`
	UniqueLeads int                        `json:"uniqueDeals"`
}

// SalesResult is the issued-versus-requested report.
type SalesResult struct {
	RunID   string                `json:"runId"`
	Data    []domain.SchoolReport `json:"data"`
	Summary domain.SalesSummary   `json:"summary"`
}

// DisableResult reports a duplicate clean-up run.
type DisableResult struct {
	RunID    string                  `json:"runId"`
	DryRun   bool                    `json:"dryRun"`
	Disabled []string                `json:"disabled"`
	Failed   []string                `json:"failed,omitempty"`
	Kept     []domain.PairResolution `json:"needsReview,omitempty"`
}

// FetchLeads loads the current lead batch from the lead source.
func (uc *ReconciliationUseCase) FetchLeads(ctx context.Context) ([]domain.LeadRecord, error) {
	leads, err := uc.leads.FetchLeads(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not fetch leads: %w", err)
	}
	return leads, nil
}

// Template builds the account-issuance spreadsheet for a batch.
func (uc *ReconciliationUseCase) Template(ctx context.Context, leads []domain.LeadRecord) (*TemplateResult, error) {
	if len(leads) == 0 {
		return nil, ErrNoLeads
	}
	runID := uuid.NewString()
	log := uc.logger.With(zap.String("run_id", runID))

	// Step 1: Deduplication, only identities seen exactly once are issued
	unique := dedup.UniqueIdentities(dedup.GroupByIdentity(leads))

	// Step 2: Email ordering decides numbering order within an email
	sorted := export.SortByEmail(unique)

	// Step 3: Existing accounts, degraded to none when the store fails
	existing := uc.existingAccounts(ctx, log, sorted)

	// Step 4: Username assignment and rendering
	assignments := accounts.AssignUsernames(sorted, existing)
	doc := export.BuildSpreadsheet(sorted, uc.catalog, export.TemplateOptions{
		Usernames: accounts.UsernameIndex(assignments),
	})

	log.Info("template built",
		zap.Int("leads", len(leads)),
		zap.Int("issued", len(sorted)),
		zap.Int("existing_emails", len(existing)))

	return &TemplateResult{
		RunID:       runID,
		Document:    doc,
		Assignments: assignments,
		Excluded:    len(leads) - len(sorted),
	}, nil
}

func (uc *ReconciliationUseCase) existingAccounts(ctx context.Context, log *zap.Logger, leads []domain.LeadRecord) map[string]domain.ExistingAccount {
	empty := map[string]domain.ExistingAccount{}
	if uc.accounts == nil {
		return empty
	}
	usernames, err := uc.accounts.ListUsernames(ctx)
	if err != nil {
		log.Warn("could not list existing accounts, numbering from scratch", zap.Error(err))
		return empty
	}
	emails := make([]string, 0, len(leads))
	for _, lead := range leads {
		emails = append(emails, lead.Email)
	}
	return accounts.ExistingFromUsernames(usernames, emails)
}

// Analyze computes distributions, per school-ward duplicate statistics and
// the global duplicate groups of a batch.
func (uc *ReconciliationUseCase) Analyze(leads []domain.LeadRecord) (*AnalysisResult, error) {
	if len(leads) == 0 {
		return nil, ErrNoLeads
	}

	idx := dedup.GroupByIdentity(leads)
	duplicates := dedup.DuplicateGroups(idx)

	res := &AnalysisResult{
		RunID:       uuid.NewString(),
		Analytics:   report.ComputeAnalytics(leads),
		SchoolWard:  report.AggregateSchoolWard(leads),
		Duplicates:  duplicates,
		Pairs:       dedup.ResolvePairs(duplicates),
		TotalLeads:  len(leads),
		UniqueLeads: idx.Len(),
	}
	uc.logger.Debug("batch analyzed",
		zap.String("run_id", res.RunID),
		zap.Int("leads", res.TotalLeads),
		zap.Int("duplicate_groups", len(duplicates)))
	return res, nil
}

// Export collects the requested operator sections of a batch.
func (uc *ReconciliationUseCase) Export(leads []domain.LeadRecord, opts export.Options) (*export.Bundle, error) {
	if len(leads) == 0 {
		return nil, ErrNoLeads
	}
	bundle, err := export.Collect(leads, opts)
	if err != nil {
		return nil, fmt.Errorf("could not collect export: %w", err)
	}
	return bundle, nil
}

// SalesReport correlates issued accounts with registrations per school. Both
// sources degrade to empty when unavailable.
func (uc *ReconciliationUseCase) SalesReport(ctx context.Context) (*SalesResult, error) {
	runID := uuid.NewString()
	log := uc.logger.With(zap.String("run_id", runID))

	var counts []domain.SchoolAccountCount
	if uc.accounts != nil {
		var err error
		counts, err = uc.accounts.CountsBySchool(ctx)
		if err != nil {
			log.Warn("could not count issued accounts", zap.Error(err))
		}
	}

	leads, err := uc.leads.FetchLeads(ctx)
	if err != nil {
		log.Warn("could not fetch leads, requests count as zero", zap.Error(err))
		leads = nil
	}

	issued, loggedIn := report.SplitCounts(counts)
	rows := report.CorrelateIssuedVsRequested(issued, loggedIn, report.RequestedBySchool(leads), uc.catalog.AlwaysInclude)

	return &SalesResult{
		RunID:   runID,
		Data:    rows,
		Summary: report.Summarize(rows, len(issued)),
	}, nil
}

// DisableLead soft-disables one lead in the lead source.
func (uc *ReconciliationUseCase) DisableLead(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrMissingLeadID
	}
	if err := uc.leads.DisableLead(ctx, id); err != nil {
		return fmt.Errorf("could not disable lead %s: %w", id, err)
	}
	uc.logger.Info("lead disabled", zap.String("lead_id", id))
	return nil
}

// DisableExactDuplicates disables the later record of every two-record
// duplicate group whose records carry identical facts. Pairs that differ are
// returned for manual review. A failed disable is recorded and does not stop
// the run.
func (uc *ReconciliationUseCase) DisableExactDuplicates(ctx context.Context, leads []domain.LeadRecord, dryRun bool) (*DisableResult, error) {
	if len(leads) == 0 {
		return nil, ErrNoLeads
	}
	res := &DisableResult{RunID: uuid.NewString(), DryRun: dryRun, Disabled: []string{}}
	log := uc.logger.With(zap.String("run_id", res.RunID), zap.Bool("dry_run", dryRun))

	for _, pair := range dedup.ResolvePairs(dedup.DuplicateGroups(dedup.GroupByIdentity(leads))) {
		if !pair.Exact() {
			res.Kept = append(res.Kept, pair)
			continue
		}
		if !dryRun {
			if err := uc.leads.DisableLead(ctx, pair.Removable); err != nil {
				log.Error("could not disable duplicate", zap.String("lead_id", pair.Removable), zap.Error(err))
				res.Failed = append(res.Failed, pair.Removable)
				continue
			}
		}
		res.Disabled = append(res.Disabled, pair.Removable)
	}

	log.Info("duplicate clean-up finished",
		zap.Int("disabled", len(res.Disabled)),
		zap.Int("failed", len(res.Failed)),
		zap.Int("needs_review", len(res.Kept)))
	return res, nil
}
