package leave

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"leavehub/internal/domain/auth"
	"leavehub/internal/domain/org"
	"leavehub/internal/domain/settings"
)

// Service drives the leave-request lifecycle: submission checks, the
// PENDING -> APPROVED | REJECTED | CANCELLED state machine, and the coupled
// ledger mutations. Status writes and ledger deltas commit as one
// transaction.
type Service struct {
	Store    *Store
	Org      *org.Store
	Settings *settings.Store
}

func NewService(store *Store, orgStore *org.Store, settingsStore *settings.Store) *Service {
	return &Service{Store: store, Org: orgStore, Settings: settingsStore}
}

type SubmitCommand struct {
	LeaveTypeID string
	StartDate   time.Time
	EndDate     time.Time
	IsHalfDay   bool
	HalfDayType string
	Reason      string
}

// Submit validates and persists a new PENDING request. The ledger is not
// touched here: balance is reserved only once an approver commits, so two
// competing pending requests can both look affordable until one is approved.
// That race is resolved at approval time, not here.
func (s *Service) Submit(ctx context.Context, userID string, cmd SubmitCommand) (LeaveRequest, error) {
	if err := ValidateRequest(cmd.StartDate, cmd.EndDate, cmd.IsHalfDay, cmd.HalfDayType); err != nil {
		return LeaveRequest{}, err
	}
	cmd.StartDate = dateOnly(cmd.StartDate)
	cmd.EndDate = dateOnly(cmd.EndDate)
	days, err := RequestDays(cmd.StartDate, cmd.EndDate, cmd.IsHalfDay)
	if err != nil {
		return LeaveRequest{}, err
	}

	year := cmd.StartDate.Year()
	account, err := s.Store.GetOrCreateAccount(ctx, userID, cmd.LeaveTypeID, year)
	if err != nil {
		return LeaveRequest{}, err
	}
	if days.GreaterThan(Balance(account)) {
		return LeaveRequest{}, ErrInsufficientBalance
	}

	overlap, err := s.Store.HasOverlap(ctx, userID, cmd.StartDate, cmd.EndDate, "")
	if err != nil {
		return LeaveRequest{}, err
	}
	if overlap {
		return LeaveRequest{}, ErrOverlappingRequest
	}

	return s.Store.InsertRequest(ctx, LeaveRequest{
		UserID:      userID,
		LeaveTypeID: cmd.LeaveTypeID,
		StartDate:   cmd.StartDate,
		EndDate:     cmd.EndDate,
		Days:        days,
		IsHalfDay:   cmd.IsHalfDay,
		HalfDayType: cmd.HalfDayType,
		Reason:      cmd.Reason,
	})
}

// Transition moves a request to newStatus on behalf of actor. Approval and
// rejection require both approval authority (org toggles) and the owner to
// fall inside the actor's visibility scope. Cancellation is owner-only and
// releases the reservation when the request was already approved.
func (s *Service) Transition(ctx context.Context, actor org.Actor, requestID, newStatus, reason string) (LeaveRequest, error) {
	req, err := s.Store.GetRequest(ctx, requestID)
	if err != nil {
		return LeaveRequest{}, err
	}

	switch newStatus {
	case StatusCancelled:
		if req.UserID != actor.ID {
			return LeaveRequest{}, ErrForbidden
		}
		if req.Status != StatusPending && req.Status != StatusApproved {
			return LeaveRequest{}, ErrInvalidTransition
		}
		return s.cancel(ctx, req, reason)
	case StatusApproved, StatusRejected:
		if req.Status != StatusPending {
			return LeaveRequest{}, ErrInvalidTransition
		}
		if newStatus == StatusRejected && strings.TrimSpace(reason) == "" {
			return LeaveRequest{}, ErrInvalidArgument
		}
		if err := s.authorizeDecision(ctx, actor, req.UserID); err != nil {
			return LeaveRequest{}, err
		}
		return s.decide(ctx, req, newStatus, actor.ID, reason)
	default:
		return LeaveRequest{}, ErrInvalidTransition
	}
}

func (s *Service) authorizeDecision(ctx context.Context, actor org.Actor, ownerID string) error {
	cfg, err := s.Settings.Load(ctx)
	if err != nil {
		return err
	}
	if !CanApprove(actor.Role, cfg) {
		return ErrForbidden
	}

	owner, err := s.Org.ActorByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, org.ErrActorNotFound) {
			return ErrForbidden
		}
		return err
	}
	scope, err := s.scopeFor(ctx, actor)
	if err != nil {
		return err
	}
	if !scope.Includes(owner) {
		return ErrForbidden
	}
	return nil
}

func (s *Service) decide(ctx context.Context, req LeaveRequest, newStatus, approverID, reason string) (LeaveRequest, error) {
	tx, err := s.Store.DB.Begin(ctx)
	if err != nil {
		return LeaveRequest{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rejection := ""
	if newStatus == StatusRejected {
		rejection = reason
	}
	updated, err := s.Store.MarkDecided(ctx, tx, req.ID, newStatus, approverID, rejection)
	if err != nil {
		return LeaveRequest{}, err
	}

	if newStatus == StatusApproved {
		if _, err := s.Store.ApplyUsedDelta(ctx, tx, req.UserID, req.LeaveTypeID, req.Year(), req.Days); err != nil {
			return LeaveRequest{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return LeaveRequest{}, err
	}
	return updated, nil
}

func (s *Service) cancel(ctx context.Context, req LeaveRequest, reason string) (LeaveRequest, error) {
	tx, err := s.Store.DB.Begin(ctx)
	if err != nil {
		return LeaveRequest{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The status read before the tx is advisory only. An approval may have
	// committed since; whether a reservation must be released is decided by
	// the status held under the row lock.
	current, err := s.Store.LockStatus(ctx, tx, req.ID)
	if err != nil {
		return LeaveRequest{}, err
	}
	if current != StatusPending && current != StatusApproved {
		return LeaveRequest{}, ErrInvalidTransition
	}

	updated, err := s.Store.MarkCancelled(ctx, tx, req.ID, req.UserID, reason)
	if err != nil {
		return LeaveRequest{}, err
	}

	if current == StatusApproved {
		if _, err := s.Store.ApplyUsedDelta(ctx, tx, req.UserID, req.LeaveTypeID, req.Year(), req.Days.Neg()); err != nil {
			return LeaveRequest{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return LeaveRequest{}, err
	}
	return updated, nil
}

type ListResult struct {
	Requests   []LeaveRequest
	ScopeLabel string
}

// List returns the requests visible to the actor plus the resolved scope
// label for UI transparency.
func (s *Service) List(ctx context.Context, actor org.Actor, filter RequestFilter) (ListResult, error) {
	scope, err := s.scopeFor(ctx, actor)
	if err != nil {
		return ListResult{}, err
	}
	requests, err := s.Store.ListRequests(ctx, scope, filter)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Requests: requests, ScopeLabel: scope.Label()}, nil
}

// GetVisible returns a single request if the actor's scope covers its owner.
func (s *Service) GetVisible(ctx context.Context, actor org.Actor, requestID string) (LeaveRequest, error) {
	req, err := s.Store.GetRequest(ctx, requestID)
	if err != nil {
		return LeaveRequest{}, err
	}
	if req.UserID == actor.ID {
		return req, nil
	}
	owner, err := s.Org.ActorByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, org.ErrActorNotFound) {
			return LeaveRequest{}, ErrForbidden
		}
		return LeaveRequest{}, err
	}
	scope, err := s.scopeFor(ctx, actor)
	if err != nil {
		return LeaveRequest{}, err
	}
	if !scope.Includes(owner) {
		return LeaveRequest{}, ErrForbidden
	}
	return req, nil
}

const (
	PeerModeTeam       = "team"
	PeerModeDepartment = "department"
)

// PeerLeaves is the independent query mode for plain employees: APPROVED
// requests of peers sharing the actor's team or department, gated by the
// org visibility toggles.
func (s *Service) PeerLeaves(ctx context.Context, actor org.Actor, mode string) ([]LeaveRequest, error) {
	cfg, err := s.Settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	switch mode {
	case PeerModeTeam:
		if !cfg.EmployeesCanViewTeamLeaves || actor.TeamID == "" {
			return nil, ErrForbidden
		}
		return s.Store.ApprovedPeerRequests(ctx, "team_id", actor.TeamID)
	case PeerModeDepartment:
		if !cfg.EmployeesCanViewDeptLeaves || actor.DepartmentID == "" {
			return nil, ErrForbidden
		}
		return s.Store.ApprovedPeerRequests(ctx, "department_id", actor.DepartmentID)
	default:
		return nil, ErrInvalidArgument
	}
}

// Balances lists the target user's ledger rows if the actor may see them.
func (s *Service) Balances(ctx context.Context, actor org.Actor, targetUserID string, year int) ([]LeaveAccount, error) {
	if targetUserID == "" {
		targetUserID = actor.ID
	}
	if targetUserID != actor.ID {
		owner, err := s.Org.ActorByID(ctx, targetUserID)
		if err != nil {
			if errors.Is(err, org.ErrActorNotFound) {
				return nil, ErrForbidden
			}
			return nil, err
		}
		scope, err := s.scopeFor(ctx, actor)
		if err != nil {
			return nil, err
		}
		if !scope.Includes(owner) {
			return nil, ErrForbidden
		}
	}
	return s.Store.AccountsForUser(ctx, targetUserID, year)
}

func (s *Service) scopeFor(ctx context.Context, actor org.Actor) (Scope, error) {
	hasReports := false
	if actor.Role != auth.RoleAdmin && actor.Role != auth.RoleHR && actor.Role != auth.RoleManager {
		reports, err := s.Org.HasDirectReports(ctx, actor.ID)
		if err != nil {
			return Scope{}, err
		}
		hasReports = reports
	}
	return ScopeFor(actor, hasReports), nil
}

// BalanceView pairs a ledger row with its derived balance for reporting.
type BalanceView struct {
	LeaveAccount
	Balance decimal.Decimal `json:"balance"`
}

func WithBalances(accounts []LeaveAccount) []BalanceView {
	views := make([]BalanceView, 0, len(accounts))
	for _, acct := range accounts {
		views = append(views, BalanceView{LeaveAccount: acct, Balance: Balance(acct)})
	}
	return views
}
