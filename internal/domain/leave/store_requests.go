package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"leavehub/internal/db"
)

const requestColumns = `r.id, r.user_id, r.leave_type_id, r.start_date, r.end_date, r.days, r.is_half_day,
       r.half_day_type, r.reason, r.status, r.approver_id, r.approved_at, r.rejection_reason, r.cancel_reason, r.created_at`

func scanRequest(row pgx.Row) (LeaveRequest, error) {
	var (
		req                                                LeaveRequest
		halfDayType, reason, approverID, rejection, cancel *string
	)
	err := row.Scan(&req.ID, &req.UserID, &req.LeaveTypeID, &req.StartDate, &req.EndDate, &req.Days, &req.IsHalfDay,
		&halfDayType, &reason, &req.Status, &approverID, &req.ApprovedAt, &rejection, &cancel, &req.CreatedAt)
	if err != nil {
		return LeaveRequest{}, err
	}
	if halfDayType != nil {
		req.HalfDayType = *halfDayType
	}
	if reason != nil {
		req.Reason = *reason
	}
	if approverID != nil {
		req.ApproverID = *approverID
	}
	if rejection != nil {
		req.RejectionReason = *rejection
	}
	if cancel != nil {
		req.CancelReason = *cancel
	}
	return req, nil
}

func (s *Store) InsertRequest(ctx context.Context, req LeaveRequest) (LeaveRequest, error) {
	var halfDayType *string
	if req.HalfDayType != "" {
		halfDayType = &req.HalfDayType
	}
	created, err := scanRequest(s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests AS r (user_id, leave_type_id, start_date, end_date, days, is_half_day, half_day_type, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING `+requestColumns+`
  `, req.UserID, req.LeaveTypeID, req.StartDate, req.EndDate, req.Days, req.IsHalfDay, halfDayType, req.Reason, StatusPending))
	if err != nil {
		return LeaveRequest{}, err
	}
	return created, nil
}

func (s *Store) GetRequest(ctx context.Context, requestID string) (LeaveRequest, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests r
    WHERE r.id = $1
  `, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveRequest{}, ErrNotFound
	}
	return req, err
}

// HasOverlap reports whether the candidate closed interval intersects any
// PENDING or APPROVED request of the user. excludeRequestID is skipped when
// non-empty (re-validation of an edit).
func (s *Store) HasOverlap(ctx context.Context, userID string, start, end time.Time, excludeRequestID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1
      FROM leave_requests
      WHERE user_id = $1
        AND status IN ($2, $3)
        AND start_date <= $5
        AND end_date >= $4
        AND ($6 = '' OR id::text <> $6)
    )
  `, userID, StatusPending, StatusApproved, start, end, excludeRequestID).Scan(&exists)
	return exists, err
}

type RequestFilter struct {
	Status string
	UserID string
	Limit  int
	Offset int
}

// ListRequests returns requests bounded by the viewer's scope predicate,
// optionally narrowed by status and owner.
func (s *Store) ListRequests(ctx context.Context, scope Scope, filter RequestFilter) ([]LeaveRequest, error) {
	query := `
    SELECT ` + requestColumns + `
    FROM leave_requests r
    JOIN users u ON u.id = r.user_id
    WHERE true
  `
	var args []any

	switch scope.Kind {
	case ScopeAll:
	case ScopeDirectReports:
		args = append(args, scope.ActorID)
		query += fmt.Sprintf(" AND u.manager_id = $%d", len(args))
	case ScopeTeam:
		args = append(args, scope.TeamID)
		query += fmt.Sprintf(" AND u.team_id = $%d", len(args))
	default:
		args = append(args, scope.ActorID)
		query += fmt.Sprintf(" AND r.user_id = $%d", len(args))
	}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(" AND r.user_id = $%d", len(args))
	}

	query += " ORDER BY r.created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// ApprovedPeerRequests lists APPROVED requests of peers sharing the given
// org-graph column (team_id or department_id). Peer views never expose
// pending, rejected or cancelled requests.
func (s *Store) ApprovedPeerRequests(ctx context.Context, column, groupID string) ([]LeaveRequest, error) {
	if column != "team_id" && column != "department_id" {
		return nil, fmt.Errorf("unsupported peer grouping %q", column)
	}
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests r
    JOIN users u ON u.id = r.user_id
    WHERE u.`+column+` = $1 AND r.status = $2
    ORDER BY r.start_date
  `, groupID, StatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// MarkDecided flips a PENDING request to APPROVED or REJECTED. The status
// predicate makes the update conditional: a request leaves PENDING at most
// once even under concurrent deciders.
func (s *Store) MarkDecided(ctx context.Context, q db.Conn, requestID, newStatus, approverID, rejectionReason string) (LeaveRequest, error) {
	var rejection *string
	if rejectionReason != "" {
		rejection = &rejectionReason
	}
	req, err := scanRequest(q.QueryRow(ctx, `
    UPDATE leave_requests AS r
    SET status = $2, approver_id = $3, approved_at = now(), rejection_reason = $4
    WHERE r.id = $1 AND r.status = $5
    RETURNING `+requestColumns+`
  `, requestID, newStatus, approverID, rejection, StatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveRequest{}, ErrInvalidTransition
	}
	return req, err
}

// LockStatus reads the request's current status under a row lock. Callers
// branch on the locked value inside the same transaction, so a decision that
// committed after the caller's earlier read cannot be missed.
func (s *Store) LockStatus(ctx context.Context, q db.Conn, requestID string) (string, error) {
	var status string
	err := q.QueryRow(ctx, `
    SELECT status FROM leave_requests WHERE id = $1 FOR UPDATE
  `, requestID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return status, err
}

// MarkCancelled cancels an owner's PENDING or APPROVED request.
func (s *Store) MarkCancelled(ctx context.Context, q db.Conn, requestID, ownerID, cancelReason string) (LeaveRequest, error) {
	var reason *string
	if cancelReason != "" {
		reason = &cancelReason
	}
	req, err := scanRequest(q.QueryRow(ctx, `
    UPDATE leave_requests AS r
    SET status = $2, cancel_reason = $3
    WHERE r.id = $1 AND r.user_id = $4 AND r.status IN ($5, $6)
    RETURNING `+requestColumns+`
  `, requestID, StatusCancelled, reason, ownerID, StatusPending, StatusApproved))
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveRequest{}, ErrInvalidTransition
	}
	return req, err
}
