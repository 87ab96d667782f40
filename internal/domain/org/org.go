package org

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"leavehub/internal/db"
	"leavehub/internal/domain/auth"
)

var ErrActorNotFound = errors.New("actor not found")

// Actor is the minimal org-graph view of a user needed for leave scoping:
// who they report to and which team/department they sit in.
type Actor struct {
	ID           string    `json:"id"`
	Role         auth.Role `json:"role"`
	ManagerID    string    `json:"managerId,omitempty"`
	TeamID       string    `json:"teamId,omitempty"`
	DepartmentID string    `json:"departmentId,omitempty"`
}

type Credentials struct {
	UserID       string
	PasswordHash string
	Role         auth.Role
}

type Store struct {
	DB db.Conn
}

func NewStore(conn db.Conn) *Store {
	return &Store{DB: conn}
}

func (s *Store) ActorByID(ctx context.Context, userID string) (Actor, error) {
	var (
		actor                     Actor
		roleName                  string
		managerID, teamID, deptID *string
	)
	err := s.DB.QueryRow(ctx, `
    SELECT id, role, manager_id, team_id, department_id
    FROM users
    WHERE id = $1 AND active
  `, userID).Scan(&actor.ID, &roleName, &managerID, &teamID, &deptID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Actor{}, ErrActorNotFound
	}
	if err != nil {
		return Actor{}, err
	}

	role, err := auth.ParseRole(roleName)
	if err != nil {
		return Actor{}, err
	}
	actor.Role = role
	if managerID != nil {
		actor.ManagerID = *managerID
	}
	if teamID != nil {
		actor.TeamID = *teamID
	}
	if deptID != nil {
		actor.DepartmentID = *deptID
	}
	return actor, nil
}

func (s *Store) HasDirectReports(ctx context.Context, userID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM users WHERE manager_id = $1 AND active
  `, userID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CredentialsByEmail(ctx context.Context, email string) (Credentials, error) {
	var (
		creds    Credentials
		roleName string
	)
	err := s.DB.QueryRow(ctx, `
    SELECT id, password_hash, role
    FROM users
    WHERE lower(email) = lower($1) AND active
  `, email).Scan(&creds.UserID, &creds.PasswordHash, &roleName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credentials{}, ErrActorNotFound
	}
	if err != nil {
		return Credentials{}, err
	}
	role, err := auth.ParseRole(roleName)
	if err != nil {
		return Credentials{}, err
	}
	creds.Role = role
	return creds, nil
}
