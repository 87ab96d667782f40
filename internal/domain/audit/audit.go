package audit

import (
	"context"
	"encoding/json"

	"leavehub/internal/db"
)

const EntityLeaveRequest = "LEAVE_REQUEST"

const (
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
	ActionCancel  = "CANCEL"
)

type Recorder struct {
	DB db.Conn
}

func New(conn db.Conn) *Recorder {
	return &Recorder{DB: conn}
}

// Record persists one audit event. Callers treat failures as best-effort:
// a failed insert is logged and never blocks the business operation.
func (r *Recorder) Record(ctx context.Context, actorID, action, entity, entityID string, details any) error {
	var detailsJSON []byte
	if details != nil {
		payload, err := json.Marshal(details)
		if err != nil {
			return err
		}
		detailsJSON = payload
	}

	_, err := r.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_id, action, entity_type, entity_id, details)
    VALUES ($1,$2,$3,$4,$5)
  `, actorID, action, entity, entityID, detailsJSON)
	return err
}
