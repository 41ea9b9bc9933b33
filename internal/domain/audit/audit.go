package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chancehr/internal/platform/db"
	"chancehr/internal/platform/logger"
)

const (
	ActionAttendanceCorrect = "attendance.correct"
	ActionQRRegenerate      = "attendance.qr_regenerate"
	ActionSlipCreate        = "payroll.slip_create"
	ActionSlipUpdate        = "payroll.slip_update"
	ActionSlipPublish       = "payroll.slip_publish"
	ActionSlipUnpublish     = "payroll.slip_unpublish"
	ActionBatchGenerate     = "payroll.batch_generate"
	ActionPastRecordCreate  = "payroll.past_record_create"
	ActionPastRecordConvert = "payroll.past_record_convert"
	ActionTaxTableImport    = "taxtable.import"
)

type Event struct {
	ID          string          `json:"id"`
	WorkplaceID string          `json:"workplaceId"`
	ActorID     string          `json:"actorId"`
	Action      string          `json:"action"`
	EntityType  string          `json:"entityType"`
	EntityID    string          `json:"entityId"`
	RequestID   string          `json:"requestId"`
	IP          string          `json:"ip"`
	CreatedAt   time.Time       `json:"createdAt"`
	Before      json.RawMessage `json:"before,omitempty"`
	After       json.RawMessage `json:"after,omitempty"`
}

// Entry is what callers hand to Record.
type Entry struct {
	WorkplaceID string
	ActorID     string
	Action      string
	EntityType  string
	EntityID    string
	RequestID   string
	IP          string
	Before      any
	After       any
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
}

// Recorder is implemented by Service; domain services depend on this.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

type Service struct {
	DB db.Querier
}

func New(q db.Querier) *Service {
	return &Service{DB: q}
}

func (s *Service) Record(ctx context.Context, entry Entry) error {
	beforeJSON, err := marshalOptional(entry.Before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalOptional(entry.After)
	if err != nil {
		return err
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (workplace_id, actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, entry.WorkplaceID, entry.ActorID, entry.Action, entry.EntityType, entry.EntityID, beforeJSON, afterJSON, entry.RequestID, entry.IP)
	if err != nil {
		logger.FromContext(ctx).Warn("audit record failed", zap.String("action", entry.Action), zap.Error(err))
	}
	return err
}

func (s *Service) List(ctx context.Context, workplaceID string, filter Filter, limit, offset int) ([]Event, error) {
	query := `SELECT id, workplace_id, actor_user_id, action, entity_type, entity_id, request_id, ip, created_at, before_json, after_json
    FROM audit_events WHERE workplace_id = $1`
	args := []any{workplaceID}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", len(args)+1)
		args = append(args, filter.Action)
	}
	if filter.EntityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", len(args)+1)
		args = append(args, filter.EntityType)
	}
	if filter.EntityID != "" {
		query += fmt.Sprintf(" AND entity_id = $%d", len(args)+1)
		args = append(args, filter.EntityID)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.WorkplaceID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt, &evt.Before, &evt.After); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func marshalOptional(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}

// Nop discards entries; used where no audit store is wired.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
