package sessionlog

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	goImpersonate "github.com/MrEthical07/goImpersonate"
	"github.com/MrEthical07/goImpersonate/restriction"
	"github.com/MrEthical07/goImpersonate/session"
)

type sessionRow struct {
	SessionID      string         `gorm:"primaryKey;size:64"`
	AdminID        string         `gorm:"size:128;index;not null"`
	TargetID       string         `gorm:"size:128;index;not null"`
	Restrictions   datatypes.JSON `gorm:"type:json"`
	StartedAt      time.Time      `gorm:"not null"`
	ExpiresAt      time.Time      `gorm:"index;not null"`
	LastActivityAt time.Time      `gorm:"not null"`
	IsActive       bool           `gorm:"index;not null"`
	EndedAt        *time.Time
}

func (sessionRow) TableName() string { return "impersonation_sessions" }

func sessionToRow(sess *session.Session) (*sessionRow, error) {
	spec, err := json.Marshal(sess.Restrictions)
	if err != nil {
		return nil, err
	}

	return &sessionRow{
		SessionID:      sess.SessionID,
		AdminID:        sess.AdminID,
		TargetID:       sess.TargetID,
		Restrictions:   spec,
		StartedAt:      sess.StartedAt,
		ExpiresAt:      sess.ExpiresAt,
		LastActivityAt: sess.LastActivity,
		IsActive:       sess.Active,
	}, nil
}

func rowToSession(row *sessionRow) (*session.Session, error) {
	var spec restriction.Spec
	if len(row.Restrictions) > 0 {
		if err := json.Unmarshal(row.Restrictions, &spec); err != nil {
			return nil, err
		}
	}

	return &session.Session{
		SessionID:    row.SessionID,
		AdminID:      row.AdminID,
		TargetID:     row.TargetID,
		Restrictions: spec,
		StartedAt:    row.StartedAt,
		ExpiresAt:    row.ExpiresAt,
		LastActivity: row.LastActivityAt,
		Active:       row.IsActive,
	}, nil
}

type auditRow struct {
	ID        string         `gorm:"primaryKey;size:64"`
	SessionID string         `gorm:"size:64;index;not null"`
	AdminID   string         `gorm:"size:128;index;not null"`
	TargetID  string         `gorm:"size:128;index;not null"`
	Action    string         `gorm:"size:32;index;not null"`
	Details   datatypes.JSON `gorm:"type:json"`
	Route     string         `gorm:"size:512"`
	Method    string         `gorm:"size:16"`
	Payload   datatypes.JSON `gorm:"type:json"`
	IP        string         `gorm:"size:64"`
	UserAgent string         `gorm:"size:512"`
	CreatedAt time.Time      `gorm:"index;not null"`
}

func (auditRow) TableName() string { return "impersonation_audit_logs" }

func auditToRow(rec *goImpersonate.AuditRecord) (*auditRow, error) {
	details, err := marshalMap(rec.Details)
	if err != nil {
		return nil, err
	}
	payload, err := marshalMap(rec.Payload)
	if err != nil {
		return nil, err
	}

	return &auditRow{
		ID:        rec.ID,
		SessionID: rec.SessionID,
		AdminID:   rec.AdminID,
		TargetID:  rec.TargetID,
		Action:    string(rec.Action),
		Details:   details,
		Route:     rec.Route,
		Method:    rec.Method,
		Payload:   payload,
		IP:        rec.IP,
		UserAgent: rec.UserAgent,
		CreatedAt: rec.CreatedAt,
	}, nil
}

func rowToAudit(row *auditRow) (*goImpersonate.AuditRecord, error) {
	details, err := unmarshalMap(row.Details)
	if err != nil {
		return nil, err
	}
	payload, err := unmarshalMap(row.Payload)
	if err != nil {
		return nil, err
	}

	return &goImpersonate.AuditRecord{
		ID:        row.ID,
		SessionID: row.SessionID,
		AdminID:   row.AdminID,
		TargetID:  row.TargetID,
		Action:    goImpersonate.ActionType(row.Action),
		Details:   details,
		Route:     row.Route,
		Method:    row.Method,
		Payload:   payload,
		IP:        row.IP,
		UserAgent: row.UserAgent,
		CreatedAt: row.CreatedAt,
	}, nil
}

type securityEventRow struct {
	ID              string         `gorm:"primaryKey;size:64"`
	ActorID         string         `gorm:"size:128;index;not null"`
	AttemptedTarget string         `gorm:"size:128;not null"`
	AttemptType     string         `gorm:"size:64;index;not null"`
	FailureReason   string         `gorm:"size:256"`
	Context         datatypes.JSON `gorm:"type:json"`
	CreatedAt       time.Time      `gorm:"index;not null"`
}

func (securityEventRow) TableName() string { return "impersonation_security_events" }

func securityEventToRow(ev *goImpersonate.SecurityEvent) (*securityEventRow, error) {
	evCtx, err := marshalMap(ev.Context)
	if err != nil {
		return nil, err
	}

	return &securityEventRow{
		ID:              ev.ID,
		ActorID:         ev.ActorID,
		AttemptedTarget: ev.AttemptedTarget,
		AttemptType:     ev.AttemptType,
		FailureReason:   ev.FailureReason,
		Context:         evCtx,
		CreatedAt:       ev.CreatedAt,
	}, nil
}

func rowToSecurityEvent(row *securityEventRow) (*goImpersonate.SecurityEvent, error) {
	evCtx, err := unmarshalMap(row.Context)
	if err != nil {
		return nil, err
	}

	return &goImpersonate.SecurityEvent{
		ID:              row.ID,
		ActorID:         row.ActorID,
		AttemptedTarget: row.AttemptedTarget,
		AttemptType:     row.AttemptType,
		FailureReason:   row.FailureReason,
		Context:         evCtx,
		CreatedAt:       row.CreatedAt,
	}, nil
}

func marshalMap(m map[string]any) (datatypes.JSON, error) {
	if len(m) == 0 {
		return nil, nil
	}

	return json.Marshal(m)
}

func unmarshalMap(raw datatypes.JSON) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	return m, nil
}
