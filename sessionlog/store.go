package sessionlog

import (
	"context"
	"time"

	"gorm.io/gorm"

	goImpersonate "github.com/MrEthical07/goImpersonate"
	"github.com/MrEthical07/goImpersonate/session"
)

const defaultQueryLimit = 100

// Store implements goImpersonate.SessionLog on any gorm-supported database.
type Store struct {
	db *gorm.DB
}

// Open migrates the impersonation tables and returns a ready Store.
func Open(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&sessionRow{}, &auditRow{}, &securityEventRow{}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) CreateSession(ctx context.Context, sess *session.Session) error {
	row, err := sessionToRow(sess)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Create(row).Error
}

func (s *Store) EndSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	// No rows affected means the session is unknown or already ended, which
	// is not an error at the store level.
	return s.db.WithContext(ctx).
		Model(&sessionRow{}).
		Where("session_id = ? AND is_active = ?", sessionID, true).
		Updates(map[string]any{"is_active": false, "ended_at": endedAt}).
		Error
}

func (s *Store) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&sessionRow{}).
		Where("session_id = ? AND last_activity_at < ?", sessionID, at).
		Update("last_activity_at", at).
		Error
}

func (s *Store) ActiveSessions(ctx context.Context, now time.Time) ([]*session.Session, error) {
	var rows []*sessionRow
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND expires_at > ?", true, now).
		Order("started_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	sessions := make([]*session.Session, 0, len(rows))
	for _, row := range rows {
		sess, err := rowToSession(row)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	return sessions, nil
}

func (s *Store) ExpiredSessions(ctx context.Context, asOf time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	var ids []string
	err := s.db.WithContext(ctx).
		Model(&sessionRow{}).
		Where("is_active = ? AND expires_at <= ?", true, asOf).
		Order("expires_at ASC").
		Limit(limit).
		Pluck("session_id", &ids).
		Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (s *Store) AppendAudit(ctx context.Context, rec *goImpersonate.AuditRecord) error {
	row, err := auditToRow(rec)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Create(row).Error
}

func (s *Store) AppendSecurityEvent(ctx context.Context, ev *goImpersonate.SecurityEvent) error {
	row, err := securityEventToRow(ev)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Create(row).Error
}

func (s *Store) QueryAudit(ctx context.Context, f goImpersonate.AuditFilter) ([]*goImpersonate.AuditRecord, error) {
	q := s.db.WithContext(ctx).Model(&auditRow{})
	if f.AdminID != "" {
		q = q.Where("admin_id = ?", f.AdminID)
	}
	if f.TargetID != "" {
		q = q.Where("target_id = ?", f.TargetID)
	}
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", string(f.Action))
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	var rows []*auditRow
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(f.Offset).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]*goImpersonate.AuditRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := rowToAudit(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func (s *Store) QuerySecurityEvents(ctx context.Context, f goImpersonate.SecurityEventFilter) ([]*goImpersonate.SecurityEvent, error) {
	q := s.db.WithContext(ctx).Model(&securityEventRow{})
	if f.ActorID != "" {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.AttemptType != "" {
		q = q.Where("attempt_type = ?", f.AttemptType)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	var rows []*securityEventRow
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(f.Offset).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	events := make([]*goImpersonate.SecurityEvent, 0, len(rows))
	for _, row := range rows {
		ev, err := rowToSecurityEvent(row)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	return events, nil
}
