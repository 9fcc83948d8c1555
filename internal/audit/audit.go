package audit

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"veloxhub/internal/apperr"
	"veloxhub/internal/models"
)

// Recorder writes audit trail rows. Recording is best effort: a failed
// write is logged and never fails the mutation it describes.
type Recorder struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewRecorder(db *gorm.DB, log zerolog.Logger) *Recorder {
	return &Recorder{db: db, log: log}
}

// Entry describes one recorded action.
type Entry struct {
	OrgID         int64
	UserID        int64
	Action        string
	ResourceType  string
	ResourceID    int64
	Metadata      map[string]any
	InitiatorName string
	IP            string
	UserAgent     string
}

// Record persists an entry. Errors are swallowed after logging.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	row := models.AuditLog{
		OrgID:         e.OrgID,
		UserID:        e.UserID,
		Action:        e.Action,
		ResourceType:  e.ResourceType,
		ResourceID:    e.ResourceID,
		InitiatorName: e.InitiatorName,
		IP:            e.IP,
		UserAgent:     e.UserAgent,
	}
	if e.Metadata != nil {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			r.log.Warn().Err(err).Str("action", e.Action).Msg("audit metadata marshal failed")
		} else {
			row.Metadata = raw
		}
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		r.log.Warn().Err(err).Str("action", e.Action).Int64("org_id", e.OrgID).Msg("audit write failed")
	}
}

// Page is one page of audit results with a keyset cursor.
type Page struct {
	Logs       []models.AuditLog `json:"logs"`
	NextCursor *int64            `json:"next_cursor"`
}

// List returns up to limit rows for org, newest first. afterID resumes
// a previous page; search matches initiator, action, resource type, or
// IP.
func (r *Recorder) List(ctx context.Context, orgID int64, limit int, afterID int64, search string) (*Page, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("org_id = ?", orgID).
		Order("id DESC")
	if afterID > 0 {
		query = query.Where("id < ?", afterID)
	}
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + search + "%"
		query = query.Where("(initiator_name LIKE ? OR action LIKE ? OR resource_type LIKE ? OR ip LIKE ?)",
			like, like, like, like)
	}

	var logs []models.AuditLog
	if err := query.Limit(limit + 1).Find(&logs).Error; err != nil {
		return nil, apperr.Wrap(err, "loading audit logs")
	}

	page := Page{Logs: logs}
	if len(logs) > limit {
		next := logs[limit].ID
		page.Logs = logs[:limit]
		page.NextCursor = &next
	}
	return &page, nil
}
