package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/models"
)

// AuditEntry captures a single audit event to persist.
type AuditEntry struct {
	UserID   *string
	Action   string
	Resource string
	Result   string
	Metadata map[string]any
}

// AuditFilters narrows an audit query.
type AuditFilters struct {
	UserID   string
	Action   string
	Resource string
	Since    *time.Time
	Until    *time.Time
}

// AuditListOptions controls pagination and filtering for audit queries.
type AuditListOptions struct {
	Page     int
	PageSize int
	Filters  AuditFilters
}

// AuditService persists and retrieves audit log entries. Rows are
// append-only; there is no update or delete path.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db}, nil
}

// Log stores an audit entry, marshalling metadata into JSON form.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(entry.Action) == "" {
		return errors.New("audit service: action is required")
	}

	payload := ""
	if entry.Metadata != nil {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("audit service: marshal metadata: %w", err)
		}
		payload = string(encoded)
	}

	log := models.AuditLog{
		UserID:   entry.UserID,
		Action:   strings.TrimSpace(entry.Action),
		Resource: strings.TrimSpace(entry.Resource),
		Result:   defaultIfEmpty(strings.TrimSpace(entry.Result), "success"),
		Metadata: payload,
	}

	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		return fmt.Errorf("audit service: create entry: %w", err)
	}
	return nil
}

// List returns audit entries matching the filters, newest first.
func (s *AuditService) List(ctx context.Context, opts AuditListOptions) ([]models.AuditLog, int64, error) {
	ctx = ensureContext(ctx)
	page, pageSize := clampPage(opts.Page, opts.PageSize)

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if f := opts.Filters; true {
		if f.UserID != "" {
			query = query.Where("user_id = ?", f.UserID)
		}
		if f.Action != "" {
			query = query.Where("action = ?", f.Action)
		}
		if f.Resource != "" {
			query = query.Where("resource = ?", f.Resource)
		}
		if f.Since != nil {
			query = query.Where("created_at >= ?", *f.Since)
		}
		if f.Until != nil {
			query = query.Where("created_at <= ?", *f.Until)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count entries: %w", err)
	}

	var rows []models.AuditLog
	if err := query.
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: list entries: %w", err)
	}
	return rows, total, nil
}

// History returns the full provenance trail of one resource, oldest first.
func (s *AuditService) History(ctx context.Context, resource string) ([]models.AuditLog, error) {
	ctx = ensureContext(ctx)
	var rows []models.AuditLog
	if err := s.db.WithContext(ctx).
		Where("resource = ?", resource).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("audit service: load history: %w", err)
	}
	return rows, nil
}
