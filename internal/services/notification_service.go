package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sbenhamida/mouwatin/internal/dispatch"
	"github.com/sbenhamida/mouwatin/internal/lifecycle"
	"github.com/sbenhamida/mouwatin/internal/models"
	"github.com/sbenhamida/mouwatin/internal/notifications"
	apperrors "github.com/sbenhamida/mouwatin/pkg/errors"
	"github.com/sbenhamida/mouwatin/pkg/logger"
)

// CreateNotificationInput defines the attributes of a persisted notification.
type CreateNotificationInput struct {
	UserID   string
	Type     string
	Title    string
	Message  string
	Severity string
}

// ListNotificationsInput filters a user's notification feed.
type ListNotificationsInput struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}

// NotificationService manages in-app notifications and pushes realtime
// events through the hub. Emission is best effort: a delivery failure is
// logged and never propagated to the operation that triggered it.
type NotificationService struct {
	db  *gorm.DB
	hub *notifications.Hub
}

func NewNotificationService(db *gorm.DB, hub *notifications.Hub) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db, hub: hub}, nil
}

// ListForUser returns notifications for the user ordered by recency.
func (s *NotificationService) ListForUser(ctx context.Context, input ListNotificationsInput) ([]models.Notification, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if input.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var rows []models.Notification
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list notifications: %w", err)
	}
	return rows, nil
}

// Create persists a notification and broadcasts it to live subscribers.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*models.Notification, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}
	if strings.TrimSpace(input.Type) == "" {
		return nil, errors.New("notification service: type is required")
	}

	notification := models.Notification{
		UserID:   userID,
		Type:     strings.TrimSpace(input.Type),
		Title:    strings.TrimSpace(input.Title),
		Message:  strings.TrimSpace(input.Message),
		Severity: defaultIfEmpty(strings.TrimSpace(input.Severity), "info"),
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	if s.hub != nil {
		s.hub.Broadcast(userID, notifications.Event{
			Event:        "notification.created",
			Notification: &notification,
		})
	}
	return &notification, nil
}

// MarkRead sets the read flag on one notification owned by the user.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	ctx = ensureContext(ctx)
	var notification models.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&notification).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		return nil, fmt.Errorf("notification service: mark read: %w", err)
	}

	notification.IsRead = true
	notification.ReadAt = &now
	return &notification, nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		return fmt.Errorf("notification service: mark all read: %w", err)
	}
	return nil
}

// Delete removes a notification owned by the user.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	ctx = ensureContext(ctx)
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("notification service: delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// EmitLifecycle delivers a state-change descriptor produced by the
// content machine. Failures are logged, never returned.
func (s *NotificationService) EmitLifecycle(ctx context.Context, descriptor *lifecycle.Notification) {
	if descriptor == nil {
		return
	}
	s.emit(ctx, CreateNotificationInput{
		UserID:  descriptor.RecipientID,
		Type:    descriptor.Type,
		Title:   descriptor.Title,
		Message: descriptor.Message,
	})
}

// EmitDispatch delivers the descriptors produced by the assignment
// dispatcher, expanding role-targeted broadcasts into one notification
// per active account holding the role.
func (s *NotificationService) EmitDispatch(ctx context.Context, descriptors []dispatch.Notification) {
	for _, descriptor := range descriptors {
		if descriptor.RecipientID != "" {
			s.emit(ctx, CreateNotificationInput{
				UserID:  descriptor.RecipientID,
				Type:    descriptor.Type,
				Title:   descriptor.Title,
				Message: descriptor.Message,
			})
			continue
		}
		if len(descriptor.Roles) == 0 {
			continue
		}

		var recipients []string
		if err := s.db.WithContext(ensureContext(ctx)).
			Model(&models.User{}).
			Where("role IN ? AND is_active = ?", descriptor.Roles, true).
			Pluck("id", &recipients).Error; err != nil {
			logger.WithModule("notifications").Warn("broadcast recipients lookup failed", zap.Error(err))
			continue
		}
		for _, recipient := range recipients {
			s.emit(ctx, CreateNotificationInput{
				UserID:  recipient,
				Type:    descriptor.Type,
				Title:   descriptor.Title,
				Message: descriptor.Message,
			})
		}
	}
}

func (s *NotificationService) emit(ctx context.Context, input CreateNotificationInput) {
	if _, err := s.Create(ctx, input); err != nil {
		logger.WithModule("notifications").Warn("notification delivery failed",
			zap.String("recipient", input.UserID),
			zap.String("type", input.Type),
			zap.Error(err),
		)
	}
}
