package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/audiomint/audiomint-backend/internal/dto"
	"github.com/audiomint/audiomint-backend/internal/models"
	"github.com/audiomint/audiomint-backend/internal/plans"
)

type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// HandleWebhookEvent maintains the subscription row and the user's plan tier.
// RevenueCat's app_user_id carries the identity subject, the same value the
// auth tokens use.
func (s *SubscriptionService) HandleWebhookEvent(event *dto.RevenueCatEvent) error {
	switch event.Type {
	case "INITIAL_PURCHASE", "RENEWAL", "PRODUCT_CHANGE":
		return s.handlePurchase(event)
	case "CANCELLATION":
		return s.handleCancellation(event)
	case "EXPIRATION":
		return s.handleExpiration(event)
	default:
		slog.Info("ignoring webhook event", "event_type", event.Type)
		return nil
	}
}

func (s *SubscriptionService) handlePurchase(event *dto.RevenueCatEvent) error {
	tier := plans.TierForProduct(event.ProductID)

	user, err := s.userBySubject(event.AppUserID)
	if err != nil {
		return err
	}

	var sub models.Subscription
	err = s.db.Where("revenuecat_id = ?", event.AppUserID).First(&sub).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = models.Subscription{
			UserID:             user.ID,
			RevenueCatID:       event.AppUserID,
			ProductID:          event.ProductID,
			PlanTier:           tier,
			Status:             "active",
			CurrentPeriodStart: msToTime(event.PurchasedAtMs),
			CurrentPeriodEnd:   msToTime(event.ExpirationAtMs),
		}
		if err := s.db.Create(&sub).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		updates := map[string]interface{}{
			"product_id":           event.ProductID,
			"plan_tier":            tier,
			"status":               "active",
			"current_period_start": msToTime(event.PurchasedAtMs),
			"current_period_end":   msToTime(event.ExpirationAtMs),
		}
		if err := s.db.Model(&sub).Updates(updates).Error; err != nil {
			return err
		}
	}

	return s.db.Model(user).Update("plan_tier", tier).Error
}

// handleCancellation marks the subscription cancelled. The paid tier stays in
// effect until the period expires.
func (s *SubscriptionService) handleCancellation(event *dto.RevenueCatEvent) error {
	res := s.db.Model(&models.Subscription{}).
		Where("revenuecat_id = ?", event.AppUserID).
		Update("status", "cancelled")
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("subscription not found for cancellation: %s", event.AppUserID)
	}
	return nil
}

func (s *SubscriptionService) handleExpiration(event *dto.RevenueCatEvent) error {
	if err := s.db.Model(&models.Subscription{}).
		Where("revenuecat_id = ?", event.AppUserID).
		Update("status", "expired").Error; err != nil {
		return err
	}

	user, err := s.userBySubject(event.AppUserID)
	if err != nil {
		return err
	}
	return s.db.Model(user).Update("plan_tier", plans.TierFree).Error
}

// Current returns the user's most recent subscription, nil when none exists.
func (s *SubscriptionService) Current(userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *SubscriptionService) userBySubject(subject string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("subject = ?", subject).First(&user).Error; err != nil {
		return nil, fmt.Errorf("user not found for subject %s: %w", subject, err)
	}
	return &user, nil
}

func msToTime(ms int64) time.Time {
	return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond))
}
