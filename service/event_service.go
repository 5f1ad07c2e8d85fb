package service

import (
	"context"
	"fmt"
	"strings"

	"betpool/config"
	"betpool/events"
	"betpool/models"

	log "github.com/sirupsen/logrus"
)

type eventService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewEventService creates a new event service
func NewEventService(uowFactory UnitOfWorkFactory, cfg *config.Config) EventService {
	return &eventService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// SubmitEvent validates the request and stores the event pending review
func (s *eventService) SubmitEvent(ctx context.Context, req SubmitEventRequest) (int64, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)

	if err := validate.Struct(req); err != nil {
		return 0, fromValidator(err)
	}
	if req.QuotaPrice < s.config.MinQuotaPrice {
		return 0, newValidationError("quotaprice", fmt.Sprintf("must be at least %d", s.config.MinQuotaPrice))
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, asStoreTimeout(err)
	}
	defer uow.Rollback()

	if _, err := getAccount(ctx, uow, req.OwnerAccountID); err != nil {
		return 0, asStoreTimeout(err)
	}

	event := &models.Event{
		OwnerAccountID: req.OwnerAccountID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		QuotaPrice:     req.QuotaPrice,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		EventDate:      req.EventDate,
		Status:         models.EventStatusPendingReview,
	}
	if err := uow.EventRepository().Create(ctx, event); err != nil {
		return 0, asStoreTimeout(fmt.Errorf("failed to create event: %w", err))
	}

	uow.EventBus().Publish(events.EventSubmittedEvent{
		EventID:        event.ID,
		OwnerAccountID: event.OwnerAccountID,
		Title:          event.Title,
	})

	if err := uow.Commit(); err != nil {
		return 0, asStoreTimeout(err)
	}

	log.WithFields(log.Fields{
		"eventID": event.ID,
		"ownerID": event.OwnerAccountID,
	}).Info("Event submitted for review")

	return event.ID, nil
}

// ReviewEvent approves or rejects an event awaiting review
func (s *eventService) ReviewEvent(ctx context.Context, eventID int64, decision models.ReviewDecision, rejectionMessage string) error {
	rejectionMessage = strings.TrimSpace(rejectionMessage)

	var next models.EventStatus
	switch decision {
	case models.ReviewDecisionApprove:
		next = models.EventStatusOpenForBetting
	case models.ReviewDecisionReject:
		next = models.EventStatusRejected
		if rejectionMessage == "" {
			return newValidationError("rejectionmessage", "required when rejecting")
		}
	default:
		return newValidationError("decision", fmt.Sprintf("unknown decision %q", decision))
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return asStoreTimeout(err)
	}
	defer uow.Rollback()

	event, err := lockEvent(ctx, uow, eventID)
	if err != nil {
		return asStoreTimeout(err)
	}
	if !event.Status.CanTransitionTo(next) {
		return fmt.Errorf("event %d is %s, cannot move to %s: %w", eventID, event.Status, next, ErrInvalidState)
	}

	event.Status = next
	if next == models.EventStatusRejected {
		event.RejectionMessage = &rejectionMessage
	}
	if err := uow.EventRepository().Update(ctx, event); err != nil {
		return asStoreTimeout(fmt.Errorf("failed to update event: %w", err))
	}

	if next == models.EventStatusRejected {
		owner, err := getAccount(ctx, uow, event.OwnerAccountID)
		if err != nil {
			return asStoreTimeout(err)
		}
		uow.EventBus().Publish(events.EventRejectedEvent{
			EventID:          event.ID,
			Title:            event.Title,
			OwnerAccountID:   owner.ID,
			OwnerEmail:       owner.Email,
			OwnerName:        owner.DisplayName,
			RejectionMessage: rejectionMessage,
		})
	} else {
		uow.EventBus().Publish(events.EventApprovedEvent{EventID: event.ID, Title: event.Title})
	}

	if err := uow.Commit(); err != nil {
		return asStoreTimeout(err)
	}

	log.WithFields(log.Fields{
		"eventID":  eventID,
		"decision": decision,
	}).Info("Event reviewed")

	return nil
}

// RemoveEvent takes an open event off the market. Outstanding bets are
// forfeited or refunded according to the configured removal policy.
func (s *eventService) RemoveEvent(ctx context.Context, eventID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return asStoreTimeout(err)
	}
	defer uow.Rollback()

	event, err := lockEvent(ctx, uow, eventID)
	if err != nil {
		return asStoreTimeout(err)
	}
	if !event.Status.CanTransitionTo(models.EventStatusRemoved) {
		return fmt.Errorf("event %d is %s, cannot remove: %w", eventID, event.Status, ErrInvalidState)
	}

	bets, err := uow.BetRepository().GetByEvent(ctx, eventID)
	if err != nil {
		return asStoreTimeout(fmt.Errorf("failed to get bets: %w", err))
	}

	var refunded int64
	if s.config.RemovalPolicy == config.RemovalPolicyRefund {
		for _, bet := range bets {
			stake := event.StakeFor(bet.QuotaCount)
			_, err := creditWallet(ctx, uow, ledgerEntry{
				walletID: bet.WalletID,
				amount:   stake,
				txType:   models.TransactionTypeBetRefund,
				metadata: map[string]any{
					"event_id":    eventID,
					"quota_count": bet.QuotaCount,
					"outcome":     bet.ChosenOutcome,
				},
				relatedID:   int64Ptr(bet.ID),
				relatedType: models.RelatedTypeBet,
			})
			if err != nil {
				return asStoreTimeout(fmt.Errorf("failed to refund bet %d: %w", bet.ID, err))
			}
			refunded += stake
		}
	}

	event.Status = models.EventStatusRemoved
	if err := uow.EventRepository().Update(ctx, event); err != nil {
		return asStoreTimeout(fmt.Errorf("failed to update event: %w", err))
	}

	uow.EventBus().Publish(events.EventRemovedEvent{
		EventID:      eventID,
		Policy:       string(s.config.RemovalPolicy),
		BetsAffected: len(bets),
		Refunded:     refunded,
	})

	if err := uow.Commit(); err != nil {
		return asStoreTimeout(err)
	}

	log.WithFields(log.Fields{
		"eventID":  eventID,
		"policy":   s.config.RemovalPolicy,
		"bets":     len(bets),
		"refunded": refunded,
	}).Info("Event removed")

	return nil
}

// GetEvent retrieves an event by ID
func (s *eventService) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, asStoreTimeout(err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetByID(ctx, eventID)
	if err != nil {
		return nil, asStoreTimeout(fmt.Errorf("failed to get event: %w", err))
	}
	if event == nil {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}
	return event, nil
}

// ListEvents returns events in status, or every event when status is empty
func (s *eventService) ListEvents(ctx context.Context, status models.EventStatus) ([]*models.Event, error) {
	var filter *models.EventStatus
	if status != "" {
		if !status.IsValid() {
			return nil, newValidationError("status", fmt.Sprintf("unknown status %q", status))
		}
		filter = &status
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, asStoreTimeout(err)
	}
	defer uow.Rollback()

	list, err := uow.EventRepository().List(ctx, filter)
	if err != nil {
		return nil, asStoreTimeout(fmt.Errorf("failed to list events: %w", err))
	}
	return list, nil
}

// SearchEvents returns events open for betting whose text contains term, ignoring case
func (s *eventService) SearchEvents(ctx context.Context, term string) ([]*models.Event, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, newValidationError("term", "must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, asStoreTimeout(err)
	}
	defer uow.Rollback()

	found, err := uow.EventRepository().Search(ctx, term, models.EventStatusOpenForBetting)
	if err != nil {
		return nil, asStoreTimeout(fmt.Errorf("failed to search events: %w", err))
	}
	return found, nil
}

// lockEvent loads an event under an exclusive row lock or fails with ErrNotFound
func lockEvent(ctx context.Context, uow UnitOfWork, eventID int64) (*models.Event, error) {
	event, err := uow.EventRepository().GetByIDForUpdate(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}
	return event, nil
}

// RegisterReviewNotifier delivers rejection notices once the rejecting
// transaction has committed. Delivery failures are logged and never retried.
func RegisterReviewNotifier(bus *events.Bus, notifier ReviewNotifier) {
	bus.Subscribe(events.EventTypeEventRejected, func(ctx context.Context, e events.Event) {
		notice, ok := e.(events.EventRejectedEvent)
		if !ok {
			return
		}
		if err := notifier.NotifyRejection(ctx, notice); err != nil {
			log.WithFields(log.Fields{
				"eventID": notice.EventID,
				"ownerID": notice.OwnerAccountID,
			}).WithError(err).Error("Failed to deliver rejection notice")
		}
	})
}
