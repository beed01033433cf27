package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/db"
	"github.com/vedacart/vedacart/internal/email"
	"github.com/vedacart/vedacart/internal/logging"
	"github.com/vedacart/vedacart/internal/models"
)

type ConsultationService struct {
	store     *db.ConsultationStore
	userStore *db.UserStore
	mailer    email.Provider
	logger    *slog.Logger
}

func NewConsultationService(store *db.ConsultationStore, userStore *db.UserStore, mailer email.Provider, logger *slog.Logger) *ConsultationService {
	return &ConsultationService{store: store, userStore: userStore, mailer: mailer, logger: logger}
}

func (s *ConsultationService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type ConsultationInput struct {
	Topic         string    `json:"topic" validate:"required,min=3,max=200"`
	Notes         string    `json:"notes" validate:"max=2000"`
	PreferredSlot time.Time `json:"preferred_slot" validate:"required"`
	ContactPhone  string    `json:"contact_phone" validate:"required,len=10,numeric"`
}

func (s *ConsultationService) Book(ctx context.Context, userID uuid.UUID, input ConsultationInput) (*models.Consultation, error) {
	if input.PreferredSlot.Before(time.Now()) {
		return nil, apperr.New(apperr.KindValidation, "preferred slot must be in the future")
	}

	c := &models.Consultation{
		UserID:        userID,
		Topic:         input.Topic,
		Notes:         input.Notes,
		PreferredSlot: input.PreferredSlot,
		ContactPhone:  input.ContactPhone,
		Status:        models.ConsultationRequested,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create consultation: %w", err)
	}

	s.loggerFromContext(ctx).Info("consultation booked", "consultation_id", c.ID, "user_id", userID)
	s.sendBookingEmail(ctx, c)
	return c, nil
}

func (s *ConsultationService) sendBookingEmail(ctx context.Context, c *models.Consultation) {
	if s.mailer == nil || s.userStore == nil {
		return
	}
	logger := s.loggerFromContext(ctx)

	user, err := s.userStore.GetByID(ctx, c.UserID)
	if err != nil {
		logger.Error("failed to load user for consultation email", "error", err, "consultation_id", c.ID)
		return
	}

	msg := &email.Email{
		To:      user.Email,
		Subject: "Your consultation request has been received",
		Text: fmt.Sprintf("Hi %s,\n\nWe have received your consultation request on %q for %s. "+
			"Our practitioner will confirm the slot shortly.\n\nVedaCart",
			user.Name, c.Topic, c.PreferredSlot.Format("Mon, 2 Jan 2006 at 3:04 PM")),
	}
	if err := s.mailer.SendEmail(ctx, msg); err != nil {
		logger.Error("failed to send consultation email", "error", err, "consultation_id", c.ID)
	}
}

func (s *ConsultationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Consultation, error) {
	consultations, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	return consultations, nil
}

func (s *ConsultationService) List(ctx context.Context, status models.ConsultationStatus) ([]models.Consultation, error) {
	consultations, err := s.store.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	return consultations, nil
}

// UpdateStatus moves a booking through requested → confirmed → done,
// or to cancelled. Terminal bookings are immutable.
func (s *ConsultationService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ConsultationStatus) (*models.Consultation, error) {
	switch status {
	case models.ConsultationConfirmed, models.ConsultationDone, models.ConsultationCancelled:
	default:
		return nil, apperr.New(apperr.KindValidation, "invalid consultation status")
	}

	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			return nil, apperr.New(apperr.KindConflict, "consultation is already closed")
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "consultation not found")
		}
		return nil, fmt.Errorf("failed to update consultation: %w", err)
	}

	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload consultation: %w", err)
	}
	return c, nil
}
