package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/db"
	"github.com/vedacart/vedacart/internal/models"
)

type AddressService struct {
	store  *db.AddressStore
	logger *slog.Logger
}

func NewAddressService(store *db.AddressStore, logger *slog.Logger) *AddressService {
	return &AddressService{store: store, logger: logger}
}

type AddressInput struct {
	Name              string `json:"name" validate:"required,min=2,max=100"`
	Phone             string `json:"phone" validate:"required,len=10,numeric"`
	Line1             string `json:"line1" validate:"required,max=200"`
	Line2             string `json:"line2" validate:"max=200"`
	City              string `json:"city" validate:"required,max=100"`
	State             string `json:"state" validate:"required,max=100"`
	Pincode           string `json:"pincode" validate:"required,len=6,numeric"`
	Country           string `json:"country" validate:"required,max=100"`
	IsDefaultShipping bool   `json:"is_default_shipping"`
	IsDefaultBilling  bool   `json:"is_default_billing"`
}

func (s *AddressService) fill(a *models.Address, input AddressInput) {
	a.Name = input.Name
	a.Phone = input.Phone
	a.Line1 = input.Line1
	a.Line2 = input.Line2
	a.City = input.City
	a.State = input.State
	a.Pincode = input.Pincode
	a.Country = input.Country
	a.IsDefaultShipping = input.IsDefaultShipping
	a.IsDefaultBilling = input.IsDefaultBilling
}

func (s *AddressService) Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error) {
	address := &models.Address{UserID: userID}
	s.fill(address, input)

	if err := s.store.Create(ctx, address); err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}
	return address, nil
}

func (s *AddressService) Update(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*models.Address, error) {
	address, err := s.Get(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	s.fill(address, input)

	if err := s.store.Update(ctx, address); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "address not found")
		}
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	return address, nil
}

func (s *AddressService) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if err := s.store.Delete(ctx, addressID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "address not found")
		}
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

func (s *AddressService) Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.store.GetForUser(ctx, addressID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "address not found")
		}
		return nil, fmt.Errorf("failed to load address: %w", err)
	}
	return address, nil
}

func (s *AddressService) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	addresses, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}
