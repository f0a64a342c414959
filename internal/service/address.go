package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/desi_occasions/internal/models"
	"github.com/Skotchmaster/desi_occasions/internal/repo"
	"github.com/Skotchmaster/desi_occasions/internal/transport"
)

type AddressService struct {
	Repo *repo.GormRepo
}

func (s *AddressService) List(ctx context.Context, userID uuid.UUID) ([]models.CustomerAddress, error) {
	out, err := s.Repo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.CustomerAddress{}
	}
	return out, nil
}

func (s *AddressService) Create(ctx context.Context, userID uuid.UUID, req transport.AddressRequest) (*models.CustomerAddress, error) {
	addr := SafeText(req.Address, maxAddress)
	if addr == "" {
		return nil, fmt.Errorf("%w: address required", ErrValidation)
	}
	mapURL, err := optionalURL("map_url", &req.MapURL, maxMapURL)
	if err != nil {
		return nil, err
	}
	a := &models.CustomerAddress{
		UserID:  userID,
		Label:   SafeText(req.Label, maxAddressLabel),
		Address: addr,
		MapURL:  mapURL,
	}
	if err := s.Repo.CreateAddress(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes an address that belongs to userID.
func (s *AddressService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	a, err := s.Repo.AddressByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: address not found", ErrNotFound)
		}
		return err
	}
	if a.UserID != userID {
		return fmt.Errorf("%w: address belongs to another account", ErrForbidden)
	}
	if err := s.Repo.DeleteAddress(ctx, id, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: address not found", ErrNotFound)
		}
		return err
	}
	return nil
}
