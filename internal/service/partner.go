package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dailybite/dailybite/internal/apperror"
	"github.com/dailybite/dailybite/internal/model"
	"github.com/dailybite/dailybite/internal/repository"
)

const MaxPartnerNameLength = 100

// PartnerService handles the legacy business-partner CRUD.
type PartnerService struct {
	partners repository.PartnerRepository
	logger   *slog.Logger
}

// NewPartnerService creates a PartnerService.
func NewPartnerService(partners repository.PartnerRepository, logger *slog.Logger) *PartnerService {
	return &PartnerService{partners: partners, logger: logger}
}

// PartnerInput carries the fields for creating a partner.
type PartnerInput struct {
	Name    string
	Email   string
	Company string
	Phone   string
	Website string
	Active  bool
}

// Create validates and saves a new partner. A duplicate email comes back
// from the repository as a Conflict.
func (s *PartnerService) Create(ctx context.Context, in PartnerInput) (*model.Partner, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxPartnerNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxPartnerNameLength))
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Company) == "" {
		return nil, apperror.ValidationFailed("company", "company is required")
	}

	partner := &model.Partner{
		Name:    name,
		Email:   email,
		Company: strings.TrimSpace(in.Company),
		Phone:   strings.TrimSpace(in.Phone),
		Website: strings.TrimSpace(in.Website),
		Active:  in.Active,
	}

	if err := s.partners.Create(ctx, partner); err != nil {
		return nil, err
	}

	s.logger.Info("partner created",
		slog.String("partnerID", partner.ID),
		slog.String("company", partner.Company),
	)

	return partner, nil
}

// Get returns a single partner.
func (s *PartnerService) Get(ctx context.Context, id string) (*model.Partner, error) {
	return s.partners.GetByID(ctx, id)
}

// List returns partners with pagination, optionally only active ones.
func (s *PartnerService) List(ctx context.Context, limit, offset int, activeOnly bool) ([]model.Partner, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.partners.List(ctx, repository.ListOptions{Limit: limit, Offset: offset}, activeOnly)
}

// Update applies a merge-patch to a partner.
func (s *PartnerService) Update(ctx context.Context, id string, patch model.PartnerPatch) (*model.Partner, error) {
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" || len(trimmed) > MaxPartnerNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("name must be between 1 and %d characters", MaxPartnerNameLength))
		}
		patch.Name = &trimmed
	}
	if patch.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*patch.Email))
		if err := validateEmail(normalized); err != nil {
			return nil, err
		}
		patch.Email = &normalized
	}

	partner, err := s.partners.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Merge(partner)

	if err := s.partners.Update(ctx, partner); err != nil {
		return nil, err // duplicate email → Conflict, vanished row → NotFound
	}

	return partner, nil
}

// Delete removes a partner. Absent partners surface as NotFound.
func (s *PartnerService) Delete(ctx context.Context, id string) error {
	if err := s.partners.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("partner deleted", slog.String("partnerID", id))
	return nil
}
