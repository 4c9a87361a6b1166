package organizations

import (
	"context"
	"errors"
	"fmt"

	"github.com/servmarket/servmarket-backend/pkg/db/models"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
	"github.com/servmarket/servmarket-backend/pkg/logger"
	"github.com/servmarket/servmarket-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service manages organizations.
type Service interface {
	Create(ctx context.Context, input CreateOrganizationInput) (*OrganizationDTO, error)
	Get(ctx context.Context, id uint64) (*OrganizationDTO, error)
	List(ctx context.Context, params pagination.Params) (*pagination.Page[OrganizationDTO], error)
}

type organizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	FindByID(ctx context.Context, id uint64) (*models.Organization, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	List(ctx context.Context, beforeID uint64, limit int) ([]models.Organization, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id uint64) (*models.User, error)
}

// ServiceParams bundles the dependencies required to build an organizations service.
type ServiceParams struct {
	Repo   organizationRepository
	Users  userLookup
	Logger *logger.Logger
}

type service struct {
	repo  organizationRepository
	users userLookup
	logg  *logger.Logger
}

// NewService constructs the organizations service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("organization repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user lookup is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Repo, users: params.Users, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrganizationInput) (*OrganizationDTO, error) {
	if input.AuthorID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "author is required")
	}
	if input.Size != "" && !input.Size.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid organization size")
	}
	if input.ActivityStartedAt != nil && input.ActivityEndedAt != nil && input.ActivityEndedAt.Before(*input.ActivityStartedAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "activity end precedes activity start")
	}

	if err := s.requireUser(ctx, input.AuthorID, "author"); err != nil {
		return nil, err
	}
	if input.OwnerID != nil {
		if err := s.requireUser(ctx, *input.OwnerID, "owner"); err != nil {
			return nil, err
		}
	}
	if input.ParentOrganizationID != nil {
		exists, err := s.repo.Exists(ctx, *input.ParentOrganizationID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup parent organization")
		}
		if !exists {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "parent organization not found").
				WithDetails(map[string]any{"id": *input.ParentOrganizationID})
		}
	}

	org := input.toModel()
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create organization")
	}

	ctx = s.logg.WithField(ctx, "organization_id", org.ID)
	s.logg.Info(ctx, "organizations.created")
	return FromModel(org), nil
}

func (s *service) requireUser(ctx context.Context, id uint64, role string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, role+" not found").WithDetails(map[string]any{"id": id})
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup "+role)
	}
	if user.DeletedAt.Valid {
		return pkgerrors.New(pkgerrors.CodeNotFound, role+" not found").WithDetails(map[string]any{"id": id})
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uint64) (*OrganizationDTO, error) {
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load organization")
	}
	return FromModel(org), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*pagination.Page[OrganizationDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	var beforeID uint64
	if cursor != nil {
		beforeID = cursor.ID
	}

	rows, err := s.repo.List(ctx, beforeID, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list organizations")
	}
	items := make([]OrganizationDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	page := pagination.Trim(items, params.Limit, func(o OrganizationDTO) uint64 { return o.ID })
	return &page, nil
}
