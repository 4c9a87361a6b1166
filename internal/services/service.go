package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/servmarket/servmarket-backend/pkg/db/models"
	"github.com/servmarket/servmarket-backend/pkg/enums"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
	"github.com/servmarket/servmarket-backend/pkg/logger"
	"github.com/servmarket/servmarket-backend/pkg/pagination"
	"github.com/servmarket/servmarket-backend/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var maxHourlyRate = decimal.New(99999999, 0)

// Editor is the principal changing a listing.
type Editor struct {
	ID   uint64
	Role enums.Role
}

// Service manages marketplace listings.
type Service interface {
	Create(ctx context.Context, input CreateServiceInput) (*ServiceDTO, error)
	Update(ctx context.Context, editor Editor, id uint64, input UpdateServiceInput) (*ServiceDTO, error)
	Get(ctx context.Context, id uint64) (*ServiceDTO, error)
	List(ctx context.Context, params pagination.Params) (*pagination.Page[ServiceDTO], error)
	ListByUser(ctx context.Context, userID uint64, params pagination.Params) (*pagination.Page[ServiceDTO], error)
	ListByType(ctx context.Context, serviceType enums.ServiceType, params pagination.Params) (*pagination.Page[ServiceDTO], error)
}

type serviceRepository interface {
	Create(ctx context.Context, svc *models.Service) error
	FindByID(ctx context.Context, id uint64) (*models.Service, error)
	Update(ctx context.Context, svc *models.Service) error
	List(ctx context.Context, filter ListFilter) ([]models.Service, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id uint64) (*models.User, error)
}

type organizationLookup interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// ServiceParams bundles the dependencies required to build a listings service.
type ServiceParams struct {
	Repo          serviceRepository
	Users         userLookup
	Organizations organizationLookup
	Logger        *logger.Logger
}

type service struct {
	repo  serviceRepository
	users userLookup
	orgs  organizationLookup
	logg  *logger.Logger
}

// NewService constructs the listings service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("service repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user lookup is required")
	}
	if params.Organizations == nil {
		return nil, fmt.Errorf("organization lookup is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Repo, users: params.Users, orgs: params.Organizations, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateServiceInput) (*ServiceDTO, error) {
	if input.UserID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is required")
	}
	rate, err := normalizeRate(input.HourlyRate)
	if err != nil {
		return nil, err
	}

	svc := &models.Service{
		ServiceType:                  input.ServiceType,
		UserID:                       input.UserID,
		OrganizationID:               input.OrganizationID,
		FirstName:                    clean(input.FirstName),
		LastName:                     clean(input.LastName),
		Phone:                        clean(input.Phone),
		AIAgentName:                  clean(input.AIAgentName),
		AIModel:                      clean(input.AIModel),
		AIVersion:                    clean(input.AIVersion),
		HourlyRate:                   rate,
		ProfessionalDescription:      strings.TrimSpace(input.ProfessionalDescription),
		SkillsDescription:            strings.TrimSpace(input.SkillsDescription),
		Skills:                       cleanList(input.Skills),
		Domains:                      cleanList(input.Domains),
		Localization:                 strings.TrimSpace(input.Localization),
		ShortProfessionalDescription: strings.TrimSpace(input.ShortProfessionalDescription),
		ShortSkillsDescription:       strings.TrimSpace(input.ShortSkillsDescription),
	}
	if err := validateListing(svc); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, svc.UserID); err != nil {
		return nil, err
	}
	if err := s.requireOrganization(ctx, svc.OrganizationID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create service")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"service_id": svc.ID, "service_type": svc.ServiceType})
	s.logg.Info(ctx, "services.created")
	return FromModel(svc), nil
}

func (s *service) Update(ctx context.Context, editor Editor, id uint64, input UpdateServiceInput) (*ServiceDTO, error) {
	svc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc.UserID != editor.ID && editor.Role != enums.RoleAdministrator {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you can only update your own services")
	}

	if input.ServiceType != nil {
		svc.ServiceType = *input.ServiceType
	}
	if input.OrganizationID != nil {
		if *input.OrganizationID == 0 {
			svc.OrganizationID = nil
		} else {
			orgID := *input.OrganizationID
			svc.OrganizationID = &orgID
		}
	}
	assignOptional(&svc.FirstName, input.FirstName)
	assignOptional(&svc.LastName, input.LastName)
	assignOptional(&svc.Phone, input.Phone)
	assignOptional(&svc.AIAgentName, input.AIAgentName)
	assignOptional(&svc.AIModel, input.AIModel)
	assignOptional(&svc.AIVersion, input.AIVersion)
	if input.HourlyRate != nil {
		rate, err := normalizeRate(*input.HourlyRate)
		if err != nil {
			return nil, err
		}
		svc.HourlyRate = rate
	}
	assignText(&svc.ProfessionalDescription, input.ProfessionalDescription)
	assignText(&svc.SkillsDescription, input.SkillsDescription)
	assignText(&svc.Localization, input.Localization)
	assignText(&svc.ShortProfessionalDescription, input.ShortProfessionalDescription)
	assignText(&svc.ShortSkillsDescription, input.ShortSkillsDescription)
	if input.Skills != nil {
		svc.Skills = cleanList(input.Skills)
	}
	if input.Domains != nil {
		svc.Domains = cleanList(input.Domains)
	}

	if err := validateListing(svc); err != nil {
		return nil, err
	}
	if input.OrganizationID != nil {
		if err := s.requireOrganization(ctx, svc.OrganizationID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update service")
	}
	s.logg.Info(s.logg.WithField(ctx, "service_id", svc.ID), "services.updated")
	return FromModel(svc), nil
}

func (s *service) Get(ctx context.Context, id uint64) (*ServiceDTO, error) {
	svc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(svc), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*pagination.Page[ServiceDTO], error) {
	return s.list(ctx, ListFilter{}, params)
}

func (s *service) ListByUser(ctx context.Context, userID uint64, params pagination.Params) (*pagination.Page[ServiceDTO], error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is required")
	}
	return s.list(ctx, ListFilter{UserID: userID}, params)
}

func (s *service) ListByType(ctx context.Context, serviceType enums.ServiceType, params pagination.Params) (*pagination.Page[ServiceDTO], error) {
	if !serviceType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid service type")
	}
	return s.list(ctx, ListFilter{ServiceType: serviceType}, params)
}

func (s *service) list(ctx context.Context, filter ListFilter, params pagination.Params) (*pagination.Page[ServiceDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		filter.BeforeID = cursor.ID
	}
	filter.Limit = pagination.LimitWithBuffer(params.Limit)

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list services")
	}
	items := make([]ServiceDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	page := pagination.Trim(items, params.Limit, func(d ServiceDTO) uint64 { return d.ID })
	return &page, nil
}

func (s *service) load(ctx context.Context, id uint64) (*models.Service, error) {
	svc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load service")
	}
	return svc, nil
}

func (s *service) requireUser(ctx context.Context, id uint64) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found").WithDetails(map[string]any{"id": id})
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user.DeletedAt.Valid {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found").WithDetails(map[string]any{"id": id})
	}
	return nil
}

func (s *service) requireOrganization(ctx context.Context, id *uint64) error {
	if id == nil {
		return nil
	}
	exists, err := s.orgs.Exists(ctx, *id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup organization")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "organization not found").WithDetails(map[string]any{"id": *id})
	}
	return nil
}

// validateListing enforces the fields each provider type depends on.
func validateListing(svc *models.Service) error {
	switch svc.ServiceType {
	case enums.ServiceTypeHumanProvider:
		if svc.FirstName == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "first_name is required for human providers")
		}
		if svc.LastName == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "last_name is required for human providers")
		}
		if svc.Phone == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "phone is required for human providers")
		}
	case enums.ServiceTypeAIAgent:
		if svc.AIAgentName == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "ai_agent_name is required for AI agents")
		}
		if svc.AIModel == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "ai_model is required for AI agents")
		}
		if svc.AIVersion == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "ai_version is required for AI agents")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid service type")
	}
	if svc.ProfessionalDescription == "" || svc.SkillsDescription == "" ||
		svc.ShortProfessionalDescription == "" || svc.ShortSkillsDescription == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "descriptions are required")
	}
	if len(svc.Skills) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one skill is required")
	}
	if len(svc.Domains) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one domain is required")
	}
	return nil
}

func normalizeRate(rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "hourly_rate must not be negative")
	}
	if rate.GreaterThan(maxHourlyRate) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "hourly_rate is too large")
	}
	return rate.Round(2), nil
}

func clean(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	if out == "" {
		return nil
	}
	return &out
}

func cleanList(values []string) types.StringList {
	out := make(types.StringList, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func assignOptional(dst **string, value *string) {
	if value != nil {
		*dst = clean(value)
	}
}

func assignText(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}
