package automatedservices

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/servmarket/servmarket-backend/pkg/db/models"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
	"github.com/servmarket/servmarket-backend/pkg/logger"
	"github.com/servmarket/servmarket-backend/pkg/pagination"
	"github.com/servmarket/servmarket-backend/pkg/types"
	"gorm.io/gorm"
)

const defaultCurrency = "EUR"

// Service manages the automated service catalogue.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*AutomatedServiceDTO, error)
	Get(ctx context.Context, id uint64) (*AutomatedServiceDTO, error)
	List(ctx context.Context, category string, params pagination.Params) (*pagination.Page[AutomatedServiceDTO], error)
}

type repository interface {
	Create(ctx context.Context, m *models.AutomatedService) error
	FindByID(ctx context.Context, id uint64) (*models.AutomatedService, error)
	List(ctx context.Context, category string, beforeID uint64, limit int) ([]models.AutomatedService, error)
}

type ServiceParams struct {
	Repo   repository
	Logger *logger.Logger
}

type service struct {
	repo repository
	logg *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("automated service repository is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Repo, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*AutomatedServiceDTO, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	if input.Name == "" || input.Category == "" || strings.TrimSpace(input.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, description and category are required")
	}
	if input.Provider.ID == "" || input.Provider.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id and name are required")
	}
	if input.Configuration.Endpoint == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "configuration endpoint is required")
	}
	method := strings.ToUpper(input.Configuration.Method)
	if method != "GET" && method != "POST" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "configuration method must be GET or POST")
	}
	input.Configuration.Method = method
	if input.Configuration.ResponseMapping == nil {
		input.Configuration.ResponseMapping = map[string]string{}
	}
	pricing, err := normalizePricing(input.Pricing)
	if err != nil {
		return nil, err
	}
	input.Pricing = pricing

	usage := Usage{IsActive: true}
	if input.Usage != nil {
		usage = *input.Usage
	}
	metadata := Metadata{Tags: []string{}, Examples: []Example{}}
	if input.Metadata != nil {
		metadata = *input.Metadata
	}

	row := &models.AutomatedService{
		Name:        input.Name,
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
	}
	sections := []struct {
		dst   *types.Document
		value any
		name  string
	}{
		{&row.Provider, input.Provider, "provider"},
		{&row.Pricing, input.Pricing, "pricing"},
		{&row.Configuration, input.Configuration, "configuration"},
		{&row.Usage, usage, "usage"},
		{&row.Metadata, metadata, "metadata"},
	}
	for _, section := range sections {
		doc, err := toDocument(section.value)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encode "+section.name)
		}
		*section.dst = doc
	}

	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create automated service")
	}
	s.logg.Info(s.logg.WithField(ctx, "automated_service_id", row.ID), "automated_services.created")
	return FromModel(row), nil
}

func normalizePricing(p Pricing) (Pricing, error) {
	switch p.Type {
	case PricingFree:
		if p.Amount != nil && !p.Amount.IsZero() {
			return p, pkgerrors.New(pkgerrors.CodeValidation, "free pricing cannot carry an amount")
		}
		p.Amount = nil
		p.Currency = ""
	case PricingPerRequest, PricingSubscription:
		if p.Amount == nil || !p.Amount.IsPositive() {
			return p, pkgerrors.New(pkgerrors.CodeValidation, "pricing amount must be positive")
		}
		rounded := p.Amount.Round(2)
		p.Amount = &rounded
		p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
		if p.Currency == "" {
			p.Currency = defaultCurrency
		}
	default:
		return p, pkgerrors.New(pkgerrors.CodeValidation, "pricing type must be free, per_request or subscription")
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, id uint64) (*AutomatedServiceDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "automated service not found").WithDetails(map[string]any{"id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load automated service")
	}
	return FromModel(row), nil
}

func (s *service) List(ctx context.Context, category string, params pagination.Params) (*pagination.Page[AutomatedServiceDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	var beforeID uint64
	if cursor != nil {
		beforeID = cursor.ID
	}
	rows, err := s.repo.List(ctx, strings.TrimSpace(category), beforeID, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list automated services")
	}
	items := make([]AutomatedServiceDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	page := pagination.Trim(items, params.Limit, func(d AutomatedServiceDTO) uint64 { return d.ID })
	return &page, nil
}
