package automatedservices

import (
	"encoding/json"
	"time"

	"github.com/servmarket/servmarket-backend/pkg/db/models"
	"github.com/servmarket/servmarket-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Pricing models.
const (
	PricingFree         = "free"
	PricingPerRequest   = "per_request"
	PricingSubscription = "subscription"
)

type Provider struct {
	ID     string `json:"id" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Avatar string `json:"avatar,omitempty" validate:"omitempty,url"`
}

type Pricing struct {
	Type     string           `json:"type" validate:"required,oneof=free per_request subscription"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Currency string           `json:"currency,omitempty" validate:"omitempty,len=3"`
}

type Configuration struct {
	Endpoint        string            `json:"endpoint" validate:"required,url"`
	Method          string            `json:"method" validate:"required,oneof=GET POST get post"`
	Headers         map[string]string `json:"headers,omitempty"`
	BodyTemplate    string            `json:"body_template,omitempty"`
	ResponseMapping map[string]string `json:"response_mapping" validate:"required"`
}

type Usage struct {
	TotalRequests int64   `json:"total_requests" validate:"gte=0"`
	AverageRating float64 `json:"average_rating" validate:"gte=0,lte=5"`
	IsActive      bool    `json:"is_active"`
}

type Example struct {
	Input       map[string]any `json:"input" validate:"required"`
	Output      map[string]any `json:"output" validate:"required"`
	Description string         `json:"description" validate:"required"`
}

type Metadata struct {
	Tags     []string  `json:"tags"`
	Examples []Example `json:"examples" validate:"dive"`
}

// CreateInput registers an automated service.
type CreateInput struct {
	Name          string        `json:"name" validate:"required,max=255"`
	Description   string        `json:"description" validate:"required"`
	Category      string        `json:"category" validate:"required,max=100"`
	Provider      Provider      `json:"provider"`
	Pricing       Pricing       `json:"pricing"`
	Configuration Configuration `json:"configuration"`
	Usage         *Usage        `json:"usage,omitempty"`
	Metadata      *Metadata     `json:"metadata,omitempty"`
}

// AutomatedServiceDTO is the transport shape for automated services.
type AutomatedServiceDTO struct {
	ID            uint64         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	Provider      types.Document `json:"provider"`
	Pricing       types.Document `json:"pricing"`
	Configuration types.Document `json:"configuration"`
	Usage         types.Document `json:"usage"`
	Metadata      types.Document `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// FromModel maps the persisted row into its transport shape.
func FromModel(m *models.AutomatedService) *AutomatedServiceDTO {
	if m == nil {
		return nil
	}
	return &AutomatedServiceDTO{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		Category:      m.Category,
		Provider:      orEmpty(m.Provider),
		Pricing:       orEmpty(m.Pricing),
		Configuration: orEmpty(m.Configuration),
		Usage:         orEmpty(m.Usage),
		Metadata:      orEmpty(m.Metadata),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func orEmpty(doc types.Document) types.Document {
	if doc == nil {
		return types.Document{}
	}
	return doc
}

// toDocument flattens a typed section into the JSON document stored in the row.
func toDocument(section any) (types.Document, error) {
	raw, err := json.Marshal(section)
	if err != nil {
		return nil, err
	}
	doc := types.Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
