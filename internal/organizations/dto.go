package organizations

import (
	"strings"
	"time"

	"github.com/servmarket/servmarket-backend/pkg/db/models"
	"github.com/servmarket/servmarket-backend/pkg/enums"
)

// CreateOrganizationInput is the payload accepted when registering an
// organization. AuthorID defaults to the caller when zero.
type CreateOrganizationInput struct {
	AuthorID             uint64                 `json:"author_id,omitempty"`
	OwnerID              *uint64                `json:"owner_id,omitempty" validate:"omitempty,gt=0"`
	ParentOrganizationID *uint64                `json:"parent_organization_id,omitempty" validate:"omitempty,gt=0"`
	LegalName            *string                `json:"legal_name,omitempty" validate:"omitempty,max=64"`
	Brand                *string                `json:"brand,omitempty" validate:"omitempty,max=32"`
	Size                 enums.OrganizationSize `json:"o_size,omitempty" validate:"omitempty,enum"`
	JuridicForm          *string                `json:"juridic_form,omitempty" validate:"omitempty,max=8"`
	Currency             *string                `json:"currency,omitempty" validate:"omitempty,max=8"`
	LegalUniqIdentifier  *string                `json:"legal_uniq_identifier,omitempty" validate:"omitempty,max=64"`
	VATNumber            *string                `json:"vat_number,omitempty" validate:"omitempty,max=32"`
	Capital              *int64                 `json:"capital,omitempty" validate:"omitempty,gte=0"`
	ActivityStartedAt    *time.Time             `json:"activity_started_at,omitempty"`
	ActivityEndedAt      *time.Time             `json:"activity_ended_at,omitempty"`
	Description          *string                `json:"description,omitempty"`
	Summary              *string                `json:"summary,omitempty"`
}

// OrganizationDTO is the transport shape for organizations.
type OrganizationDTO struct {
	ID                   uint64                 `json:"id"`
	AuthorID             uint64                 `json:"author_id"`
	OwnerID              *uint64                `json:"owner_id,omitempty"`
	ParentOrganizationID *uint64                `json:"parent_organization_id,omitempty"`
	LegalName            *string                `json:"legal_name,omitempty"`
	Brand                *string                `json:"brand,omitempty"`
	Size                 enums.OrganizationSize `json:"o_size"`
	JuridicForm          *string                `json:"juridic_form,omitempty"`
	Currency             string                 `json:"currency"`
	LegalUniqIdentifier  *string                `json:"legal_uniq_identifier,omitempty"`
	VATNumber            *string                `json:"vat_number,omitempty"`
	Capital              *int64                 `json:"capital,omitempty"`
	ActivityStartedAt    *time.Time             `json:"activity_started_at,omitempty"`
	ActivityEndedAt      *time.Time             `json:"activity_ended_at,omitempty"`
	Description          *string                `json:"description,omitempty"`
	Summary              *string                `json:"summary,omitempty"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// FromModel maps the persisted organization into its transport shape.
func FromModel(o *models.Organization) *OrganizationDTO {
	if o == nil {
		return nil
	}
	return &OrganizationDTO{
		ID:                   o.ID,
		AuthorID:             o.AuthorID,
		OwnerID:              o.OwnerID,
		ParentOrganizationID: o.ParentOrganizationID,
		LegalName:            o.LegalName,
		Brand:                o.Brand,
		Size:                 o.Size,
		JuridicForm:          o.JuridicForm,
		Currency:             o.Currency,
		LegalUniqIdentifier:  o.LegalUniqIdentifier,
		VATNumber:            o.VATNumber,
		Capital:              o.Capital,
		ActivityStartedAt:    o.ActivityStartedAt,
		ActivityEndedAt:      o.ActivityEndedAt,
		Description:          o.Description,
		Summary:              o.Summary,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

func (in CreateOrganizationInput) toModel() *models.Organization {
	size := in.Size
	if size == "" {
		size = enums.OrganizationSizeFreelancer
	}
	currency := "eur"
	if in.Currency != nil && strings.TrimSpace(*in.Currency) != "" {
		currency = strings.ToLower(strings.TrimSpace(*in.Currency))
	}
	return &models.Organization{
		AuthorID:             in.AuthorID,
		OwnerID:              in.OwnerID,
		ParentOrganizationID: in.ParentOrganizationID,
		LegalName:            trimmed(in.LegalName),
		Brand:                trimmed(in.Brand),
		Size:                 size,
		JuridicForm:          trimmed(in.JuridicForm),
		Currency:             currency,
		LegalUniqIdentifier:  trimmed(in.LegalUniqIdentifier),
		VATNumber:            trimmed(in.VATNumber),
		Capital:              in.Capital,
		ActivityStartedAt:    in.ActivityStartedAt,
		ActivityEndedAt:      in.ActivityEndedAt,
		Description:          in.Description,
		Summary:              in.Summary,
	}
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	if out == "" {
		return nil
	}
	return &out
}
