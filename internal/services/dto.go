package services

import (
	"time"

	"github.com/servmarket/servmarket-backend/pkg/db/models"
	"github.com/servmarket/servmarket-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CreateServiceInput describes a new listing. Human providers need a name and
// phone; AI agents need the agent name, model and version. UserID defaults to
// the caller when zero.
type CreateServiceInput struct {
	ServiceType                  enums.ServiceType `json:"service_type" validate:"required,enum"`
	UserID                       uint64            `json:"user_id,omitempty"`
	OrganizationID               *uint64           `json:"organization_id,omitempty" validate:"omitempty,gt=0"`
	FirstName                    *string           `json:"first_name,omitempty" validate:"omitempty,max=64"`
	LastName                     *string           `json:"last_name,omitempty" validate:"omitempty,max=64"`
	Phone                        *string           `json:"phone,omitempty" validate:"omitempty,max=32"`
	AIAgentName                  *string           `json:"ai_agent_name,omitempty" validate:"omitempty,max=128"`
	AIModel                      *string           `json:"ai_model,omitempty" validate:"omitempty,max=128"`
	AIVersion                    *string           `json:"ai_version,omitempty" validate:"omitempty,max=64"`
	HourlyRate                   decimal.Decimal   `json:"hourly_rate"`
	ProfessionalDescription      string            `json:"professional_description" validate:"required"`
	SkillsDescription            string            `json:"skills_description" validate:"required"`
	Skills                       []string          `json:"skills" validate:"required,min=1,dive,required"`
	Domains                      []string          `json:"domains" validate:"required,min=1,dive,required"`
	Localization                 string            `json:"localization" validate:"max=128"`
	ShortProfessionalDescription string            `json:"short_professional_description" validate:"required"`
	ShortSkillsDescription       string            `json:"short_skills_description" validate:"required"`
}

// UpdateServiceInput lists the editable fields; nil means unchanged. An
// OrganizationID of zero detaches the listing from its organization.
type UpdateServiceInput struct {
	ServiceType                  *enums.ServiceType `json:"service_type,omitempty" validate:"omitempty,enum"`
	OrganizationID               *uint64            `json:"organization_id,omitempty"`
	FirstName                    *string            `json:"first_name,omitempty" validate:"omitempty,max=64"`
	LastName                     *string            `json:"last_name,omitempty" validate:"omitempty,max=64"`
	Phone                        *string            `json:"phone,omitempty" validate:"omitempty,max=32"`
	AIAgentName                  *string            `json:"ai_agent_name,omitempty" validate:"omitempty,max=128"`
	AIModel                      *string            `json:"ai_model,omitempty" validate:"omitempty,max=128"`
	AIVersion                    *string            `json:"ai_version,omitempty" validate:"omitempty,max=64"`
	HourlyRate                   *decimal.Decimal   `json:"hourly_rate,omitempty"`
	ProfessionalDescription      *string            `json:"professional_description,omitempty" validate:"omitempty,min=1"`
	SkillsDescription            *string            `json:"skills_description,omitempty" validate:"omitempty,min=1"`
	Skills                       []string           `json:"skills,omitempty" validate:"omitempty,min=1,dive,required"`
	Domains                      []string           `json:"domains,omitempty" validate:"omitempty,min=1,dive,required"`
	Localization                 *string            `json:"localization,omitempty" validate:"omitempty,max=128"`
	ShortProfessionalDescription *string            `json:"short_professional_description,omitempty" validate:"omitempty,min=1"`
	ShortSkillsDescription       *string            `json:"short_skills_description,omitempty" validate:"omitempty,min=1"`
}

// ServiceDTO is the transport shape for listings.
type ServiceDTO struct {
	ID                           uint64            `json:"id"`
	ServiceType                  enums.ServiceType `json:"service_type"`
	UserID                       uint64            `json:"user_id"`
	OrganizationID               *uint64           `json:"organization_id,omitempty"`
	FirstName                    *string           `json:"first_name,omitempty"`
	LastName                     *string           `json:"last_name,omitempty"`
	Phone                        *string           `json:"phone,omitempty"`
	AIAgentName                  *string           `json:"ai_agent_name,omitempty"`
	AIModel                      *string           `json:"ai_model,omitempty"`
	AIVersion                    *string           `json:"ai_version,omitempty"`
	HourlyRate                   decimal.Decimal   `json:"hourly_rate"`
	ProfessionalDescription      string            `json:"professional_description"`
	SkillsDescription            string            `json:"skills_description"`
	Skills                       []string          `json:"skills"`
	Domains                      []string          `json:"domains"`
	Localization                 string            `json:"localization"`
	ShortProfessionalDescription string            `json:"short_professional_description"`
	ShortSkillsDescription       string            `json:"short_skills_description"`
	CreatedAt                    time.Time         `json:"created_at"`
	UpdatedAt                    time.Time         `json:"updated_at"`
}

// FromModel maps the persisted listing into its transport shape.
func FromModel(s *models.Service) *ServiceDTO {
	if s == nil {
		return nil
	}
	skills := []string(s.Skills)
	if skills == nil {
		skills = []string{}
	}
	domains := []string(s.Domains)
	if domains == nil {
		domains = []string{}
	}
	return &ServiceDTO{
		ID:                           s.ID,
		ServiceType:                  s.ServiceType,
		UserID:                       s.UserID,
		OrganizationID:               s.OrganizationID,
		FirstName:                    s.FirstName,
		LastName:                     s.LastName,
		Phone:                        s.Phone,
		AIAgentName:                  s.AIAgentName,
		AIModel:                      s.AIModel,
		AIVersion:                    s.AIVersion,
		HourlyRate:                   s.HourlyRate,
		ProfessionalDescription:      s.ProfessionalDescription,
		SkillsDescription:            s.SkillsDescription,
		Skills:                       skills,
		Domains:                      domains,
		Localization:                 s.Localization,
		ShortProfessionalDescription: s.ShortProfessionalDescription,
		ShortSkillsDescription:       s.ShortSkillsDescription,
		CreatedAt:                    s.CreatedAt,
		UpdatedAt:                    s.UpdatedAt,
	}
}
