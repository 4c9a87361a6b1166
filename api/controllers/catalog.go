package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/servmarket/servmarket-backend/api/middleware"
	"github.com/servmarket/servmarket-backend/api/responses"
	"github.com/servmarket/servmarket-backend/api/validators"
	"github.com/servmarket/servmarket-backend/internal/automatedservices"
	"github.com/servmarket/servmarket-backend/internal/organizations"
	"github.com/servmarket/servmarket-backend/internal/services"
	"github.com/servmarket/servmarket-backend/internal/users"
	"github.com/servmarket/servmarket-backend/pkg/enums"
	pkgerrors "github.com/servmarket/servmarket-backend/pkg/errors"
	"github.com/servmarket/servmarket-backend/pkg/logger"
)

// ownerFor returns the account a new resource is attributed to. Only
// administrators may act on behalf of another account.
func ownerFor(principal *users.UserDTO, requested uint64) uint64 {
	if requested != 0 && principal.Role == enums.RoleAdministrator {
		return requested
	}
	return principal.ID
}

func requirePrincipal(w http.ResponseWriter, r *http.Request, logg *logger.Logger) *users.UserDTO {
	principal := middleware.PrincipalFromContext(r.Context())
	if principal == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
	}
	return principal
}

func CreateOrganization(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := requirePrincipal(w, r, logg)
		if principal == nil {
			return
		}

		var body organizations.CreateOrganizationInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.AuthorID = ownerFor(principal, body.AuthorID)

		org, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, org)
	}
}

func GetOrganization(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		org, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, org)
	}
}

func ListOrganizations(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func CreateService(svc services.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := requirePrincipal(w, r, logg)
		if principal == nil {
			return
		}

		var body services.CreateServiceInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.UserID = ownerFor(principal, body.UserID)

		listing, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

func UpdateService(svc services.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := requirePrincipal(w, r, logg)
		if principal == nil {
			return
		}
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body services.UpdateServiceInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Update(r.Context(), services.Editor{ID: principal.ID, Role: principal.Role}, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

func GetService(svc services.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

func ListServices(svc services.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ListServicesByType reads the type from the {type} route parameter.
func ListServicesByType(svc services.Service, logg *logger.Logger) http.HandlerFunc {
	return listServicesOfType(svc, "", logg)
}

// ListAIAgentServices is the catalogue exposed to API-key integrations.
func ListAIAgentServices(svc services.Service, logg *logger.Logger) http.HandlerFunc {
	return listServicesOfType(svc, enums.ServiceTypeAIAgent, logg)
}

func listServicesOfType(svc services.Service, fixed enums.ServiceType, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceType := fixed
		if serviceType == "" {
			parsed, err := enums.ParseServiceType(urlParam(r, "type"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid service type"))
				return
			}
			serviceType = parsed
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListByType(r.Context(), serviceType, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ListServicesByUser lists one account's listings. The "me" alias resolves
// to the caller.
func ListServicesByUser(svc services.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var userID uint64
		if strings.EqualFold(urlParam(r, "userID"), "me") {
			principal := requirePrincipal(w, r, logg)
			if principal == nil {
				return
			}
			userID = principal.ID
		} else {
			id, err := validators.ParseIDParam(r, "userID")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			userID = id
		}
		writeServicesOf(w, r, svc, logg, userID)
	}
}

// ListOwnServices lists the caller's own listings.
func ListOwnServices(svc services.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := requirePrincipal(w, r, logg)
		if principal == nil {
			return
		}
		writeServicesOf(w, r, svc, logg, principal.ID)
	}
}

func writeServicesOf(w http.ResponseWriter, r *http.Request, svc services.Service, logg *logger.Logger, userID uint64) {
	params, err := validators.ParsePagination(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	page, err := svc.ListByUser(r.Context(), userID, params)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, page)
}

func CreateAutomatedService(svc automatedservices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body automatedservices.CreateInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func GetAutomatedService(svc automatedservices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		found, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, found)
	}
}

// ListAutomatedServices accepts an optional category query filter.
func ListAutomatedServices(svc automatedservices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), r.URL.Query().Get("category"), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func urlParam(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}
