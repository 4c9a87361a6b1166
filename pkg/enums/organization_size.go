package enums

import (
	"fmt"
	"strings"
)

// OrganizationSize is the economic size category of an organization.
type OrganizationSize string

const (
	OrganizationSizeFreelancer OrganizationSize = "FREELANCER"
	OrganizationSizeTPE        OrganizationSize = "TPE"
	OrganizationSizePME        OrganizationSize = "PME"
	OrganizationSizeETI        OrganizationSize = "ETI"
	OrganizationSizeGE         OrganizationSize = "GE"
)

var validOrganizationSizes = []OrganizationSize{
	OrganizationSizeFreelancer,
	OrganizationSizeTPE,
	OrganizationSizePME,
	OrganizationSizeETI,
	OrganizationSizeGE,
}

// String implements fmt.Stringer.
func (o OrganizationSize) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrganizationSize.
func (o OrganizationSize) IsValid() bool {
	for _, candidate := range validOrganizationSizes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrganizationSize converts raw input into an OrganizationSize. Matching ignores case.
func ParseOrganizationSize(value string) (OrganizationSize, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validOrganizationSizes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid organization size %q", value)
}
