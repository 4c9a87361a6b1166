package enums

// AccountStatus is derived from a principal's soft-delete marker.
type AccountStatus string

const (
	AccountStatusActive      AccountStatus = "active"
	AccountStatusDeactivated AccountStatus = "deactivated"
)

// String implements fmt.Stringer.
func (s AccountStatus) String() string {
	return string(s)
}
