package featureflag

// Feature keys
const (
	Customers  = "customers"
	Trainers   = "trainers"
	Attendance = "attendance"
	Scheduling = "scheduling"
	Reports    = "reports"
)

// Catalog returns the known features in display order.
//
// New branch admins receive an enabled grant for every entry.
func Catalog() []Feature {
	return []Feature{
		{Key: Customers, Name: "Customers", Description: "Customer records and memberships"},
		{Key: Trainers, Name: "Trainers", Description: "Trainer profiles and photos"},
		{Key: Attendance, Name: "Attendance", Description: "Check-in, check-out and attendance settings"},
		{Key: Scheduling, Name: "Scheduling", Description: "Trainer sessions, assignments and calendar"},
		{Key: Reports, Name: "Reports", Description: "Attendance reports and exports"},
	}
}

// IsKnown reports whether key is in the catalog.
func IsKnown(key string) bool {
	for _, f := range Catalog() {
		if f.Key == key {
			return true
		}
	}
	return false
}

// DefaultGrants returns the grants a newly provisioned admin starts with.
func DefaultGrants(accountID string) []Grant {
	cat := Catalog()
	grants := make([]Grant, 0, len(cat))
	for _, f := range cat {
		grants = append(grants, Grant{AccountID: accountID, FeatureKey: f.Key, Enabled: true})
	}
	return grants
}
