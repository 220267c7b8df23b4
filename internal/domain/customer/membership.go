package customer

import (
	"errors"
	"time"
)

// Membership status constants
const (
	MembershipActive  = "active"
	MembershipExpired = "expired"
)

// subscriptionMonths maps a subscription type to its length in months.
var subscriptionMonths = map[string]int{
	SubscriptionMonthly:   1,
	SubscriptionSixMonths: 6,
	SubscriptionYearly:    12,
}

// ErrInvalidStartDate is returned when a membership start date cannot be parsed.
var ErrInvalidStartDate = errors.New("membership start date must be YYYY-MM-DD")

// Membership is the derived subscription period for a customer.
// It is recomputed whenever the customer is created or updated.
type Membership struct {
	ID         string
	CustomerID string
	Type       string
	StartDate  string // YYYY-MM-DD
	EndDate    string // YYYY-MM-DD
	Status     string
}

// DurationMonths returns the number of months a subscription type covers.
func DurationMonths(subscriptionType string) (int, bool) {
	m, ok := subscriptionMonths[subscriptionType]
	return m, ok
}

// NewMembership derives the membership period for a subscription type
// starting on startDate.
// PRE: startDate is YYYY-MM-DD, subscriptionType is valid
// POST: EndDate = startDate + subscription length; Status computed against today
func NewMembership(customerID, subscriptionType, startDate string, today time.Time) (Membership, error) {
	months, ok := subscriptionMonths[subscriptionType]
	if !ok {
		return Membership{}, ErrInvalidSubscription
	}
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return Membership{}, ErrInvalidStartDate
	}
	m := Membership{
		CustomerID: customerID,
		Type:       subscriptionType,
		StartDate:  startDate,
		EndDate:    start.AddDate(0, months, 0).Format(DateLayout),
	}
	m.Status = m.StatusOn(today)
	return m, nil
}

// StatusOn returns active while day <= EndDate, expired afterwards.
func (m Membership) StatusOn(day time.Time) string {
	if day.Format(DateLayout) <= m.EndDate {
		return MembershipActive
	}
	return MembershipExpired
}

// Renew recomputes the membership for an updated customer. The existing start
// date is kept unless the subscription type changed, in which case the new
// period starts today.
func (m Membership) Renew(subscriptionType string, today time.Time) (Membership, error) {
	start := m.StartDate
	if subscriptionType != m.Type || start == "" {
		start = today.Format(DateLayout)
	}
	next, err := NewMembership(m.CustomerID, subscriptionType, start, today)
	if err != nil {
		return Membership{}, err
	}
	next.ID = m.ID
	return next, nil
}

// Profile pairs a customer with its current membership for list and detail views.
type Profile struct {
	Customer   Customer
	Membership Membership
}
