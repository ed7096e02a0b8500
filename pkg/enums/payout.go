package enums

import "fmt"

// PayoutStatus tracks a seller payout through its lifecycle.
type PayoutStatus string

const (
	PayoutStatusQueued   PayoutStatus = "queued"
	PayoutStatusPaid     PayoutStatus = "paid"
	PayoutStatusReversed PayoutStatus = "reversed"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutStatusQueued,
	PayoutStatusPaid,
	PayoutStatusReversed,
}

// String implements fmt.Stringer.
func (s PayoutStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PayoutStatus.
func (s PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePayoutStatus converts raw input into a PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	for _, candidate := range validPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}
