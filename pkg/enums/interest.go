package enums

import "fmt"

// InterestStatus tracks whether a buyer was alerted or went on to purchase.
type InterestStatus string

const (
	InterestStatusAlerted   InterestStatus = "alerted"
	InterestStatusPurchased InterestStatus = "purchased"
)

var validInterestStatuses = []InterestStatus{
	InterestStatusAlerted,
	InterestStatusPurchased,
}

// String implements fmt.Stringer.
func (s InterestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InterestStatus.
func (s InterestStatus) IsValid() bool {
	for _, candidate := range validInterestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInterestStatus converts raw input into an InterestStatus.
func ParseInterestStatus(value string) (InterestStatus, error) {
	for _, candidate := range validInterestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid interest status %q", value)
}

// InterestChannel is the delivery channel an alert went out on.
type InterestChannel string

const (
	ChannelEmail InterestChannel = "email"
	ChannelSMS   InterestChannel = "sms"
)

// String implements fmt.Stringer.
func (c InterestChannel) String() string {
	return string(c)
}

// IsValid reports whether the value is a known InterestChannel.
func (c InterestChannel) IsValid() bool {
	return c == ChannelEmail || c == ChannelSMS
}
