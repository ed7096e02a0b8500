package enums

import (
	"fmt"
	"strings"
)

// DeliveryPref is the buyer's preferred alert channel set.
type DeliveryPref string

const (
	DeliveryEmailOnly   DeliveryPref = "email_only"
	DeliverySmsAndEmail DeliveryPref = "sms_and_email"
	DeliverySmsOnly     DeliveryPref = "sms_only"
)

var validDeliveryPrefs = []DeliveryPref{
	DeliveryEmailOnly,
	DeliverySmsAndEmail,
	DeliverySmsOnly,
}

// legacy form values as submitted by the original buyer form
var legacyDeliveryPrefs = map[string]DeliveryPref{
	"emailonly":   DeliveryEmailOnly,
	"smsandemail": DeliverySmsAndEmail,
	"smsonly":     DeliverySmsOnly,
}

// String implements fmt.Stringer.
func (d DeliveryPref) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryPref.
func (d DeliveryPref) IsValid() bool {
	for _, candidate := range validDeliveryPrefs {
		if candidate == d {
			return true
		}
	}
	return false
}

// Channels expands the preference into the concrete channels to dispatch on.
func (d DeliveryPref) Channels() []InterestChannel {
	switch d {
	case DeliveryEmailOnly:
		return []InterestChannel{ChannelEmail}
	case DeliverySmsOnly:
		return []InterestChannel{ChannelSMS}
	case DeliverySmsAndEmail:
		return []InterestChannel{ChannelSMS, ChannelEmail}
	default:
		return nil
	}
}

// ParseDeliveryPref converts raw input into a DeliveryPref, accepting both the
// canonical snake_case values and the legacy form spellings (EmailOnly, ...).
func ParseDeliveryPref(value string) (DeliveryPref, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validDeliveryPrefs {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	if pref, ok := legacyDeliveryPrefs[normalized]; ok {
		return pref, nil
	}
	return "", fmt.Errorf("invalid delivery preference %q", value)
}
