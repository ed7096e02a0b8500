package enums

import (
	"fmt"
	"strings"
)

// LeadCategory is the tree-service job type a lead belongs to.
type LeadCategory string

const (
	CategoryRemoval   LeadCategory = "removal"
	CategoryTrimming  LeadCategory = "trimming"
	CategoryStump     LeadCategory = "stump"
	CategoryCrane     LeadCategory = "crane"
	CategoryEmergency LeadCategory = "emergency"
)

var validLeadCategories = []LeadCategory{
	CategoryRemoval,
	CategoryTrimming,
	CategoryStump,
	CategoryCrane,
	CategoryEmergency,
}

// String implements fmt.Stringer.
func (c LeadCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known LeadCategory.
func (c LeadCategory) IsValid() bool {
	for _, candidate := range validLeadCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseLeadCategory converts raw form input into a LeadCategory.
// Legacy forms submit title-cased values (Removal, Trimming, ...), so
// matching is case-insensitive.
func ParseLeadCategory(value string) (LeadCategory, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validLeadCategories {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lead category %q", value)
}

// LeadStatus tracks the lifecycle of a posted lead.
type LeadStatus string

const (
	LeadStatusNew      LeadStatus = "new"
	LeadStatusSold     LeadStatus = "sold"
	LeadStatusExpired  LeadStatus = "expired"
	LeadStatusRefunded LeadStatus = "refunded"
)

var validLeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusSold,
	LeadStatusExpired,
	LeadStatusRefunded,
}

// String implements fmt.Stringer.
func (s LeadStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known LeadStatus.
func (s LeadStatus) IsValid() bool {
	for _, candidate := range validLeadStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLeadStatus converts raw input into a LeadStatus.
func ParseLeadStatus(value string) (LeadStatus, error) {
	for _, candidate := range validLeadStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lead status %q", value)
}
