package matching

import (
	"context"
	"fmt"

	"github.com/zachbush96/treelead-backend/pkg/db/models"
	"github.com/zachbush96/treelead-backend/pkg/geo"
)

// Matcher applies the buyer matching rules to one lead. The rules are pure
// except for centroid lookups, which go through the optional resolver.
type Matcher struct {
	resolver geo.Resolver
}

// NewMatcher builds a matcher. A nil resolver disables radius matching;
// exact and extra-ZIP matching still apply.
func NewMatcher(resolver geo.Resolver) *Matcher {
	return &Matcher{resolver: resolver}
}

// Result holds the buyers that matched plus non-fatal notes about rules that
// could not be evaluated.
type Result struct {
	Buyers   []models.Business
	Warnings []string
}

// Match returns the verified buyers eligible for the lead. A buyer matches
// when it covers the lead's category, its territory contains the lead's ZIP,
// and its price cap (if any) is at or above the asking price.
func (m *Matcher) Match(ctx context.Context, lead *models.Lead, candidates []models.Business) Result {
	var result Result
	var leadCentroid *geo.LatLng
	leadLookupFailed := false

	for i := range candidates {
		buyer := &candidates[i]
		if !buyer.IsBuyer || !buyer.Verified {
			continue
		}
		if !coversCategory(buyer, lead) {
			continue
		}
		if buyer.MaxPrice != nil && lead.AskingPrice.Cmp(*buyer.MaxPrice) > 0 {
			continue
		}

		if zipListed(buyer, lead.Zip) {
			result.Buyers = append(result.Buyers, *buyer)
			continue
		}

		if buyer.RadiusMiles <= 0 {
			continue
		}
		if m.resolver == nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("buyer %s: radius matching disabled, no centroid provider", buyer.ID))
			continue
		}

		if leadLookupFailed {
			continue
		}
		if leadCentroid == nil {
			point, err := m.resolver.Locate(ctx, lead.Zip)
			if err != nil {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("lead zip %s: centroid lookup failed: %v", lead.Zip, err))
				// radius matching is off for this lead; listed-zip matches
				// above are unaffected
				leadLookupFailed = true
				continue
			}
			leadCentroid = &point
		}

		buyerCentroid, err := m.resolver.Locate(ctx, buyer.PrimaryZip)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("buyer %s zip %s: centroid lookup failed: %v", buyer.ID, buyer.PrimaryZip, err))
			continue
		}

		if geo.DistanceMiles(*leadCentroid, buyerCentroid) <= float64(buyer.RadiusMiles) {
			result.Buyers = append(result.Buyers, *buyer)
		}
	}

	return result
}

func coversCategory(buyer *models.Business, lead *models.Lead) bool {
	for _, category := range buyer.Categories {
		if category == lead.Category {
			return true
		}
	}
	return false
}

func zipListed(buyer *models.Business, zip string) bool {
	if buyer.PrimaryZip == zip {
		return true
	}
	for _, extra := range buyer.ExtraZips {
		if extra == zip {
			return true
		}
	}
	return false
}
