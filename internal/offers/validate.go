package offers

import "fmt"

const (
	TierBasic    = "basic"
	TierStandard = "standard"
	TierPremium  = "premium"
)

// UnlimitedRevisions is the sentinel for a detail with no revision cap.
const UnlimitedRevisions = -1

func ValidTier(tier string) bool {
	return tier == TierBasic || tier == TierStandard || tier == TierPremium
}

// validateDetails checks every entry and tier uniqueness. With fullSet the
// payload must contain exactly three details, one per tier, as required when
// it defines an offer's whole detail set. Returns a field-keyed problem map,
// nil when clean.
func validateDetails(details []DetailInput, fullSet bool) map[string]string {
	problems := map[string]string{}

	if fullSet && len(details) != 3 {
		problems["details"] = "exactly three details are required, one per basic, standard and premium"
		return problems
	}
	if !fullSet && len(details) == 0 {
		problems["details"] = "at least one detail is required"
		return problems
	}

	seen := map[string]bool{}
	for i, d := range details {
		key := func(field string) string { return fmt.Sprintf("details[%d].%s", i, field) }

		if d.Title == "" {
			problems[key("title")] = "title is required"
		}
		if d.Price <= 0 {
			problems[key("price")] = "price must be greater than 0"
		}
		if d.DeliveryTimeInDays < 1 {
			problems[key("delivery_time_in_days")] = "delivery time must be at least 1 day"
		}
		if d.Revisions < UnlimitedRevisions {
			problems[key("revisions")] = "revisions must be -1 (unlimited) or greater"
		}
		if !ValidTier(d.OfferType) {
			problems[key("offer_type")] = "offer_type must be basic, standard or premium"
		} else if seen[d.OfferType] {
			problems["details"] = "each offer_type may appear only once"
		} else {
			seen[d.OfferType] = true
		}
	}

	if fullSet && len(problems) == 0 && len(seen) != 3 {
		problems["details"] = "exactly three details are required, one per basic, standard and premium"
	}

	if len(problems) == 0 {
		return nil
	}
	return problems
}
