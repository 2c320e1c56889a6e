package offers

import "testing"

func fullTierSet() []DetailInput {
	return []DetailInput{
		{Title: "Basic package", Revisions: 1, Price: 10, DeliveryTimeInDays: 3, OfferType: TierBasic},
		{Title: "Standard package", Revisions: 3, Price: 20, DeliveryTimeInDays: 5, OfferType: TierStandard},
		{Title: "Premium package", Revisions: UnlimitedRevisions, Price: 30, DeliveryTimeInDays: 7, OfferType: TierPremium},
	}
}

func TestValidateDetailsFullSet(t *testing.T) {
	if problems := validateDetails(fullTierSet(), true); problems != nil {
		t.Fatalf("expected valid full set, got %v", problems)
	}
}

func TestValidateDetailsWrongCount(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		if problems := validateDetails(fullTierSet()[:n], true); problems["details"] == "" {
			t.Errorf("expected set-size problem for %d details", n)
		}
	}
	four := append(fullTierSet(), DetailInput{Title: "Extra", Price: 5, DeliveryTimeInDays: 1, OfferType: TierBasic})
	if problems := validateDetails(four, true); problems["details"] == "" {
		t.Error("expected set-size problem for 4 details")
	}
}

func TestValidateDetailsDuplicateTier(t *testing.T) {
	set := fullTierSet()
	set[2].OfferType = TierBasic
	problems := validateDetails(set, true)
	if problems == nil || problems["details"] == "" {
		t.Fatalf("expected duplicate-tier problem, got %v", problems)
	}
}

func TestValidateDetailsFieldRules(t *testing.T) {
	set := fullTierSet()
	set[0].Price = 0
	set[1].DeliveryTimeInDays = 0
	set[2].Revisions = -2
	problems := validateDetails(set, true)
	if problems == nil {
		t.Fatal("expected field problems")
	}
	for _, key := range []string{"details[0].price", "details[1].delivery_time_in_days", "details[2].revisions"} {
		if problems[key] == "" {
			t.Errorf("expected problem for %s, got %v", key, problems)
		}
	}
}

func TestValidateDetailsUnlimitedRevisionsAllowed(t *testing.T) {
	set := fullTierSet()
	set[0].Revisions = UnlimitedRevisions
	if problems := validateDetails(set, true); problems != nil {
		t.Fatalf("revisions=-1 must be accepted, got %v", problems)
	}
}

func TestValidateDetailsPartialSet(t *testing.T) {
	one := []DetailInput{{Title: "Standard package", Price: 25, DeliveryTimeInDays: 4, OfferType: TierStandard}}
	if problems := validateDetails(one, false); problems != nil {
		t.Fatalf("a single valid detail should pass outside create, got %v", problems)
	}
	if problems := validateDetails(nil, false); problems == nil {
		t.Fatal("an empty replacement set must be rejected")
	}
	bad := []DetailInput{{Title: "x", Price: 5, DeliveryTimeInDays: 2, OfferType: "gold"}}
	if problems := validateDetails(bad, false); problems["details[0].offer_type"] == "" {
		t.Fatalf("expected tier problem, got %v", problems)
	}
}
