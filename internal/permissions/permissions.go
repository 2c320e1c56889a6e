// Package permissions holds the allow/deny rules for every mutating operation.
// Each rule is a plain predicate over the requester and facts the handler has
// already loaded; staff users pass every check except the profile rule.
// Handlers must resolve existence (404) before consulting these predicates.
package permissions

const (
	ProfileCustomer = "customer"
	ProfileBusiness = "business"
)

// Requester identifies the authenticated caller of a request.
type Requester struct {
	UserID string
	Staff  bool
}

// CanCreateOffer allows staff and business-profile users.
func CanCreateOffer(r Requester, profileType string) bool {
	return r.Staff || profileType == ProfileBusiness
}

// CanMutateOffer allows staff and the offer's owner to patch or delete it.
// The same rule covers the offer's nested details.
func CanMutateOffer(r Requester, ownerID string) bool {
	return r.Staff || r.UserID == ownerID
}

// CanCreateOrder allows staff and customer-profile users.
func CanCreateOrder(r Requester, profileType string) bool {
	return r.Staff || profileType == ProfileCustomer
}

// CanViewOrder allows staff and both parties of the order.
func CanViewOrder(r Requester, customerID, businessID string) bool {
	return r.Staff || r.UserID == customerID || r.UserID == businessID
}

// CanUpdateOrderStatus allows staff and the business party only.
func CanUpdateOrderStatus(r Requester, businessID string) bool {
	return r.Staff || r.UserID == businessID
}

// CanDeleteOrder is staff-only regardless of involvement in the order.
func CanDeleteOrder(r Requester) bool {
	return r.Staff
}

// CanCreateReview allows staff and customer-profile users.
func CanCreateReview(r Requester, profileType string) bool {
	return r.Staff || profileType == ProfileCustomer
}

// CanMutateReview allows staff and the original reviewer.
func CanMutateReview(r Requester, reviewerID string) bool {
	return r.Staff || r.UserID == reviewerID
}

// CanUpdateProfile allows the owner only. Staff get no override here:
// editing another user's account data is never sanctioned.
func CanUpdateProfile(r Requester, ownerID string) bool {
	return r.UserID == ownerID
}
