package reviews

// validateReview returns field-keyed problems for a new review payload.
func validateReview(businessUser string, rating int, description string) map[string]string {
	problems := map[string]string{}
	if businessUser == "" {
		problems["business_user"] = "business_user is required"
	}
	if rating < 1 || rating > 5 {
		problems["rating"] = "rating must be between 1 and 5"
	}
	if description == "" {
		problems["description"] = "description is required"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}
