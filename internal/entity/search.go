package entity

// SearchCriteria only lives for the duration of one webhook call.
type SearchCriteria struct {
	Industry       string `json:"industry"`
	Country        string `json:"country"`
	ProblemKeyword string `json:"problem_keyword"`
	UserID         string `json:"user_id"`
}

// Profile is the operator's own description used to classify leads.
type Profile struct {
	MyBusiness     string `json:"my_business"`
	TargetCustomer string `json:"target_customer"`
}
