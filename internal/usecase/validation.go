package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xavierca1/leadscout/internal/entity"
)

const (
	MsgProfileRequired  = "please fill in both your business field and your target customer"
	MsgNoLeadsToAnalyze = "no live leads to analyze yet; wait for data or use the custom search"
	MsgNoMatchingLeads  = "no matching leads found"
	MsgAnalyzing        = "the AI is analyzing, this may take a while..."
	MsgSearching        = "sending search request..."
	MsgSearchReceived   = "search results received"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func IsValidationError(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

// StatusMessage turns an error into the text shown on the status line.
// Validation errors show their fixed message; everything else is prefixed.
func StatusMessage(prefix string, err error) string {
	var vErr ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	return prefix + ": " + err.Error()
}

func ValidateProfile(p entity.Profile) error {
	if strings.TrimSpace(p.MyBusiness) == "" {
		return ValidationError{"my_business", MsgProfileRequired}
	}
	if strings.TrimSpace(p.TargetCustomer) == "" {
		return ValidationError{"target_customer", MsgProfileRequired}
	}
	return nil
}

func ValidateSearchCriteria(c entity.SearchCriteria) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(c.Industry) == "" {
		errs = append(errs, ValidationError{"industry", "is required"})
	}
	if strings.TrimSpace(c.Country) == "" {
		errs = append(errs, ValidationError{"country", "is required"})
	}
	if strings.TrimSpace(c.ProblemKeyword) == "" {
		errs = append(errs, ValidationError{"problem_keyword", "is required"})
	}

	return errs
}

func ValidateCredentials(email, password string) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(email) == "" {
		errs = append(errs, ValidationError{"email", "is required"})
	} else if !strings.Contains(email, "@") {
		errs = append(errs, ValidationError{"email", "is invalid"})
	}
	if password == "" {
		errs = append(errs, ValidationError{"password", "is required"})
	}

	return errs
}
