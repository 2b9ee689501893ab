// Package validator provides rule-based input validation.
//
// A Rule pairs a deferred check with the ValidationError reported when the
// check fails. Apply evaluates every rule, so callers get all problems at
// once, and returns ValidationErrors:
//
//	err := validator.Apply(
//		validator.RequiredString("business_name", in.BusinessName),
//		validator.ValidEmail("contact_email", in.ContactEmail),
//		validator.When(in.Website != "", validator.ValidURL("website", in.Website)),
//	)
//
// Each error carries a translation key and values for localized messages.
package validator
