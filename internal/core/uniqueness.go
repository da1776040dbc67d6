package core

import "github.com/oranolio956/qa-automation-framework-sub006/pkg/api"

// ValidateUniqueness counts total and distinct values of each identity field.
// It only reports; records are never dropped or modified. Email is optional:
// records without one are left out of the email totals.
func ValidateUniqueness(created []api.AccountRecord) api.UniquenessReport {
	usernames := make(map[string]struct{}, len(created))
	passwords := make(map[string]struct{}, len(created))
	emails := make(map[string]struct{}, len(created))
	withEmail := 0
	for _, r := range created {
		usernames[r.Username] = struct{}{}
		passwords[r.Password] = struct{}{}
		if r.Email != "" {
			emails[r.Email] = struct{}{}
			withEmail++
		}
	}
	return api.UniquenessReport{
		Username: fieldUniqueness(len(created), len(usernames)),
		Password: fieldUniqueness(len(created), len(passwords)),
		Email:    fieldUniqueness(withEmail, len(emails)),
	}
}

func fieldUniqueness(total, distinct int) api.FieldUniqueness {
	return api.FieldUniqueness{Total: total, Distinct: distinct, Clean: total == distinct}
}
