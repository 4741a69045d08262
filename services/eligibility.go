// services/eligibility.go
package services

import "go.mongodb.org/mongo-driver/bson/primitive"

// Country eligibility rules. All functions are pure; the caller supplies
// the resolved worldwide country id (code "WW").

// ProgramAccessibleToUser reports whether a program is claimable from the
// user's country. A user with no country on file is never restricted, and
// a program with no countries is implicitly worldwide.
func ProgramAccessibleToUser(worldwideID primitive.ObjectID, userCountryID *primitive.ObjectID, programCountries []primitive.ObjectID) bool {
	if userCountryID == nil {
		return true
	}
	if len(programCountries) == 0 {
		return true
	}
	for _, id := range programCountries {
		if id == worldwideID || id == *userCountryID {
			return true
		}
	}
	return false
}

// DefaultProgramIsWorldwide reports whether a program's country set
// represents "worldwide": empty, or explicitly containing the worldwide id.
func DefaultProgramIsWorldwide(worldwideID primitive.ObjectID, programCountries []primitive.ObjectID) bool {
	if len(programCountries) == 0 {
		return true
	}
	for _, id := range programCountries {
		if id == worldwideID {
			return true
		}
	}
	return false
}

// ResolveAvailableCountriesForProgramSearch resolves the country filter for
// a program search. Authenticated non-admins with a known country always
// see exactly their own country plus worldwide, whatever they requested.
// Otherwise an empty request defaults to worldwide-only for everyone but
// admins, who get an unrestricted (nil) filter; an explicit request is
// returned verbatim.
func ResolveAvailableCountriesForProgramSearch(worldwideID primitive.ObjectID, isAuthenticated, isAdmin bool, userCountryID *primitive.ObjectID, requested []primitive.ObjectID) []primitive.ObjectID {
	requested = dedupeObjectIDs(requested)

	if isAuthenticated && !isAdmin && userCountryID != nil {
		return dedupeObjectIDs([]primitive.ObjectID{*userCountryID, worldwideID})
	}

	if len(requested) == 0 {
		if isAdmin {
			return nil
		}
		return []primitive.ObjectID{worldwideID}
	}

	return requested
}

func dedupeObjectIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	result := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
