package model

// Selection is the typed form of one generation request.
// It is built once by the request decoder and never modified afterwards.
type Selection struct {
	APIs       []APIVersion      // submission order, "none" entries excluded
	Profiles   map[string]string // api -> profile
	Extensions []string
	Options    []string // MERGE removed
	Merge      bool
	Generator  string
}

// Profile returns the requested profile for api, or "" when none was requested.
func (s *Selection) Profile(api string) string {
	if s.Profiles == nil {
		return ""
	}
	return s.Profiles[api]
}

// SpecificationGroup pairs a specification with the requested APIs it owns,
// in the order they were submitted.
type SpecificationGroup struct {
	Specification string
	APIs          []APIVersion
}
