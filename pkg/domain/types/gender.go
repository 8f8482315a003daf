package types

import "github.com/m-mizutani/goerr/v2"

// Gender represents patient administrative gender
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

// AllGenders returns all valid gender values
func AllGenders() []Gender {
	return []Gender{
		GenderMale,
		GenderFemale,
		GenderOther,
		GenderUnknown,
	}
}

// IsValid checks if the gender is valid
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the gender
func (g Gender) String() string {
	return string(g)
}

// ParseGender parses a string into a Gender. Unrecognized values map to
// GenderUnknown rather than failing, matching source document behavior
// where gender is frequently absent.
func ParseGender(s string) Gender {
	g := Gender(s)
	if !g.IsValid() {
		return GenderUnknown
	}
	return g
}

// Validate returns an error if the gender is not a known value
func (g Gender) Validate() error {
	if !g.IsValid() {
		return goerr.New("invalid gender", goerr.V("value", string(g)))
	}
	return nil
}
