package types

import "github.com/m-mizutani/goerr/v2"

// ActionCategory represents the category of an action item
type ActionCategory string

const (
	CategoryFollowUp           ActionCategory = "follow_up"
	CategoryTesting            ActionCategory = "testing"
	CategoryMedicationReview   ActionCategory = "medication_review"
	CategorySpecialistReferral ActionCategory = "specialist_referral"
	CategoryImaging            ActionCategory = "imaging"
	CategoryTherapy            ActionCategory = "therapy"
	CategoryLifestyle          ActionCategory = "lifestyle"
	CategoryOther              ActionCategory = "other"
)

// AllActionCategories returns all valid action categories
func AllActionCategories() []ActionCategory {
	return []ActionCategory{
		CategoryFollowUp,
		CategoryTesting,
		CategoryMedicationReview,
		CategorySpecialistReferral,
		CategoryImaging,
		CategoryTherapy,
		CategoryLifestyle,
		CategoryOther,
	}
}

// IsValid checks if the action category is valid
func (c ActionCategory) IsValid() bool {
	switch c {
	case CategoryFollowUp,
		CategoryTesting,
		CategoryMedicationReview,
		CategorySpecialistReferral,
		CategoryImaging,
		CategoryTherapy,
		CategoryLifestyle,
		CategoryOther:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action category
func (c ActionCategory) String() string {
	return string(c)
}

// ParseActionCategory parses a string into an ActionCategory
func ParseActionCategory(s string) (ActionCategory, error) {
	c := ActionCategory(s)
	if !c.IsValid() {
		return "", goerr.New("invalid action category", goerr.V("value", s))
	}
	return c, nil
}
