package model

import (
	"time"

	"github.com/clinrec-lab/longview/pkg/domain/types"
)

// UnknownPatientID is the placeholder identity assigned when no source
// document has resolved the patient yet. Once a real identifier is merged
// it is never overwritten (first seen is authoritative).
const UnknownPatientID = "unknown"

// ContactInfo holds patient contact details
type ContactInfo struct {
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	AddressLine1 string `json:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zip_code,omitempty"`
	Country      string `json:"country,omitempty"`
}

// PatientDemographics holds patient identity and demographic information
type PatientDemographics struct {
	PatientID   string       `json:"patient_id"`
	Name        string       `json:"name"`
	DateOfBirth types.Date   `json:"date_of_birth"`
	Age         int          `json:"age,omitempty"`
	Gender      types.Gender `json:"gender"`
	Contact     ContactInfo  `json:"contact"`
	MRN         string       `json:"mrn,omitempty"`
	SSN         string       `json:"ssn,omitempty"`
}

// IsPlaceholder reports whether the demographics still carry the
// unresolved placeholder identity
func (d PatientDemographics) IsPlaceholder() bool {
	return d.PatientID == UnknownPatientID
}

// AgeAt returns the patient age in whole years at the given instant
func (d PatientDemographics) AgeAt(at time.Time) int {
	if d.DateOfBirth.IsZero() {
		return 0
	}
	dob := d.DateOfBirth
	age := at.Year() - dob.Year
	if at.Month() < dob.Month || (at.Month() == dob.Month && at.Day() < dob.Day) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// PlaceholderDemographics returns the demographics used before any source
// document has identified the patient
func PlaceholderDemographics() PatientDemographics {
	return PatientDemographics{
		PatientID:   UnknownPatientID,
		Name:        "Unknown Patient",
		DateOfBirth: types.NewDate(1900, time.January, 1),
		Gender:      types.GenderUnknown,
	}
}
