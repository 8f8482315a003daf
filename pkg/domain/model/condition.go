package model

import (
	"strings"
	"time"

	"github.com/clinrec-lab/longview/pkg/domain/types"
)

// Condition is a medical condition or diagnosis extracted from a source
// document
type Condition struct {
	Name               string                `json:"name"`
	ICD10Code          string                `json:"icd10_code,omitempty"`
	SNOMEDCode         string                `json:"snomed_code,omitempty"`
	Status             types.ConditionStatus `json:"status"`
	OnsetDate          types.Date            `json:"onset_date,omitempty"`
	ResolutionDate     types.Date            `json:"resolution_date,omitempty"`
	ClinicalStatus     string                `json:"clinical_status,omitempty"`
	VerificationStatus string                `json:"verification_status,omitempty"`
	Severity           string                `json:"severity,omitempty"`
	Notes              string                `json:"notes,omitempty"`
	SourceDocument     string                `json:"source_document,omitempty"`
}

// ConditionKey identifies a real-world condition for deduplication
type ConditionKey struct {
	Code  string
	Onset types.Date
}

// sentinelOnset stands in for an unknown onset date in condition keys so
// that two code-matched conditions without onset dates collide.
func sentinelOnset() types.Date {
	return types.NewDate(1900, time.January, 1)
}

// Key returns the deduplication key: the ICD-10 code, else the SNOMED
// code, else the lowercased name, paired with the onset date (or a
// sentinel when unknown).
func (c Condition) Key() ConditionKey {
	code := c.ICD10Code
	if code == "" {
		code = c.SNOMEDCode
	}
	if code == "" {
		code = strings.ToLower(c.Name)
	}
	onset := c.OnsetDate
	if onset.IsZero() {
		onset = sentinelOnset()
	}
	return ConditionKey{Code: code, Onset: onset}
}

// ImplantedDevice is an implanted medical device
type ImplantedDevice struct {
	DeviceType   string     `json:"device_type"`
	DeviceName   string     `json:"device_name"`
	UDI          string     `json:"udi,omitempty"`
	ImplantDate  types.Date `json:"implant_date,omitempty"`
	Manufacturer string     `json:"manufacturer,omitempty"`
	LotNumber    string     `json:"lot_number,omitempty"`
	Status       string     `json:"status,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// NameKey returns the lowercased device name used as the fallback
// deduplication alias when no UDI is present
func (d ImplantedDevice) NameKey() string {
	return strings.ToLower(d.DeviceName)
}

// Allergy is a known patient allergy
type Allergy struct {
	Allergen  string     `json:"allergen"`
	Reaction  string     `json:"reaction,omitempty"`
	Severity  string     `json:"severity,omitempty"`
	OnsetDate types.Date `json:"onset_date,omitempty"`
	Status    string     `json:"status,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// Key returns the lowercased allergen used for deduplication
func (a Allergy) Key() string {
	return strings.ToLower(a.Allergen)
}
