package ingest

import (
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clinrec-lab/longview/pkg/domain/model"
	"github.com/clinrec-lab/longview/pkg/domain/types"
	"github.com/clinrec-lab/longview/pkg/service/timeline"
	"github.com/clinrec-lab/longview/pkg/utils/logging"
)

// LOINC codes identifying C-CDA structured body sections
const (
	sectionProblems   = "11450-4"
	sectionMeds       = "10160-0"
	sectionAllergies  = "48765-2"
	sectionProcedures = "47519-4"
	sectionResults    = "30954-2"
	sectionVitals     = "8716-3"
	sectionEncounters = "46240-8"
)

// ccdaDocument mirrors the parts of an HL7 ClinicalDocument needed for
// extraction. All elements live in the urn:hl7-org:v3 namespace.
type ccdaDocument struct {
	XMLName      xml.Name `xml:"urn:hl7-org:v3 ClinicalDocument"`
	Title        string   `xml:"title"`
	RecordTarget struct {
		PatientRole struct {
			IDs     []ccdaID `xml:"id"`
			Addr    ccdaAddr `xml:"addr"`
			Telecom []struct {
				Use   string `xml:"use,attr"`
				Value string `xml:"value,attr"`
			} `xml:"telecom"`
			Patient struct {
				Name      ccdaName `xml:"name"`
				BirthTime ccdaTime `xml:"birthTime"`
				Gender    struct {
					Code string `xml:"code,attr"`
				} `xml:"administrativeGenderCode"`
			} `xml:"patient"`
		} `xml:"patientRole"`
	} `xml:"recordTarget"`
	Component struct {
		StructuredBody struct {
			Components []struct {
				Section ccdaSection `xml:"section"`
			} `xml:"component"`
		} `xml:"structuredBody"`
	} `xml:"component"`
}

type ccdaID struct {
	Root      string `xml:"root,attr"`
	Extension string `xml:"extension,attr"`
}

type ccdaName struct {
	Given  []string `xml:"given"`
	Family string   `xml:"family"`
}

type ccdaAddr struct {
	StreetAddressLines []string `xml:"streetAddressLine"`
	City               string   `xml:"city"`
	State              string   `xml:"state"`
	PostalCode         string   `xml:"postalCode"`
}

type ccdaTime struct {
	Value string `xml:"value,attr"`
}

type ccdaCode struct {
	Code        string `xml:"code,attr"`
	CodeSystem  string `xml:"codeSystem,attr"`
	DisplayName string `xml:"displayName,attr"`
}

type ccdaValue struct {
	Code        string `xml:"code,attr"`
	CodeSystem  string `xml:"codeSystem,attr"`
	DisplayName string `xml:"displayName,attr"`
	Value       string `xml:"value,attr"`
	Unit        string `xml:"unit,attr"`
}

type ccdaEffectiveTime struct {
	Value string   `xml:"value,attr"`
	Low   ccdaTime `xml:"low"`
	High  ccdaTime `xml:"high"`
}

type ccdaSection struct {
	Code    ccdaCode    `xml:"code"`
	Entries []ccdaEntry `xml:"entry"`
}

type ccdaEntry struct {
	Observation *ccdaObservation `xml:"observation"`
	Act         *struct {
		EntryRelationships []struct {
			Observation *ccdaObservation `xml:"observation"`
		} `xml:"entryRelationship"`
	} `xml:"act"`
	SubstanceAdministration *ccdaSubstanceAdmin `xml:"substanceAdministration"`
	Procedure               *ccdaProcedure      `xml:"procedure"`
	Encounter               *ccdaEncounter      `xml:"encounter"`
	Organizer               *struct {
		Components []struct {
			Observation *ccdaObservation `xml:"observation"`
		} `xml:"component"`
	} `xml:"organizer"`
}

type ccdaObservation struct {
	Code          ccdaCode          `xml:"code"`
	StatusCode    ccdaCode          `xml:"statusCode"`
	Value         ccdaValue         `xml:"value"`
	EffectiveTime ccdaEffectiveTime `xml:"effectiveTime"`
	Participant   struct {
		ParticipantRole struct {
			PlayingEntity struct {
				Code ccdaCode `xml:"code"`
			} `xml:"playingEntity"`
		} `xml:"participantRole"`
	} `xml:"participant"`
	EntryRelationships []struct {
		Observation *ccdaObservation `xml:"observation"`
	} `xml:"entryRelationship"`
}

type ccdaSubstanceAdmin struct {
	EffectiveTimes []ccdaEffectiveTime `xml:"effectiveTime"`
	Consumable     struct {
		ManufacturedProduct struct {
			ManufacturedMaterial struct {
				Code ccdaCode `xml:"code"`
			} `xml:"manufacturedMaterial"`
		} `xml:"manufacturedProduct"`
	} `xml:"consumable"`
	DoseQuantity struct {
		Value string `xml:"value,attr"`
		Unit  string `xml:"unit,attr"`
	} `xml:"doseQuantity"`
}

type ccdaProcedure struct {
	Code          ccdaCode          `xml:"code"`
	EffectiveTime ccdaEffectiveTime `xml:"effectiveTime"`
}

type ccdaEncounter struct {
	Code          ccdaCode          `xml:"code"`
	EffectiveTime ccdaEffectiveTime `xml:"effectiveTime"`
}

// CCDA ingests HL7 C-CDA ClinicalDocument XML files
type CCDA struct{}

// NewCCDA creates a C-CDA ingestor
func NewCCDA() *CCDA {
	return &CCDA{}
}

// Format returns the C-CDA format identifier
func (x *CCDA) Format() model.DocumentFormat {
	return model.DocumentFormatCCDA
}

// CanIngest reports whether path is an XML file with a ClinicalDocument
// root element
func (x *CCDA) CanIngest(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), ".xml") {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc ccdaDocument
	return xml.Unmarshal(data, &doc) == nil
}

// Ingest parses the document and extracts demographics, problems,
// allergies, and timeline events from its structured body sections
func (x *CCDA) Ingest(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read C-CDA document", goerr.V("path", path))
	}

	var doc ccdaDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse C-CDA document", goerr.V("path", path))
	}

	result := &Result{
		Document: newDocumentMetadata(path, model.DocumentFormatCCDA, int64(len(data))),
		Patient:  x.extractPatient(doc),
	}
	source := result.Document.FileName

	logger := logging.From(ctx)

	for _, component := range doc.Component.StructuredBody.Components {
		section := component.Section
		switch section.Code.Code {
		case sectionProblems:
			x.extractProblems(result, section, source)
		case sectionAllergies:
			x.extractAllergies(result, section)
		case sectionMeds:
			x.extractMedications(result, section, source)
		case sectionProcedures:
			x.extractProcedures(result, section, source)
		case sectionResults, sectionVitals:
			x.extractResults(result, section, source)
		case sectionEncounters:
			x.extractEncounters(result, section, source)
		default:
			logger.Debug("Skipping unmapped C-CDA section",
				"path", path, "code", section.Code.Code, "title", section.Code.DisplayName)
		}
	}

	return result, nil
}

func (x *CCDA) extractPatient(doc ccdaDocument) *model.PatientDemographics {
	role := doc.RecordTarget.PatientRole

	demographics := model.PatientDemographics{
		PatientID: model.UnknownPatientID,
		Name:      "Unknown",
	}
	if len(role.IDs) > 0 && role.IDs[0].Extension != "" {
		demographics.PatientID = role.IDs[0].Extension
	}

	name := role.Patient.Name
	full := strings.TrimSpace(strings.Join(name.Given, " ") + " " + name.Family)
	if full != "" {
		demographics.Name = full
	}

	if dob, ok := parseHL7Date(role.Patient.BirthTime.Value); ok {
		demographics.DateOfBirth = dob
	}

	// HL7 administrative gender codes are single letters
	switch role.Patient.Gender.Code {
	case "M":
		demographics.Gender = types.GenderMale
	case "F":
		demographics.Gender = types.GenderFemale
	case "UN":
		demographics.Gender = types.GenderOther
	default:
		demographics.Gender = types.GenderUnknown
	}

	if len(role.Addr.StreetAddressLines) > 0 {
		demographics.Contact.AddressLine1 = role.Addr.StreetAddressLines[0]
	}
	if len(role.Addr.StreetAddressLines) > 1 {
		demographics.Contact.AddressLine2 = role.Addr.StreetAddressLines[1]
	}
	demographics.Contact.City = role.Addr.City
	demographics.Contact.State = role.Addr.State
	demographics.Contact.ZipCode = role.Addr.PostalCode

	for _, telecom := range role.Telecom {
		value := telecom.Value
		switch {
		case strings.HasPrefix(value, "tel:"):
			demographics.Contact.Phone = strings.TrimPrefix(value, "tel:")
		case strings.HasPrefix(value, "mailto:"):
			demographics.Contact.Email = strings.TrimPrefix(value, "mailto:")
		}
	}

	return &demographics
}

func (x *CCDA) extractProblems(result *Result, section ccdaSection, source string) {
	for _, obs := range sectionObservations(section) {
		name := obs.Value.DisplayName
		if name == "" {
			name = "Unknown condition"
		}

		status := types.ConditionStatusActive
		if obs.StatusCode.Code == "completed" || obs.StatusCode.Code == "resolved" {
			status = types.ConditionStatusResolved
		}

		cond := model.Condition{
			Name:           name,
			Status:         status,
			SourceDocument: source,
		}
		if isSNOMEDSystem(obs.Value.CodeSystem) {
			cond.SNOMEDCode = obs.Value.Code
		}
		if onset, ok := parseHL7Date(obs.EffectiveTime.Low.Value); ok {
			cond.OnsetDate = onset
		}

		result.Conditions = append(result.Conditions, cond)
		if !cond.OnsetDate.IsZero() {
			result.TimelineEvents = append(result.TimelineEvents, timeline.EventFromDiagnosis(cond, source))
		}
	}
}

func (x *CCDA) extractAllergies(result *Result, section ccdaSection) {
	for _, obs := range sectionObservations(section) {
		allergen := obs.Participant.ParticipantRole.PlayingEntity.Code.DisplayName
		if allergen == "" {
			allergen = "Unknown allergen"
		}

		allergy := model.Allergy{Allergen: allergen, Status: "active"}
		for _, rel := range obs.EntryRelationships {
			if rel.Observation != nil && rel.Observation.Value.DisplayName != "" {
				allergy.Reaction = rel.Observation.Value.DisplayName
				break
			}
		}
		result.Allergies = append(result.Allergies, allergy)
	}
}

func (x *CCDA) extractMedications(result *Result, section ccdaSection, source string) {
	for _, entry := range section.Entries {
		admin := entry.SubstanceAdministration
		if admin == nil {
			continue
		}

		name := admin.Consumable.ManufacturedProduct.ManufacturedMaterial.Code.DisplayName
		if name == "" {
			name = "Unknown medication"
		}

		var eventDate time.Time
		for _, et := range admin.EffectiveTimes {
			if t, ok := parseHL7DateTime(et.Value); ok {
				eventDate = t
				break
			}
			if t, ok := parseHL7DateTime(et.Low.Value); ok {
				eventDate = t
				break
			}
		}
		if eventDate.IsZero() {
			continue
		}

		details := map[string]any{}
		if admin.DoseQuantity.Value != "" {
			details["dose"] = strings.TrimSpace(admin.DoseQuantity.Value + " " + admin.DoseQuantity.Unit)
		}

		result.TimelineEvents = append(result.TimelineEvents, model.TimelineEvent{
			Date:                 eventDate,
			EventType:            types.EventTypeMedication,
			Summary:              name,
			Details:              details,
			SourceDocument:       source,
			ClinicalSignificance: timeline.SignificanceFor(types.EventTypeMedication),
		})
	}
}

func (x *CCDA) extractProcedures(result *Result, section ccdaSection, source string) {
	for _, entry := range section.Entries {
		proc := entry.Procedure
		if proc == nil {
			continue
		}

		t, ok := parseHL7DateTime(proc.EffectiveTime.Value)
		if !ok {
			if t, ok = parseHL7DateTime(proc.EffectiveTime.Low.Value); !ok {
				continue
			}
		}

		name := proc.Code.DisplayName
		if name == "" {
			name = "Unknown procedure"
		}
		codes := map[string]string{}
		if isSNOMEDSystem(proc.Code.CodeSystem) {
			codes["snomed"] = proc.Code.Code
		}

		result.TimelineEvents = append(result.TimelineEvents, timeline.EventFromProcedure(t, name, codes, nil, source))
	}
}

func (x *CCDA) extractResults(result *Result, section ccdaSection, source string) {
	for _, obs := range sectionObservations(section) {
		t, ok := parseHL7DateTime(obs.EffectiveTime.Value)
		if !ok {
			continue
		}

		name := obs.Code.DisplayName
		if name == "" {
			name = "Unknown test"
		}

		result.TimelineEvents = append(result.TimelineEvents,
			timeline.EventFromLabResult(t, name, obs.Value.Value, obs.Value.Unit, nil, source))
	}
}

func (x *CCDA) extractEncounters(result *Result, section ccdaSection, source string) {
	for _, entry := range section.Entries {
		enc := entry.Encounter
		if enc == nil {
			continue
		}

		t, ok := parseHL7DateTime(enc.EffectiveTime.Low.Value)
		if !ok {
			if t, ok = parseHL7DateTime(enc.EffectiveTime.Value); !ok {
				continue
			}
		}

		encounterType := enc.Code.DisplayName
		if encounterType == "" {
			encounterType = "Unknown encounter"
		}

		result.TimelineEvents = append(result.TimelineEvents, timeline.EventFromEncounter(t, encounterType, nil, source))
	}
}

// sectionObservations collects the observations of a section, whether
// they hang off entries directly, under acts, or inside organizers
func sectionObservations(section ccdaSection) []*ccdaObservation {
	var observations []*ccdaObservation
	for _, entry := range section.Entries {
		if entry.Observation != nil {
			observations = append(observations, entry.Observation)
		}
		if entry.Act != nil {
			for _, rel := range entry.Act.EntryRelationships {
				if rel.Observation != nil {
					observations = append(observations, rel.Observation)
				}
			}
		}
		if entry.Organizer != nil {
			for _, comp := range entry.Organizer.Components {
				if comp.Observation != nil {
					observations = append(observations, comp.Observation)
				}
			}
		}
	}
	return observations
}

// SNOMED CT code system OID
const snomedOID = "2.16.840.1.113883.6.96"

func isSNOMEDSystem(codeSystem string) bool {
	return codeSystem == snomedOID
}

// parseHL7DateTime parses the HL7 timestamp form YYYYMMDDHHMMSS,
// tolerating truncation down to a bare date
func parseHL7DateTime(value string) (time.Time, bool) {
	if len(value) >= 14 {
		if t, err := time.Parse("20060102150405", value[:14]); err == nil {
			return t, true
		}
	}
	if len(value) >= 8 {
		if t, err := time.Parse("20060102", value[:8]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseHL7Date parses the HL7 date form YYYYMMDD
func parseHL7Date(value string) (types.Date, bool) {
	t, ok := parseHL7DateTime(value)
	if !ok {
		return types.Date{}, false
	}
	return types.DateOf(t), true
}
