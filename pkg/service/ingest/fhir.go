package ingest

import (
	"context"
	"encoding/json"
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

// fhirBundle is the subset of a FHIR R4 Bundle needed for extraction.
// Entry resources stay raw until dispatched by resourceType.
type fhirBundle struct {
	ResourceType string            `json:"resourceType"`
	Type         string            `json:"type"`
	Entry        []fhirBundleEntry `json:"entry"`
}

type fhirBundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource"`
}

type fhirResourceHeader struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id"`
}

type fhirCodeableConcept struct {
	Coding []fhirCoding `json:"coding"`
	Text   string       `json:"text"`
}

type fhirCoding struct {
	System  string `json:"system"`
	Code    string `json:"code"`
	Display string `json:"display"`
}

type fhirPatient struct {
	ID         string           `json:"id"`
	Name       []fhirHumanName  `json:"name"`
	BirthDate  string           `json:"birthDate"`
	Gender     string           `json:"gender"`
	Telecom    []fhirTelecom    `json:"telecom"`
	Address    []fhirAddress    `json:"address"`
	Identifier []fhirIdentifier `json:"identifier"`
}

type fhirHumanName struct {
	Given  []string `json:"given"`
	Family string   `json:"family"`
}

type fhirTelecom struct {
	System string `json:"system"`
	Value  string `json:"value"`
}

type fhirAddress struct {
	Line       []string `json:"line"`
	City       string   `json:"city"`
	State      string   `json:"state"`
	PostalCode string   `json:"postalCode"`
	Country    string   `json:"country"`
}

type fhirIdentifier struct {
	System string `json:"system"`
	Value  string `json:"value"`
}

type fhirCondition struct {
	Code               fhirCodeableConcept `json:"code"`
	ClinicalStatus     fhirCodeableConcept `json:"clinicalStatus"`
	VerificationStatus fhirCodeableConcept `json:"verificationStatus"`
	OnsetDateTime      string              `json:"onsetDateTime"`
}

type fhirDevice struct {
	DeviceName []struct {
		Name string `json:"name"`
	} `json:"deviceName"`
	Type       fhirCodeableConcept `json:"type"`
	UDICarrier []struct {
		DeviceIdentifier string `json:"deviceIdentifier"`
	} `json:"udiCarrier"`
	Manufacturer string `json:"manufacturer"`
	LotNumber    string `json:"lotNumber"`
}

type fhirProcedure struct {
	Code              fhirCodeableConcept `json:"code"`
	PerformedDateTime string              `json:"performedDateTime"`
	PerformedPeriod   fhirPeriod          `json:"performedPeriod"`
}

type fhirPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type fhirMedicationRequest struct {
	MedicationCodeableConcept fhirCodeableConcept `json:"medicationCodeableConcept"`
	DosageInstruction         []struct {
		Text string `json:"text"`
	} `json:"dosageInstruction"`
	Status     string `json:"status"`
	AuthoredOn string `json:"authoredOn"`
}

type fhirObservation struct {
	Code          fhirCodeableConcept `json:"code"`
	ValueQuantity struct {
		Value json.Number `json:"value"`
		Unit  string      `json:"unit"`
	} `json:"valueQuantity"`
	EffectiveDateTime string `json:"effectiveDateTime"`
	Status            string `json:"status"`
}

type fhirEncounter struct {
	Type   []fhirCodeableConcept `json:"type"`
	Period fhirPeriod            `json:"period"`
}

type fhirAllergyIntolerance struct {
	Code     fhirCodeableConcept `json:"code"`
	Reaction []struct {
		Manifestation []fhirCodeableConcept `json:"manifestation"`
		Severity      string                `json:"severity"`
	} `json:"reaction"`
	OnsetDateTime string `json:"onsetDateTime"`
}

type fhirCareTeam struct {
	Participant []struct {
		Role   []fhirCodeableConcept `json:"role"`
		Member struct {
			Display string `json:"display"`
		} `json:"member"`
	} `json:"participant"`
}

// FHIR ingests FHIR R4 Bundle JSON documents
type FHIR struct{}

// NewFHIR creates a FHIR bundle ingestor
func NewFHIR() *FHIR {
	return &FHIR{}
}

// Format returns the FHIR bundle format identifier
func (x *FHIR) Format() model.DocumentFormat {
	return model.DocumentFormatFHIR
}

// CanIngest reports whether path is a JSON file whose top-level
// resourceType is Bundle
func (x *FHIR) CanIngest(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var header fhirResourceHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return false
	}
	return header.ResourceType == "Bundle"
}

// Ingest parses the bundle and extracts demographics, conditions,
// devices, allergies, and timeline events
func (x *FHIR) Ingest(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read FHIR document", goerr.V("path", path))
	}

	var bundle fhirBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, goerr.Wrap(err, "failed to parse FHIR bundle", goerr.V("path", path))
	}
	if bundle.ResourceType != "Bundle" {
		return nil, goerr.New("not a FHIR bundle",
			goerr.V("path", path), goerr.V("resource_type", bundle.ResourceType))
	}

	result := &Result{
		Document: newDocumentMetadata(path, model.DocumentFormatFHIR, int64(len(data))),
	}
	source := result.Document.FileName

	logger := logging.From(ctx)

	for _, entry := range bundle.Entry {
		var header fhirResourceHeader
		if err := json.Unmarshal(entry.Resource, &header); err != nil {
			logger.Warn("Skipping unreadable bundle entry", "path", path, "error", err)
			continue
		}

		switch header.ResourceType {
		case "Patient":
			var patient fhirPatient
			if err := json.Unmarshal(entry.Resource, &patient); err == nil && result.Patient == nil {
				result.Patient = x.extractPatient(ctx, patient)
			}
		case "Condition":
			var cond fhirCondition
			if err := json.Unmarshal(entry.Resource, &cond); err == nil {
				c := x.extractCondition(cond, source)
				result.Conditions = append(result.Conditions, c)
				if !c.OnsetDate.IsZero() {
					result.TimelineEvents = append(result.TimelineEvents, timeline.EventFromDiagnosis(c, source))
				}
			}
		case "Device":
			var device fhirDevice
			if err := json.Unmarshal(entry.Resource, &device); err == nil {
				result.Devices = append(result.Devices, x.extractDevice(device))
			}
		case "AllergyIntolerance":
			var allergy fhirAllergyIntolerance
			if err := json.Unmarshal(entry.Resource, &allergy); err == nil {
				result.Allergies = append(result.Allergies, x.extractAllergy(allergy))
			}
		case "Procedure":
			var proc fhirProcedure
			if err := json.Unmarshal(entry.Resource, &proc); err == nil {
				if e, ok := x.extractProcedure(proc, source); ok {
					result.TimelineEvents = append(result.TimelineEvents, e)
				}
			}
		case "MedicationRequest":
			var med fhirMedicationRequest
			if err := json.Unmarshal(entry.Resource, &med); err == nil {
				if e, ok := x.extractMedication(med, source); ok {
					result.TimelineEvents = append(result.TimelineEvents, e)
				}
			}
		case "Observation":
			var obs fhirObservation
			if err := json.Unmarshal(entry.Resource, &obs); err == nil {
				if e, ok := x.extractObservation(obs, source); ok {
					result.TimelineEvents = append(result.TimelineEvents, e)
				}
			}
		case "Encounter":
			var enc fhirEncounter
			if err := json.Unmarshal(entry.Resource, &enc); err == nil {
				if e, ok := x.extractEncounter(enc, source); ok {
					result.TimelineEvents = append(result.TimelineEvents, e)
				}
			}
		case "CareTeam":
			var team fhirCareTeam
			if err := json.Unmarshal(entry.Resource, &team); err == nil {
				result.CareTeam = append(result.CareTeam, x.extractCareTeam(team)...)
			}
		}
	}

	return result, nil
}

func (x *FHIR) extractPatient(ctx context.Context, patient fhirPatient) *model.PatientDemographics {
	demographics := model.PatientDemographics{
		PatientID: patient.ID,
		Name:      "Unknown",
		Gender:    types.ParseGender(strings.ToLower(patient.Gender)),
	}
	if demographics.PatientID == "" {
		demographics.PatientID = model.UnknownPatientID
	}

	if len(patient.Name) > 0 {
		name := patient.Name[0]
		full := strings.TrimSpace(strings.Join(name.Given, " ") + " " + name.Family)
		if full != "" {
			demographics.Name = full
		}
	}

	if patient.BirthDate != "" {
		dob, err := types.ParseDate(patient.BirthDate)
		if err != nil {
			logging.From(ctx).Warn("Invalid birth date in Patient resource", "value", patient.BirthDate)
		} else {
			demographics.DateOfBirth = dob
		}
	}

	for _, telecom := range patient.Telecom {
		switch telecom.System {
		case "phone":
			demographics.Contact.Phone = telecom.Value
		case "email":
			demographics.Contact.Email = telecom.Value
		}
	}

	if len(patient.Address) > 0 {
		addr := patient.Address[0]
		if len(addr.Line) > 0 {
			demographics.Contact.AddressLine1 = addr.Line[0]
		}
		if len(addr.Line) > 1 {
			demographics.Contact.AddressLine2 = addr.Line[1]
		}
		demographics.Contact.City = addr.City
		demographics.Contact.State = addr.State
		demographics.Contact.ZipCode = addr.PostalCode
		demographics.Contact.Country = addr.Country
	}

	for _, identifier := range patient.Identifier {
		if strings.HasSuffix(identifier.System, "medical-record-number") {
			demographics.MRN = identifier.Value
			break
		}
	}

	return &demographics
}

func (x *FHIR) extractCondition(cond fhirCondition, source string) model.Condition {
	name := cond.Code.Text
	if name == "" {
		name = "Unknown condition"
	}

	var icd10, snomed string
	for _, coding := range cond.Code.Coding {
		system := strings.ToLower(coding.System)
		switch {
		case strings.Contains(system, "icd-10"):
			icd10 = coding.Code
		case strings.Contains(system, "snomed"):
			snomed = coding.Code
		}
	}

	clinicalStatus := firstCode(cond.ClinicalStatus)
	status := types.ConditionStatusActive
	if clinicalStatus == "resolved" || clinicalStatus == "inactive" {
		status = types.ConditionStatusResolved
	}

	var onset types.Date
	if t, ok := parseFHIRDateTime(cond.OnsetDateTime); ok {
		onset = types.DateOf(t.UTC())
	}

	return model.Condition{
		Name:               name,
		ICD10Code:          icd10,
		SNOMEDCode:         snomed,
		Status:             status,
		OnsetDate:          onset,
		ClinicalStatus:     clinicalStatus,
		VerificationStatus: firstCode(cond.VerificationStatus),
		SourceDocument:     source,
	}
}

func (x *FHIR) extractDevice(device fhirDevice) model.ImplantedDevice {
	name := "Unknown device"
	if len(device.DeviceName) > 0 && device.DeviceName[0].Name != "" {
		name = device.DeviceName[0].Name
	}
	deviceType := device.Type.Text
	if deviceType == "" {
		deviceType = "Unknown type"
	}
	var udi string
	if len(device.UDICarrier) > 0 {
		udi = device.UDICarrier[0].DeviceIdentifier
	}

	return model.ImplantedDevice{
		DeviceType:   deviceType,
		DeviceName:   name,
		UDI:          udi,
		Manufacturer: device.Manufacturer,
		LotNumber:    device.LotNumber,
		Status:       "active",
	}
}

func (x *FHIR) extractAllergy(allergy fhirAllergyIntolerance) model.Allergy {
	allergen := allergy.Code.Text
	if allergen == "" && len(allergy.Code.Coding) > 0 {
		allergen = allergy.Code.Coding[0].Display
	}
	if allergen == "" {
		allergen = "Unknown allergen"
	}

	result := model.Allergy{Allergen: allergen, Status: "active"}
	if len(allergy.Reaction) > 0 {
		reaction := allergy.Reaction[0]
		if len(reaction.Manifestation) > 0 {
			result.Reaction = reaction.Manifestation[0].Text
			if result.Reaction == "" && len(reaction.Manifestation[0].Coding) > 0 {
				result.Reaction = reaction.Manifestation[0].Coding[0].Display
			}
		}
		result.Severity = reaction.Severity
	}
	if t, ok := parseFHIRDateTime(allergy.OnsetDateTime); ok {
		result.OnsetDate = types.DateOf(t.UTC())
	}
	return result
}

func (x *FHIR) extractProcedure(proc fhirProcedure, source string) (model.TimelineEvent, bool) {
	performed := proc.PerformedDateTime
	if performed == "" {
		performed = proc.PerformedPeriod.Start
	}
	t, ok := parseFHIRDateTime(performed)
	if !ok {
		return model.TimelineEvent{}, false
	}

	name := proc.Code.Text
	if name == "" {
		name = "Unknown procedure"
	}

	codes := map[string]string{}
	for _, coding := range proc.Code.Coding {
		system := strings.ToLower(coding.System)
		switch {
		case strings.Contains(system, "cpt"):
			codes["cpt"] = coding.Code
		case strings.Contains(system, "snomed"):
			codes["snomed"] = coding.Code
		}
	}

	return timeline.EventFromProcedure(t, name, codes, nil, source), true
}

func (x *FHIR) extractMedication(med fhirMedicationRequest, source string) (model.TimelineEvent, bool) {
	t, ok := parseFHIRDateTime(med.AuthoredOn)
	if !ok {
		return model.TimelineEvent{}, false
	}

	name := med.MedicationCodeableConcept.Text
	if name == "" {
		name = "Unknown medication"
	}

	details := map[string]any{"status": med.Status}
	if len(med.DosageInstruction) > 0 && med.DosageInstruction[0].Text != "" {
		details["dosage"] = med.DosageInstruction[0].Text
	}

	return model.TimelineEvent{
		Date:                 t,
		EventType:            types.EventTypeMedication,
		Summary:              name,
		Details:              details,
		SourceDocument:       source,
		ClinicalSignificance: timeline.SignificanceFor(types.EventTypeMedication),
	}, true
}

func (x *FHIR) extractObservation(obs fhirObservation, source string) (model.TimelineEvent, bool) {
	t, ok := parseFHIRDateTime(obs.EffectiveDateTime)
	if !ok {
		return model.TimelineEvent{}, false
	}

	name := obs.Code.Text
	if name == "" {
		name = "Unknown observation"
	}

	return timeline.EventFromLabResult(t, name,
		obs.ValueQuantity.Value.String(), obs.ValueQuantity.Unit, nil, source), true
}

func (x *FHIR) extractEncounter(enc fhirEncounter, source string) (model.TimelineEvent, bool) {
	t, ok := parseFHIRDateTime(enc.Period.Start)
	if !ok {
		return model.TimelineEvent{}, false
	}

	encounterType := "Unknown encounter"
	if len(enc.Type) > 0 && enc.Type[0].Text != "" {
		encounterType = enc.Type[0].Text
	}

	return timeline.EventFromEncounter(t, encounterType, nil, source), true
}

func (x *FHIR) extractCareTeam(team fhirCareTeam) []model.CareTeamMember {
	var members []model.CareTeamMember
	for _, participant := range team.Participant {
		if participant.Member.Display == "" {
			continue
		}
		member := model.CareTeamMember{Name: participant.Member.Display}
		if len(participant.Role) > 0 {
			member.Role = participant.Role[0].Text
			if member.Role == "" && len(participant.Role[0].Coding) > 0 {
				member.Role = participant.Role[0].Coding[0].Display
			}
		}
		members = append(members, member)
	}
	return members
}

func firstCode(concept fhirCodeableConcept) string {
	if len(concept.Coding) == 0 {
		return ""
	}
	return concept.Coding[0].Code
}

// parseFHIRDateTime accepts RFC 3339 instants and bare dates, the two
// forms FHIR dateTime fields use in practice
func parseFHIRDateTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
