package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/clinrec-lab/longview/pkg/domain/model"
	"github.com/clinrec-lab/longview/pkg/domain/types"
	"github.com/clinrec-lab/longview/pkg/service/ingest"
)

const fhirBundleFixture = `{
  "resourceType": "Bundle",
  "type": "collection",
  "entry": [
    {
      "resource": {
        "resourceType": "Patient",
        "id": "p-100",
        "name": [{"given": ["Jane"], "family": "Doe"}],
        "birthDate": "1984-06-16",
        "gender": "female",
        "telecom": [
          {"system": "phone", "value": "555-0100"},
          {"system": "email", "value": "jane@example.com"}
        ],
        "address": [{"line": ["1 Main St"], "city": "Springfield", "state": "IL", "postalCode": "62701"}],
        "identifier": [{"system": "http://hospital.example.org/medical-record-number", "value": "MRN-42"}]
      }
    },
    {
      "resource": {
        "resourceType": "Condition",
        "code": {
          "text": "Cervical radiculopathy",
          "coding": [{"system": "http://hl7.org/fhir/sid/icd-10-cm", "code": "M54.12"}]
        },
        "clinicalStatus": {"coding": [{"code": "active"}]},
        "onsetDateTime": "2020-01-10T00:00:00Z"
      }
    },
    {
      "resource": {
        "resourceType": "Device",
        "deviceName": [{"name": "Cervical interbody cage"}],
        "type": {"text": "spinal implant"},
        "udiCarrier": [{"deviceIdentifier": "UDI-001"}],
        "manufacturer": "Medtronic"
      }
    },
    {
      "resource": {
        "resourceType": "AllergyIntolerance",
        "code": {"text": "Penicillin"},
        "reaction": [{"manifestation": [{"text": "Hives"}], "severity": "moderate"}]
      }
    },
    {
      "resource": {
        "resourceType": "Procedure",
        "code": {
          "text": "Anterior cervical discectomy and fusion",
          "coding": [{"system": "http://www.ama-assn.org/go/cpt", "code": "22551"}]
        },
        "performedDateTime": "2020-05-15T08:30:00Z"
      }
    },
    {
      "resource": {
        "resourceType": "Observation",
        "code": {"text": "Hemoglobin A1c"},
        "valueQuantity": {"value": 6.1, "unit": "%"},
        "effectiveDateTime": "2020-03-01T09:00:00Z"
      }
    },
    {
      "resource": {
        "resourceType": "Encounter",
        "type": [{"text": "Office visit"}],
        "period": {"start": "2020-01-10T10:00:00Z"}
      }
    },
    {
      "resource": {
        "resourceType": "CareTeam",
        "participant": [
          {"role": [{"text": "Primary care physician"}], "member": {"display": "Dr. Emily Park"}}
        ]
      }
    }
  ]
}`

const ccdaFixture = `<?xml version="1.0" encoding="UTF-8"?>
<ClinicalDocument xmlns="urn:hl7-org:v3">
  <title>Continuity of Care Document</title>
  <recordTarget>
    <patientRole>
      <id root="2.16.840.1.113883.19.5" extension="p-100"/>
      <addr><streetAddressLine>1 Main St</streetAddressLine><city>Springfield</city><state>IL</state><postalCode>62701</postalCode></addr>
      <telecom use="HP" value="tel:555-0100"/>
      <patient>
        <name><given>Jane</given><family>Doe</family></name>
        <administrativeGenderCode code="F"/>
        <birthTime value="19840616"/>
      </patient>
    </patientRole>
  </recordTarget>
  <component>
    <structuredBody>
      <component>
        <section>
          <code code="11450-4" displayName="Problem List"/>
          <entry>
            <observation>
              <statusCode code="active"/>
              <value code="23056005" codeSystem="2.16.840.1.113883.6.96" displayName="Cervical radiculopathy"/>
              <effectiveTime><low value="20200110"/></effectiveTime>
            </observation>
          </entry>
        </section>
      </component>
      <component>
        <section>
          <code code="47519-4" displayName="Procedures"/>
          <entry>
            <procedure>
              <code code="302497006" codeSystem="2.16.840.1.113883.6.96" displayName="ACDF C5-C6"/>
              <effectiveTime value="20200515083000"/>
            </procedure>
          </entry>
        </section>
      </component>
      <component>
        <section>
          <code code="48765-2" displayName="Allergies"/>
          <entry>
            <observation>
              <participant>
                <participantRole>
                  <playingEntity><code code="7980" displayName="Penicillin"/></playingEntity>
                </participantRole>
              </participant>
              <entryRelationship>
                <observation><value displayName="Hives"/></observation>
              </entryRelationship>
            </observation>
          </entry>
        </section>
      </component>
      <component>
        <section>
          <code code="46240-8" displayName="Encounters"/>
          <entry>
            <encounter>
              <code displayName="Office visit"/>
              <effectiveTime><low value="20200110100000"/></effectiveTime>
            </encounter>
          </entry>
        </section>
      </component>
    </structuredBody>
  </component>
</ClinicalDocument>`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFHIR_CanIngest(t *testing.T) {
	dir := t.TempDir()
	bundle := writeFixture(t, dir, "bundle.json", fhirBundleFixture)
	notBundle := writeFixture(t, dir, "other.json", `{"resourceType": "Patient"}`)
	ccda := writeFixture(t, dir, "doc.xml", ccdaFixture)

	x := ingest.NewFHIR()
	gt.Bool(t, x.CanIngest(bundle)).True()
	gt.Bool(t, x.CanIngest(notBundle)).False()
	gt.Bool(t, x.CanIngest(ccda)).False()
}

func TestFHIR_Ingest(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "bundle.json", fhirBundleFixture)

	result, err := ingest.NewFHIR().Ingest(context.Background(), path)
	gt.NoError(t, err).Required()

	gt.Value(t, result.Document.Format).Equal(model.DocumentFormatFHIR)
	gt.Value(t, result.Document.FileName).Equal("bundle.json")

	patient := gt.Cast[*model.PatientDemographics](t, result.Patient)
	gt.Value(t, patient.PatientID).Equal("p-100")
	gt.Value(t, patient.Name).Equal("Jane Doe")
	gt.Value(t, patient.Gender).Equal(types.GenderFemale)
	gt.Value(t, patient.DateOfBirth).Equal(types.NewDate(1984, time.June, 16))
	gt.Value(t, patient.MRN).Equal("MRN-42")
	gt.Value(t, patient.Contact.Phone).Equal("555-0100")

	gt.Array(t, result.Conditions).Length(1)
	gt.Value(t, result.Conditions[0].ICD10Code).Equal("M54.12")
	gt.Value(t, result.Conditions[0].Status).Equal(types.ConditionStatusActive)

	gt.Array(t, result.Devices).Length(1)
	gt.Value(t, result.Devices[0].UDI).Equal("UDI-001")

	gt.Array(t, result.Allergies).Length(1)
	gt.Value(t, result.Allergies[0].Allergen).Equal("Penicillin")
	gt.Value(t, result.Allergies[0].Reaction).Equal("Hives")

	gt.Array(t, result.CareTeam).Length(1)
	gt.Value(t, result.CareTeam[0].Name).Equal("Dr. Emily Park")

	// diagnosis, procedure, lab, medication-free bundle: encounter too
	byType := map[types.EventType]int{}
	for _, e := range result.TimelineEvents {
		byType[e.EventType]++
	}
	gt.Number(t, byType[types.EventTypeDiagnosis]).Equal(1)
	gt.Number(t, byType[types.EventTypeProcedure]).Equal(1)
	gt.Number(t, byType[types.EventTypeLabResult]).Equal(1)
	gt.Number(t, byType[types.EventTypeEncounter]).Equal(1)

	for _, e := range result.TimelineEvents {
		gt.Value(t, e.SourceDocument).Equal("bundle.json")
	}
}

func TestCCDA_Ingest(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "doc.xml", ccdaFixture)

	x := ingest.NewCCDA()
	gt.Bool(t, x.CanIngest(path)).True()

	result, err := x.Ingest(context.Background(), path)
	gt.NoError(t, err).Required()

	patient := gt.Cast[*model.PatientDemographics](t, result.Patient)
	gt.Value(t, patient.PatientID).Equal("p-100")
	gt.Value(t, patient.Name).Equal("Jane Doe")
	gt.Value(t, patient.Gender).Equal(types.GenderFemale)
	gt.Value(t, patient.DateOfBirth).Equal(types.NewDate(1984, time.June, 16))
	gt.Value(t, patient.Contact.Phone).Equal("555-0100")

	gt.Array(t, result.Conditions).Length(1)
	gt.Value(t, result.Conditions[0].Name).Equal("Cervical radiculopathy")
	gt.Value(t, result.Conditions[0].SNOMEDCode).Equal("23056005")
	gt.Value(t, result.Conditions[0].OnsetDate).Equal(types.NewDate(2020, time.January, 10))

	gt.Array(t, result.Allergies).Length(1)
	gt.Value(t, result.Allergies[0].Allergen).Equal("Penicillin")
	gt.Value(t, result.Allergies[0].Reaction).Equal("Hives")

	byType := map[types.EventType]int{}
	for _, e := range result.TimelineEvents {
		byType[e.EventType]++
	}
	gt.Number(t, byType[types.EventTypeDiagnosis]).Equal(1)
	gt.Number(t, byType[types.EventTypeProcedure]).Equal(1)
	gt.Number(t, byType[types.EventTypeEncounter]).Equal(1)
}

func TestPipeline_ScanAndBuildDelta(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "bundle.json", fhirBundleFixture)
	writeFixture(t, dir, "doc.xml", ccdaFixture)
	writeFixture(t, dir, "notes.txt", "not a medical record")

	ctx := context.Background()
	pipeline := ingest.NewPipeline()

	paths, err := pipeline.Scan(ctx, dir)
	gt.NoError(t, err).Required()
	gt.Array(t, paths).Length(2)

	results, err := pipeline.IngestAll(ctx, paths)
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(2)

	delta := pipeline.BuildDelta(ctx, results)
	gt.Number(t, delta.SourceFilesCount).Equal(2)
	gt.Value(t, delta.Patient.PatientID).Equal("p-100")

	// both documents describe the same condition; the merge engine will
	// collapse them, the delta keeps both raw records
	gt.Array(t, delta.Conditions).Length(2)

	// the office visit appears in both documents and deduplicates here
	visits := 0
	for _, e := range delta.TimelineEvents {
		if e.EventType == types.EventTypeEncounter {
			visits++
		}
	}
	gt.Number(t, visits).Equal(1)
}
