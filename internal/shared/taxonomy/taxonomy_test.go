package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthvault/internal/shared/models"
)

func TestValidTypesForRoundTrip(t *testing.T) {
	for _, s := range Specialties() {
		types := ValidTypesFor(s)
		require.NotEmpty(t, types, "specialty %s has no record types", s)
		for _, rt := range types {
			got, ok := SpecialtyOf(rt)
			require.True(t, ok)
			assert.Equal(t, s, got, "type %s maps back to wrong specialty", rt)
		}
	}
}

func TestValidTypesForDentistry(t *testing.T) {
	got := ValidTypesFor(models.SpecialtyDentistry)
	want := []models.RecordType{
		models.TypeDentalCheckup,
		models.TypeDentalCleaning,
		models.TypeDentalProcedure,
		models.TypeDentalSurgery,
	}
	assert.Equal(t, want, got)
}

func TestValidTypesForUnknownSpecialty(t *testing.T) {
	assert.Nil(t, ValidTypesFor(models.Specialty("astrology")))
	assert.False(t, ValidSpecialty(models.Specialty("astrology")))
}

func TestValidType(t *testing.T) {
	assert.True(t, ValidType(models.SpecialtyOptometry, models.TypeEyeExam))
	assert.False(t, ValidType(models.SpecialtyDentistry, models.TypeEyeExam))
	assert.False(t, ValidType(models.SpecialtyMedical, models.RecordType("freeform")))
}

func TestDisplayMetaCoversEveryType(t *testing.T) {
	for _, s := range Specialties() {
		for _, rt := range ValidTypesFor(s) {
			meta := DisplayMeta(rt)
			assert.NotEmpty(t, meta.Label, "type %s missing label", rt)
			assert.NotEmpty(t, meta.ColorToken, "type %s missing color", rt)
			assert.NotEmpty(t, meta.Icon, "type %s missing icon", rt)
		}
	}
}

func TestDisplayMetaUnknownFallsBack(t *testing.T) {
	meta := DisplayMeta(models.RecordType("mystery_scan"))
	assert.Equal(t, "Mystery Scan", meta.Label)
	assert.Equal(t, "gray", meta.ColorToken)
}

func TestFormatRecordType(t *testing.T) {
	assert.Equal(t, "Dental Checkup", FormatRecordType(models.TypeDentalCheckup))
	assert.Equal(t, "Eye Exam", FormatRecordType(models.TypeEyeExam))
	// unrecognized input: capitalized raw token, never an error
	assert.Equal(t, "Foo Bar", FormatRecordType(models.RecordType("foo_bar")))
	assert.Equal(t, "", FormatRecordType(models.RecordType("")))
}

func TestFormatLabel(t *testing.T) {
	assert.Equal(t, "Eye Exam", FormatLabel("eye_exam"))
	assert.Equal(t, "X", FormatLabel("x"))
	assert.Equal(t, "Already Split", FormatLabel("already_split"))
}

func TestIsAppointment(t *testing.T) {
	assert.True(t, IsAppointment(models.TypeConsultation))
	assert.True(t, IsAppointment(models.TypeAnnualPhysical))
	assert.True(t, IsAppointment(models.TypeEyeExam))
	assert.False(t, IsAppointment(models.TypeLaboratory))
	assert.False(t, IsAppointment(models.TypePrescription))
	assert.False(t, IsAppointment(models.RecordType("freeform")))
}

func TestRequiredFields(t *testing.T) {
	assert.Contains(t, RequiredFields(models.TypePrescription), "medication")
	assert.Contains(t, RequiredFields(models.TypeLaboratory), "details")
	assert.Contains(t, RequiredFields(models.TypeConsultation), "reason")
	assert.Empty(t, RequiredFields(models.TypeEyeExam))
	assert.Empty(t, RequiredFields(models.RecordType("freeform")))
}
