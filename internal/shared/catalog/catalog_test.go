package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthvault/internal/shared/models"
)

func rec(id string, s models.Specialty, t models.RecordType, date string) models.HealthRecord {
	return models.HealthRecord{
		ID: id, Specialty: s, RecordType: t,
		Title: id, Date: models.Date(date), Status: models.StatusActive,
	}
}

func sampleRecords() []models.HealthRecord {
	// pre-sorted by date descending, as list endpoints return them
	return []models.HealthRecord{
		rec("r1", models.SpecialtyOptometry, models.TypeEyeExam, "2025-07-10"),
		rec("r2", models.SpecialtyMedical, models.TypeLaboratory, "2025-05-20"),
		rec("r3", models.SpecialtyMedical, models.TypeConsultation, "2025-05-18"),
		rec("r4", models.SpecialtyDentistry, models.TypeDentalCleaning, "2025-04-02"),
		rec("r5", models.SpecialtyMedical, models.TypeLaboratory, "2025-03-15"),
		rec("r6", models.SpecialtyDentistry, models.TypeDentalCheckup, "2025-08-01"),
		rec("r7", models.SpecialtyMedical, models.TypePrescription, "2025-01-05"),
	}
}

func TestCategorizeEmpty(t *testing.T) {
	g := Categorize(nil)
	assert.Empty(t, g.Specialties)
	assert.Zero(t, g.Total)
}

func TestCategorizeGroupsInInsertionOrder(t *testing.T) {
	g := Categorize(sampleRecords())
	require.Len(t, g.Specialties, 3)
	assert.Equal(t, models.SpecialtyOptometry, g.Specialties[0].Specialty)
	assert.Equal(t, models.SpecialtyMedical, g.Specialties[1].Specialty)
	assert.Equal(t, models.SpecialtyDentistry, g.Specialties[2].Specialty)
	assert.Equal(t, 7, g.Total)

	med := g.Specialties[1]
	assert.Equal(t, 4, med.Count)
	require.Len(t, med.Types, 3)
	assert.Equal(t, models.TypeLaboratory, med.Types[0].RecordType)
	assert.Equal(t, "Laboratory", med.Types[0].Label)
	assert.Len(t, med.Types[0].Records, 2)
}

func TestCategorizeIdempotent(t *testing.T) {
	records := sampleRecords()
	first := Categorize(records)
	second := Categorize(records)
	assert.Equal(t, first, second)
}

func TestRecentExcludesAppointments(t *testing.T) {
	got := Recent(sampleRecords(), 3)
	require.Len(t, got, 3)
	assert.Equal(t, "r2", got[0].ID)
	assert.Equal(t, "r4", got[1].ID)
	assert.Equal(t, "r5", got[2].ID)
	for _, r := range got {
		assert.NotContains(t, []models.RecordType{
			models.TypeEyeExam, models.TypeConsultation, models.TypeDentalCheckup,
		}, r.RecordType)
	}
}

func TestRecentFewerThanN(t *testing.T) {
	got := Recent(sampleRecords(), 10)
	assert.Len(t, got, 4)
	assert.Empty(t, Recent(nil, 3))
}

func TestUpcoming(t *testing.T) {
	got := Upcoming(sampleRecords(), models.Date("2025-06-01"), 3)
	require.Len(t, got, 2)
	// ascending by date: eye exam in July, then dental checkup in August
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, "r6", got[1].ID)
	for _, r := range got {
		assert.GreaterOrEqual(t, string(r.Date), "2025-06-01")
	}
}

func TestUpcomingExcludesPastAppointments(t *testing.T) {
	// r3 is a consultation dated 2025-05-18, before today
	got := Upcoming(sampleRecords(), models.Date("2025-06-01"), 10)
	for _, r := range got {
		assert.NotEqual(t, "r3", r.ID)
	}
}

func TestUpcomingTieBreakIsStable(t *testing.T) {
	records := []models.HealthRecord{
		rec("a", models.SpecialtyMedical, models.TypeConsultation, "2025-06-10"),
		rec("b", models.SpecialtyDentistry, models.TypeDentalCheckup, "2025-06-10"),
		rec("c", models.SpecialtyOptometry, models.TypeEyeExam, "2025-06-05"),
	}
	got := Upcoming(records, models.Date("2025-06-01"), 3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].ID, got[1].ID, got[2].ID})
}
