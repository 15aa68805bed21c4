package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthvault/internal/shared/models"
)

func sampleRecord() models.HealthRecord {
	return models.HealthRecord{
		ID:         "rec-1",
		Specialty:  models.SpecialtyMedical,
		RecordType: models.TypeLaboratory,
		Title:      "Blood panel",
		Date:       models.Date("2025-03-10"),
		Content: models.Content{
			Reason:  "annual screening",
			Details: "all markers within range",
			Extra:   map[string]any{"lab": "CityLab"},
		},
		Insights: map[string]models.Insight{
			"medical": {
				Summary:         "Results are unremarkable.",
				Recommendations: []string{"repeat in 12 months"},
				Sources:         []string{"panel 2025-03-10"},
			},
		},
		Status: models.StatusActive,
	}
}

func TestProjectDataMode(t *testing.T) {
	v := Project(sampleRecord(), ModeData)
	require.NotNil(t, v.Content)
	assert.Equal(t, "annual screening", v.Content.Reason)
	assert.Nil(t, v.Insights, "data mode never carries insights")
	assert.False(t, v.InsightsAvailable)
}

func TestProjectDataModeDisplayDetails(t *testing.T) {
	rec := sampleRecord()
	rec.Language = "es"
	rec.TranslatedDetails = "todos los marcadores dentro del rango"

	v := Project(rec, ModeData)
	assert.Equal(t, "es", v.Language)
	assert.Equal(t, "todos los marcadores dentro del rango", v.DisplayDetails)

	rec.TranslatedDetails = ""
	v = Project(rec, ModeData)
	assert.Equal(t, "all markers within range", v.DisplayDetails,
		"missing translation falls back to the original details")

	rec.Language = "en"
	v = Project(rec, ModeData)
	assert.Equal(t, "all markers within range", v.DisplayDetails)

	o := Project(rec, ModeOpinion)
	assert.Empty(t, o.DisplayDetails, "opinion mode never carries raw content")
}

func TestProjectOpinionMode(t *testing.T) {
	v := Project(sampleRecord(), ModeOpinion)
	assert.Nil(t, v.Content, "opinion mode never carries raw content")
	require.True(t, v.InsightsAvailable)
	require.Contains(t, v.Insights, "medical")
	assert.Equal(t, "Results are unremarkable.", v.Insights["medical"].Summary)
}

func TestProjectOpinionModeNoInsights(t *testing.T) {
	rec := sampleRecord()
	rec.Insights = nil
	v := Project(rec, ModeOpinion)
	assert.False(t, v.InsightsAvailable)
	assert.Nil(t, v.Insights)
	assert.Nil(t, v.Content, "absent insights must not fall back to data content")
}

func TestProjectDoesNotMutateRecord(t *testing.T) {
	rec := sampleRecord()
	data := Project(rec, ModeData)
	opinion := Project(rec, ModeOpinion)

	data.Content.Reason = "tampered"
	data.Content.Extra["lab"] = "tampered"
	ins := opinion.Insights["medical"]
	ins.Recommendations[0] = "tampered"

	assert.Equal(t, "annual screening", rec.Content.Reason)
	assert.Equal(t, "CityLab", rec.Content.Extra["lab"])
	assert.Equal(t, "repeat in 12 months", rec.Insights["medical"].Recommendations[0])
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeOpinion, ParseMode("opinion"))
	assert.Equal(t, ModeData, ParseMode("data"))
	assert.Equal(t, ModeData, ParseMode(""))
	assert.Equal(t, ModeData, ParseMode("bogus"))
}
