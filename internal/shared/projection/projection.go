// Package projection derives read-only Data and Opinion views from a health
// record without mutating it.
package projection

import "healthvault/internal/shared/models"

type Mode string

const (
	ModeData    Mode = "data"
	ModeOpinion Mode = "opinion"
)

// ParseMode maps a query value to a Mode, defaulting to Data.
func ParseMode(s string) Mode {
	if Mode(s) == ModeOpinion {
		return ModeOpinion
	}
	return ModeData
}

// View is one projection of a record. Exactly one of Content or Insights is
// populated depending on the mode; InsightsAvailable distinguishes "no
// insights recorded" from an empty insights map.
type View struct {
	RecordID          string                    `json:"record_id"`
	Mode              Mode                      `json:"mode"`
	Title             string                    `json:"title"`
	Specialty         models.Specialty          `json:"specialty"`
	RecordType        models.RecordType         `json:"record_type"`
	Date              models.Date               `json:"date"`
	Language          string                    `json:"language,omitempty"`
	DisplayDetails    string                    `json:"display_details,omitempty"`
	Content           *models.Content           `json:"content,omitempty"`
	Attachments       []models.Attachment       `json:"attachments,omitempty"`
	Insights          map[string]models.Insight `json:"insights,omitempty"`
	InsightsAvailable bool                      `json:"insights_available"`
}

// Project returns the requested view of a record. Data mode carries exactly
// the stored content with no synthesized text; Opinion mode carries the
// recorded insights, or an explicit no-insights marker when none exist. The
// record itself is never modified; the view holds copies.
func Project(rec models.HealthRecord, mode Mode) View {
	v := View{
		RecordID:   rec.ID,
		Mode:       mode,
		Title:      rec.Title,
		Specialty:  rec.Specialty,
		RecordType: rec.RecordType,
		Date:       rec.Date,
	}
	switch mode {
	case ModeOpinion:
		if len(rec.Insights) == 0 {
			return v // InsightsAvailable stays false: no fallback to data
		}
		v.InsightsAvailable = true
		v.Insights = make(map[string]models.Insight, len(rec.Insights))
		for name, ins := range rec.Insights {
			v.Insights[name] = copyInsight(ins)
		}
	default:
		content := copyContent(rec.Content)
		v.Content = &content
		v.Attachments = append([]models.Attachment(nil), rec.Attachments...)
		v.Language = rec.Language
		v.DisplayDetails = rec.DisplayDetails()
	}
	return v
}

func copyContent(c models.Content) models.Content {
	out := c
	if c.Medication != nil {
		med := *c.Medication
		out.Medication = &med
	}
	if c.FollowUp != nil {
		fu := *c.FollowUp
		out.FollowUp = &fu
	}
	if c.Extra != nil {
		out.Extra = make(map[string]any, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

func copyInsight(ins models.Insight) models.Insight {
	out := ins
	out.Recommendations = append([]string(nil), ins.Recommendations...)
	out.Sources = append([]string(nil), ins.Sources...)
	return out
}
