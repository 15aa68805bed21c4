package models

import "time"

type Role string

const (
	RolePatient  Role = "patient"
	RoleProvider Role = "provider"
)

type User struct {
	ID        string    `json:"id" bson:"_id"`
	Email     string    `json:"email" bson:"email"`
	Role      Role      `json:"role" bson:"role"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Specialty is the top-level clinical domain of a health record.
type Specialty string

const (
	SpecialtyMedical       Specialty = "medical"
	SpecialtyPhysiotherapy Specialty = "physiotherapy"
	SpecialtyChiropractic  Specialty = "chiropractic"
	SpecialtyMassage       Specialty = "massage"
	SpecialtyMentalHealth  Specialty = "mental_health"
	SpecialtyNutrition     Specialty = "nutrition"
	SpecialtyAlternative   Specialty = "alternative"
	SpecialtyDentistry     Specialty = "dentistry"
	SpecialtyOptometry     Specialty = "optometry"
	SpecialtyOther         Specialty = "other"
)

// RecordType is the sub-classification within a specialty. The set of valid
// types per specialty lives in the taxonomy package; a RecordType value on
// its own says nothing about which specialty it belongs to.
type RecordType string

const (
	TypeConsultation   RecordType = "consultation"
	TypeLaboratory     RecordType = "laboratory"
	TypeImaging        RecordType = "imaging"
	TypePrescription   RecordType = "prescription"
	TypeVaccination    RecordType = "vaccination"
	TypeSurgery        RecordType = "surgery"
	TypeEmergency      RecordType = "emergency"
	TypeAnnualPhysical RecordType = "annual_physical"

	TypePhysioAssessment RecordType = "physio_assessment"
	TypePhysioTreatment  RecordType = "physio_treatment"
	TypeExerciseProgram  RecordType = "exercise_program"

	TypeChiroAssessment RecordType = "chiro_assessment"
	TypeChiroAdjustment RecordType = "chiro_adjustment"

	TypeMassageTherapy RecordType = "massage_therapy"
	TypeSportsMassage  RecordType = "sports_massage"

	TypeTherapySession  RecordType = "therapy_session"
	TypePsychiatricEval RecordType = "psychiatric_eval"

	TypeNutritionConsult  RecordType = "nutrition_consult"
	TypeMealPlan          RecordType = "meal_plan"
	TypeDietaryAssessment RecordType = "dietary_assessment"

	TypeAcupuncture RecordType = "acupuncture"
	TypeNaturopathy RecordType = "naturopathy"

	TypeDentalCheckup   RecordType = "dental_checkup"
	TypeDentalCleaning  RecordType = "dental_cleaning"
	TypeDentalProcedure RecordType = "dental_procedure"
	TypeDentalSurgery   RecordType = "dental_surgery"

	TypeEyeExam        RecordType = "eye_exam"
	TypeContactFitting RecordType = "contact_fitting"
	TypeVisionTest     RecordType = "vision_test"

	TypeGeneralNote RecordType = "general_note"
	TypeDocument    RecordType = "document"
)

// Date is a clinical event date in ISO calendar form ("2006-01-02").
// The representation keeps lexicographic and chronological order identical,
// so dates compare with plain string comparison.
type Date string

const DateLayout = "2006-01-02"

// ParseDate accepts a handful of common submission formats and normalizes
// to ISO calendar form in UTC.
func ParseDate(s string) (Date, error) {
	for _, layout := range []string{DateLayout, time.RFC3339, "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date(t.UTC().Format(DateLayout)), nil
		}
	}
	return "", &time.ParseError{Layout: DateLayout, Value: s, Message: ": unsupported date format"}
}

// Time returns the date as UTC midnight.
func (d Date) Time() time.Time {
	t, _ := time.Parse(DateLayout, string(d))
	return t
}

func (d Date) Before(other Date) bool { return string(d) < string(other) }
func (d Date) After(other Date) bool  { return string(d) > string(other) }

// Today returns the given instant as a Date in UTC.
func Today(now time.Time) Date { return Date(now.UTC().Format(DateLayout)) }

type RecordStatus string

const (
	StatusDraft   RecordStatus = "draft"
	StatusActive  RecordStatus = "active"
	StatusDeleted RecordStatus = "deleted"
)

// Medication is the prescription block of a record's content.
type Medication struct {
	Name      string `json:"name" bson:"name"`
	Dosage    string `json:"dosage,omitempty" bson:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty" bson:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty" bson:"duration,omitempty"`
}

// FollowUp is the follow-up block of a record's content.
type FollowUp struct {
	Required bool   `json:"required" bson:"required"`
	Date     Date   `json:"date,omitempty" bson:"date,omitempty"`
	Notes    string `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Content holds the record-type-dependent sub-fields of a record. The struct
// is sparse: not every field is set for every record type. Extra preserves
// fields the validator did not recognize, so conforming producers round-trip
// without loss.
type Content struct {
	Reason     string         `json:"reason,omitempty" bson:"reason,omitempty"`
	Details    string         `json:"details,omitempty" bson:"details,omitempty"`
	Diagnosis  string         `json:"diagnosis,omitempty" bson:"diagnosis,omitempty"`
	Medication *Medication    `json:"medication,omitempty" bson:"medication,omitempty"`
	FollowUp   *FollowUp      `json:"follow_up,omitempty" bson:"follow_up,omitempty"`
	Extra      map[string]any `json:"extra,omitempty" bson:"extra,omitempty"`
}

// Attachment references a stored file. Records carry only the opaque storage
// reference, never raw bytes.
type Attachment struct {
	Name     string `json:"name" bson:"name"`
	MimeType string `json:"mime_type" bson:"mime_type"`
	Ref      string `json:"ref" bson:"ref"`
}

// Insight is one perspective's narrative reading of a record, shown only in
// Opinion-mode projections.
type Insight struct {
	Summary         string   `json:"summary" bson:"summary"`
	Recommendations []string `json:"recommendations,omitempty" bson:"recommendations,omitempty"`
	Sources         []string `json:"sources,omitempty" bson:"sources,omitempty"`
}

// HealthRecord is the canonical stored shape of a health record. Insights are
// part of the authoritative record only when a perspective has been attached;
// Data-mode projections never include them.
type HealthRecord struct {
	ID                string             `json:"id" bson:"_id"`
	OwnerID           string             `json:"owner_id" bson:"owner_id"`
	Specialty         Specialty          `json:"specialty" bson:"specialty"`
	RecordType        RecordType         `json:"record_type" bson:"record_type"`
	Title             string             `json:"title" bson:"title"`
	Date              Date               `json:"date" bson:"date"`
	Provider          string             `json:"provider,omitempty" bson:"provider,omitempty"`
	Content           Content            `json:"content" bson:"content"`
	Language          string             `json:"language,omitempty" bson:"language,omitempty"`
	OriginalLanguage  string             `json:"original_language,omitempty" bson:"original_language,omitempty"`
	TranslatedDetails string             `json:"translated_details,omitempty" bson:"translated_details,omitempty"`
	Attachments       []Attachment       `json:"attachments,omitempty" bson:"attachments,omitempty"`
	Insights          map[string]Insight `json:"insights,omitempty" bson:"insights,omitempty"`
	Status            RecordStatus       `json:"status" bson:"status"`
	Version           int64              `json:"version" bson:"version"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}

// DisplayDetails returns the text an English-only consumer may render. A
// record in another language with a pending translation renders its original
// details; a translation is never fabricated.
func (r HealthRecord) DisplayDetails() string {
	if r.Language != "" && r.Language != "en" && r.TranslatedDetails != "" {
		return r.TranslatedDetails
	}
	return r.Content.Details
}

// ProviderNote is one append-only entry of provider-authored documentation
// on a shared record.
type ProviderNote struct {
	AuthorID  string    `json:"author_id" bson:"author_id"`
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Share is the time-boxed grant of provider visibility into one record.
type Share struct {
	ID         string         `json:"id" bson:"_id"`
	RecordID   string         `json:"record_id" bson:"record_id"`
	OwnerID    string         `json:"owner_id" bson:"owner_id"`
	ProviderID string         `json:"provider_id" bson:"provider_id"`
	ExpiresAt  time.Time      `json:"expires_at" bson:"expires_at"`
	Revoked    bool           `json:"revoked" bson:"revoked"`
	Notes      []ProviderNote `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt  time.Time      `json:"created_at" bson:"created_at"`
}

type AccessType string

const (
	AccessView  AccessType = "VIEW"
	AccessEdit  AccessType = "EDIT"
	AccessShare AccessType = "SHARE"
)

// AccessLogEntry is one line of the append-only access audit log. Entries are
// never updated or deleted once written.
type AccessLogEntry struct {
	UserID     string     `json:"user_id" bson:"user_id"`
	RecordID   string     `json:"record_id" bson:"record_id"`
	AccessType AccessType `json:"access_type" bson:"access_type"`
	Timestamp  time.Time  `json:"timestamp" bson:"timestamp"`
	DeviceInfo string     `json:"device_info,omitempty" bson:"device_info,omitempty"`
}
