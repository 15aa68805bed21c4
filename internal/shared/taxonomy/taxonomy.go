// Package taxonomy is the closed specialty/record-type vocabulary. One table,
// keyed by record type, carries both the validity mapping and the display
// metadata so the two can never drift apart.
package taxonomy

import (
	"strings"

	"healthvault/internal/shared/models"
)

// Meta is everything the system knows about one record type.
type Meta struct {
	Specialty   models.Specialty
	Label       string
	ColorToken  string
	Icon        string
	Appointment bool     // future-looking type, scheduled rather than retrospective
	Required    []string // content fields a complete record of this type carries
}

var table = map[models.RecordType]Meta{
	models.TypeConsultation:   {models.SpecialtyMedical, "Consultation", "blue", "stethoscope", true, []string{"reason"}},
	models.TypeLaboratory:     {models.SpecialtyMedical, "Laboratory", "purple", "flask", false, []string{"details"}},
	models.TypeImaging:        {models.SpecialtyMedical, "Imaging", "indigo", "scan", false, []string{"details"}},
	models.TypePrescription:   {models.SpecialtyMedical, "Prescription", "green", "pill", false, []string{"medication"}},
	models.TypeVaccination:    {models.SpecialtyMedical, "Vaccination", "teal", "syringe", false, nil},
	models.TypeSurgery:        {models.SpecialtyMedical, "Surgery", "red", "scalpel", false, []string{"details"}},
	models.TypeEmergency:      {models.SpecialtyMedical, "Emergency", "red", "siren", false, []string{"reason"}},
	models.TypeAnnualPhysical: {models.SpecialtyMedical, "Annual Physical", "blue", "clipboard", true, nil},

	models.TypePhysioAssessment: {models.SpecialtyPhysiotherapy, "Physio Assessment", "orange", "activity", true, nil},
	models.TypePhysioTreatment:  {models.SpecialtyPhysiotherapy, "Physio Treatment", "orange", "activity", false, []string{"details"}},
	models.TypeExerciseProgram:  {models.SpecialtyPhysiotherapy, "Exercise Program", "amber", "dumbbell", false, nil},

	models.TypeChiroAssessment: {models.SpecialtyChiropractic, "Chiro Assessment", "lime", "spine", true, nil},
	models.TypeChiroAdjustment: {models.SpecialtyChiropractic, "Chiro Adjustment", "lime", "spine", false, nil},

	models.TypeMassageTherapy: {models.SpecialtyMassage, "Massage Therapy", "rose", "hands", false, nil},
	models.TypeSportsMassage:  {models.SpecialtyMassage, "Sports Massage", "rose", "hands", false, nil},

	models.TypeTherapySession:  {models.SpecialtyMentalHealth, "Therapy Session", "cyan", "brain", true, nil},
	models.TypePsychiatricEval: {models.SpecialtyMentalHealth, "Psychiatric Eval", "cyan", "brain", false, []string{"details"}},

	models.TypeNutritionConsult:  {models.SpecialtyNutrition, "Nutrition Consult", "emerald", "apple", true, nil},
	models.TypeMealPlan:          {models.SpecialtyNutrition, "Meal Plan", "emerald", "utensils", false, nil},
	models.TypeDietaryAssessment: {models.SpecialtyNutrition, "Dietary Assessment", "emerald", "apple", false, nil},

	models.TypeAcupuncture: {models.SpecialtyAlternative, "Acupuncture", "violet", "needle", false, nil},
	models.TypeNaturopathy: {models.SpecialtyAlternative, "Naturopathy", "violet", "leaf", false, nil},

	models.TypeDentalCheckup:   {models.SpecialtyDentistry, "Dental Checkup", "sky", "tooth", true, nil},
	models.TypeDentalCleaning:  {models.SpecialtyDentistry, "Dental Cleaning", "sky", "tooth", false, nil},
	models.TypeDentalProcedure: {models.SpecialtyDentistry, "Dental Procedure", "sky", "tooth", false, []string{"details"}},
	models.TypeDentalSurgery:   {models.SpecialtyDentistry, "Dental Surgery", "sky", "tooth", false, []string{"details"}},

	models.TypeEyeExam:        {models.SpecialtyOptometry, "Eye Exam", "yellow", "eye", true, nil},
	models.TypeContactFitting: {models.SpecialtyOptometry, "Contact Fitting", "yellow", "eye", false, nil},
	models.TypeVisionTest:     {models.SpecialtyOptometry, "Vision Test", "yellow", "eye", false, nil},

	models.TypeGeneralNote: {models.SpecialtyOther, "General Note", "gray", "note", false, nil},
	models.TypeDocument:    {models.SpecialtyOther, "Document", "gray", "file", false, nil},
}

// typeOrder fixes the enumeration order of ValidTypesFor, since map iteration
// order would differ between calls.
var typeOrder = []models.RecordType{
	models.TypeConsultation, models.TypeLaboratory, models.TypeImaging,
	models.TypePrescription, models.TypeVaccination, models.TypeSurgery,
	models.TypeEmergency, models.TypeAnnualPhysical,
	models.TypePhysioAssessment, models.TypePhysioTreatment, models.TypeExerciseProgram,
	models.TypeChiroAssessment, models.TypeChiroAdjustment,
	models.TypeMassageTherapy, models.TypeSportsMassage,
	models.TypeTherapySession, models.TypePsychiatricEval,
	models.TypeNutritionConsult, models.TypeMealPlan, models.TypeDietaryAssessment,
	models.TypeAcupuncture, models.TypeNaturopathy,
	models.TypeDentalCheckup, models.TypeDentalCleaning, models.TypeDentalProcedure,
	models.TypeDentalSurgery,
	models.TypeEyeExam, models.TypeContactFitting, models.TypeVisionTest,
	models.TypeGeneralNote, models.TypeDocument,
}

// Specialties returns the closed specialty enumeration.
func Specialties() []models.Specialty {
	return []models.Specialty{
		models.SpecialtyMedical, models.SpecialtyPhysiotherapy,
		models.SpecialtyChiropractic, models.SpecialtyMassage,
		models.SpecialtyMentalHealth, models.SpecialtyNutrition,
		models.SpecialtyAlternative, models.SpecialtyDentistry,
		models.SpecialtyOptometry, models.SpecialtyOther,
	}
}

// ValidSpecialty reports whether s is in the closed enumeration.
func ValidSpecialty(s models.Specialty) bool {
	for _, known := range Specialties() {
		if known == s {
			return true
		}
	}
	return false
}

// ValidTypesFor returns the record types valid for a specialty, in stable
// order. Unknown specialties yield nil.
func ValidTypesFor(s models.Specialty) []models.RecordType {
	var out []models.RecordType
	for _, t := range typeOrder {
		if table[t].Specialty == s {
			out = append(out, t)
		}
	}
	return out
}

// ValidType reports whether t is a valid record type for specialty s.
func ValidType(s models.Specialty, t models.RecordType) bool {
	meta, ok := table[t]
	return ok && meta.Specialty == s
}

// SpecialtyOf returns the specialty a record type belongs to.
func SpecialtyOf(t models.RecordType) (models.Specialty, bool) {
	meta, ok := table[t]
	return meta.Specialty, ok
}

// DisplayMeta returns label, color token and icon for a record type. For an
// unrecognized type it falls back to a formatted version of the raw token
// with neutral styling, rather than failing.
func DisplayMeta(t models.RecordType) Meta {
	if meta, ok := table[t]; ok {
		return meta
	}
	return Meta{Label: FormatLabel(string(t)), ColorToken: "gray", Icon: "note"}
}

// IsAppointment reports whether a record type is appointment-style, i.e.
// scheduled and future-looking rather than retrospective.
func IsAppointment(t models.RecordType) bool {
	return table[t].Appointment
}

// RequiredFields returns the content fields a complete record of this type
// is expected to carry.
func RequiredFields(t models.RecordType) []string {
	return table[t].Required
}

// FormatRecordType renders a record type token as a human label, preferring
// the table entry and falling back to mechanical formatting of the raw token.
func FormatRecordType(t models.RecordType) string {
	if meta, ok := table[t]; ok {
		return meta.Label
	}
	return FormatLabel(string(t))
}

// FormatLabel converts a snake_case token to a capitalized label,
// "eye_exam" -> "Eye Exam". Total over all input strings.
func FormatLabel(token string) string {
	words := strings.Split(token, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
