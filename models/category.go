package models

// RightsCategory is one entry of the fixed report taxonomy.
type RightsCategory string

const (
	CategoryAsylum           RightsCategory = "asylum"
	CategoryDocumentation    RightsCategory = "documentation"
	CategoryEducation        RightsCategory = "education"
	CategoryFamilyLife       RightsCategory = "family_life"
	CategoryFreedomMovement  RightsCategory = "freedom_movement"
	CategoryHealth           RightsCategory = "health"
	CategoryHousing          RightsCategory = "housing"
	CategoryLibertySecurity  RightsCategory = "liberty_security"
	CategoryNationality      RightsCategory = "nationality"
	CategorySocialProtection RightsCategory = "social_protection"
	CategoryWork             RightsCategory = "work"
)

// AllCategories lists the taxonomy in report order.
func AllCategories() []RightsCategory {
	return []RightsCategory{
		CategoryAsylum,
		CategoryDocumentation,
		CategoryEducation,
		CategoryFamilyLife,
		CategoryFreedomMovement,
		CategoryHealth,
		CategoryHousing,
		CategoryLibertySecurity,
		CategoryNationality,
		CategorySocialProtection,
		CategoryWork,
	}
}

// Title returns the human-readable report heading for a category.
func (c RightsCategory) Title() string {
	titles := map[RightsCategory]string{
		CategoryAsylum:           "Right to Asylum and International Protection",
		CategoryDocumentation:    "Right to Identity and Status Documentation",
		CategoryEducation:        "Right to Education",
		CategoryFamilyLife:       "Right to Family Life and Family Unity",
		CategoryFreedomMovement:  "Freedom of Movement",
		CategoryHealth:           "Right to Health and Medical Care",
		CategoryHousing:          "Right to Adequate Housing",
		CategoryLibertySecurity:  "Right to Liberty and Security of Person",
		CategoryNationality:      "Right to a Nationality",
		CategorySocialProtection: "Right to Social Protection",
		CategoryWork:             "Right to Work",
	}
	if title, ok := titles[c]; ok {
		return title
	}
	return "Right: " + string(c)
}

// Applicable reports whether this category should be analyzed for the given
// case. Asylum is the baseline category and applies to every case; the rest
// gate on the case's extracted facts.
func (c RightsCategory) Applicable(cs *Case) bool {
	switch c {
	case CategoryAsylum:
		return true
	case CategoryDocumentation:
		return len(cs.DocumentationGaps) > 0
	case CategoryEducation:
		return cs.HasMinorChildren || cs.EducationNeeds != ""
	case CategoryFamilyLife:
		return len(cs.FamilyMembers) > 0
	case CategoryFreedomMovement:
		return cs.MovementRestricted
	case CategoryHealth:
		return len(cs.MedicalNeeds) > 0
	case CategoryHousing:
		return cs.HousingSituation != ""
	case CategoryLibertySecurity:
		return cs.DetentionHistory != ""
	case CategoryNationality:
		return cs.Stateless
	case CategorySocialProtection:
		return len(cs.SocialSupportNeeds) > 0
	case CategoryWork:
		return cs.EmploymentStatus != "" || cs.SeeksWorkAuthorization
	default:
		return false
	}
}

// ApplicableCategories returns the subset of the taxonomy whose predicate the
// case satisfies, in report order. The baseline category is always present.
func ApplicableCategories(cs *Case) []RightsCategory {
	var out []RightsCategory
	for _, c := range AllCategories() {
		if c.Applicable(cs) {
			out = append(out, c)
		}
	}
	return out
}
