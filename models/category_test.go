package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicableCategories_BaselineAlwaysPresent(t *testing.T) {
	cs := &Case{}

	categories := ApplicableCategories(cs)
	require.Len(t, categories, 1)
	assert.Equal(t, CategoryAsylum, categories[0])
}

func TestApplicableCategories_FactsGateCategories(t *testing.T) {
	cs := &Case{
		MedicalNeeds: StringList{"diabetes treatment"},
	}

	categories := ApplicableCategories(cs)
	assert.Contains(t, categories, CategoryAsylum)
	assert.Contains(t, categories, CategoryHealth)
	assert.NotContains(t, categories, CategoryEducation)
	assert.NotContains(t, categories, CategoryFamilyLife)
	assert.NotContains(t, categories, CategoryWork)
}

func TestApplicable_PerCategoryPredicates(t *testing.T) {
	tests := []struct {
		name     string
		category RightsCategory
		cs       *Case
		want     bool
	}{
		{"documentation gates on gaps", CategoryDocumentation, &Case{DocumentationGaps: StringList{"no passport"}}, true},
		{"documentation off without gaps", CategoryDocumentation, &Case{}, false},
		{"education via minor children", CategoryEducation, &Case{HasMinorChildren: true}, true},
		{"education via stated needs", CategoryEducation, &Case{EducationNeeds: "university enrollment"}, true},
		{"family life gates on members", CategoryFamilyLife, &Case{FamilyMembers: StringList{"spouse abroad"}}, true},
		{"freedom of movement gates on restriction", CategoryFreedomMovement, &Case{MovementRestricted: true}, true},
		{"housing gates on situation", CategoryHousing, &Case{HousingSituation: "emergency shelter"}, true},
		{"liberty gates on detention history", CategoryLibertySecurity, &Case{DetentionHistory: "detained at border"}, true},
		{"nationality gates on statelessness", CategoryNationality, &Case{Stateless: true}, true},
		{"social protection gates on needs", CategorySocialProtection, &Case{SocialSupportNeeds: StringList{"food assistance"}}, true},
		{"work via employment status", CategoryWork, &Case{EmploymentStatus: "informal work"}, true},
		{"work via authorization request", CategoryWork, &Case{SeeksWorkAuthorization: true}, true},
		{"work off otherwise", CategoryWork, &Case{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.category.Applicable(tt.cs))
		})
	}
}

func TestApplicableCategories_ReportOrder(t *testing.T) {
	cs := &Case{
		MedicalNeeds:     StringList{"asthma"},
		HasMinorChildren: true,
		Stateless:        true,
	}

	categories := ApplicableCategories(cs)
	require.Equal(t, []RightsCategory{
		CategoryAsylum,
		CategoryEducation,
		CategoryHealth,
		CategoryNationality,
	}, categories)
}

func TestConfidence_Valid(t *testing.T) {
	assert.True(t, ConfidenceLow.Valid())
	assert.True(t, ConfidenceMedium.Valid())
	assert.True(t, ConfidenceHigh.Valid())
	assert.False(t, Confidence("certain").Valid())
	assert.False(t, Confidence("").Valid())
}

func TestTitle_CoversWholeTaxonomy(t *testing.T) {
	for _, c := range AllCategories() {
		assert.NotEmpty(t, c.Title())
		assert.NotContains(t, c.Title(), "Right: ", "every taxonomy entry has an explicit title")
	}
}
