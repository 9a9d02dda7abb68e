package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLabels checks label order and size
func TestLabels(t *testing.T) {
	lbls := Labels()
	require.Len(t, lbls, 12)
	assert.Equal(t, "battery", lbls[0])
	assert.Equal(t, "white-glass", lbls[11])

	// callers can not alter our list
	lbls[0] = "bla"
	assert.Equal(t, "battery", Labels()[0])
}

// TestRecommendations checks lookup for every known label
func TestRecommendations(t *testing.T) {
	for _, label := range Labels() {
		recs := Recommendations(label)
		assert.Len(t, recs, 3, "label %s", label)
		for _, r := range recs {
			assert.NotEmpty(t, r)
		}
		assert.True(t, IsLabel(label))
	}
	assert.Equal(t, "Do not throw them in household trash.", Recommendations("battery")[1])
}

// TestRecommendationsFallback checks lookup of unknown labels
func TestRecommendationsFallback(t *testing.T) {
	for _, label := range []string{"", "glass", "Battery", "unknown"} {
		assert.Equal(t, []string{FallbackRecommendation}, Recommendations(label))
		assert.False(t, IsLabel(label))
	}
}

// TestResources checks country resource blocks
func TestResources(t *testing.T) {
	assert.Equal(t, []string{"Egypt", "UAE", "Kenya", "India", "Other"}, Countries())
	for _, country := range Countries() {
		assert.NotEmpty(t, Resources(country), country)
	}
	kenya := Resources("Kenya")
	assert.True(t, strings.HasPrefix(kenya, "🇰🇪 **Kenya Green Solutions**"))
	assert.Contains(t, kenya, "[Mr. Green Africa](https://mrgreenafrica.com)")
	assert.Contains(t, kenya, "**Kilimani** and **Westlands**")

	// unlisted countries get global block
	assert.Equal(t, Resources("Other"), Resources("France"))
	assert.Equal(t, Resources("Other"), Resources(""))
	assert.Contains(t, Resources("France"), "Global Tips")
}

// TestMapSearchURL checks map search link construction
func TestMapSearchURL(t *testing.T) {
	tests := map[string]string{
		"Kenya":        MapSearchBase + "Kenya",
		"South Africa": MapSearchBase + "South+Africa",
		"A&B":          MapSearchBase + "A%26B",
		" India ":      MapSearchBase + "India",
	}
	for country, expect := range tests {
		assert.Equal(t, expect, MapSearchURL(country))
	}
}

// TestTitle checks label display form
func TestTitle(t *testing.T) {
	assert.Equal(t, "Brown-glass", Title("brown-glass"))
	assert.Equal(t, "Metal", Title("metal"))
	assert.Equal(t, "", Title(""))
}
