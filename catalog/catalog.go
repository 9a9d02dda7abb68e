package catalog

// catalog module holds static recycling data: material labels, recycling
// recommendations and region specific resource blocks
//
// Copyright (c) 2025 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"embed"
	"fmt"
	"net/url"
	"strings"
)

// FallbackRecommendation is returned for labels we do not know about
const FallbackRecommendation = "No specific recommendations available."

// DefaultCountry represents country whose resource block is used for
// all countries we do not have specific data for
const DefaultCountry = "Other"

// MapSearchBase is base URL of map search query
const MapSearchBase = "https://www.google.com/maps/search/recycling+centers+in+"

// labels defines ordered list of materials, index i of classifier output
// must correspond to labels[i]
var labels = []string{
	"battery",
	"biological",
	"brown-glass",
	"cardboard",
	"clothes",
	"green-glass",
	"metal",
	"paper",
	"plastic",
	"shoes",
	"trash",
	"white-glass",
}

var recommendations = map[string][]string{
	"battery": {
		"Keep used batteries in a sealed container.",
		"Do not throw them in household trash.",
		"Take them to an electronic or battery recycling point.",
	},
	"biological": {
		"Compost organic waste like food scraps and leaves.",
		"Avoid mixing biological waste with plastics.",
		"Use closed compost bins to prevent odor.",
	},
	"brown-glass": {
		"Rinse and separate from other glass colors.",
		"Do not mix brown with clear or green glass.",
		"Deliver to brown-glass recycling bins.",
	},
	"cardboard": {
		"Flatten boxes before recycling to save space.",
		"Keep them dry and free of grease or food stains.",
		"Reuse for storage or crafts if clean.",
	},
	"clothes": {
		"Donate wearable clothes to charity.",
		"Repurpose old fabrics into cleaning rags.",
		"Avoid burning textile waste.",
	},
	"green-glass": {
		"Rinse and separate from clear or brown glass.",
		"Reuse as vases or jars if safe.",
		"Deliver to glass recycling centers.",
	},
	"metal": {
		"Rinse cans and avoid mixing metals.",
		"Flatten or crush large cans.",
		"Donate scrap metal to recycling facilities.",
	},
	"paper": {
		"Separate dry and wet paper.",
		"Reuse for crafts, packaging, or notes.",
		"Recycle if too torn or dirty.",
	},
	"plastic": {
		"Clean and remove labels or caps.",
		"Use for DIY crafts like planters.",
		"Make eco-bricks with clean soft plastics.",
	},
	"shoes": {
		"Donate wearable shoes to NGOs.",
		"Repurpose old ones for planters or décor.",
		"Recycle materials at textile collection points.",
	},
	"trash": {
		"Avoid burning mixed trash.",
		"Try to separate recyclable materials first.",
		"Dispose of non-recyclables responsibly.",
	},
	"white-glass": {
		"Rinse and separate from colored glass.",
		"Handle with care to avoid breakage.",
		"Recycle at glass drop-off stations.",
	},
}

// countries defines ordered list of countries we provide resources for,
// file names are lower case country names within resources area
var countries = []string{"Egypt", "UAE", "Kenya", "India", DefaultCountry}

//go:embed resources/*.md
var resourcesFS embed.FS

// resources holds markdown blocks keyed by country name
var resources = loadResources()

// helper function to read all country resource blocks from embedded area
func loadResources() map[string]string {
	rmap := make(map[string]string, len(countries))
	for _, country := range countries {
		fname := fmt.Sprintf("resources/%s.md", strings.ToLower(country))
		data, err := resourcesFS.ReadFile(fname)
		if err != nil {
			panic(fmt.Sprintf("missing resource block for %s: %v", country, err))
		}
		rmap[country] = string(data)
	}
	return rmap
}

// Labels returns ordered list of material labels
func Labels() []string {
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// IsLabel checks if given label belongs to our label set
func IsLabel(label string) bool {
	_, ok := recommendations[label]
	return ok
}

// Recommendations returns ordered list of recycling tips for given label.
// For unknown labels it returns single element fallback list.
func Recommendations(label string) []string {
	recs, ok := recommendations[label]
	if !ok {
		return []string{FallbackRecommendation}
	}
	out := make([]string, len(recs))
	copy(out, recs)
	return out
}

// Countries returns ordered list of supported countries
func Countries() []string {
	out := make([]string, len(countries))
	copy(out, countries)
	return out
}

// Resources returns markdown resource block for given country,
// unknown countries get the global block
func Resources(country string) string {
	if block, ok := resources[country]; ok {
		return block
	}
	return resources[DefaultCountry]
}

// MapSearchURL returns map search link for recycling centers in given country
func MapSearchURL(country string) string {
	// QueryEscape replaces spaces with '+'
	return MapSearchBase + url.QueryEscape(strings.TrimSpace(country))
}

// Title returns display form of the label, e.g. brown-glass -> Brown-glass
func Title(label string) string {
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
