package services

import "strings"

type locality struct {
	key string
	lat float64
	lng float64
}

// Coordinates of the Atlanta metro localities the collector monitors.
// Ordered so that substring matches resolve deterministically.
var atlantaLocalities = []locality{
	{"atlanta", 33.7490, -84.3880},
	{"sandy springs", 33.9304, -84.3733},
	{"roswell", 34.0232, -84.3616},
	{"alpharetta", 34.0754, -84.2941},
	{"marietta", 33.9525, -84.5499},
	{"decatur", 33.7748, -84.2963},
	{"johns creek", 34.0289, -84.1986},
	{"duluth", 34.0029, -84.1446},
	{"smyrna", 33.8834, -84.5144},
	{"norcross", 33.9412, -84.2135},
	{"peachtree corners", 33.9701, -84.2216},
	{"brookhaven", 33.8595, -84.3369},
	{"dunwoody", 33.9462, -84.3346},
	{"kennesaw", 34.0234, -84.6155},
	{"woodstock", 34.1015, -84.5194},
	{"lawrenceville", 33.9562, -83.9880},
	{"stone mountain", 33.7940, -84.1702},
	{"college park", 33.6534, -84.4494},
	{"east point", 33.6795, -84.4394},
	{"tucker", 33.8545, -84.2171},
}

var regionCandidates = map[string][]string{
	"atlanta": {
		"Atlanta, GA",
		"Sandy Springs, GA",
		"Roswell, GA",
		"Alpharetta, GA",
		"Marietta, GA",
		"Decatur, GA",
		"Johns Creek, GA",
		"Duluth, GA",
		"Smyrna, GA",
		"Norcross, GA",
		"Peachtree Corners, GA",
		"Brookhaven, GA",
		"Dunwoody, GA",
		"Kennesaw, GA",
		"Woodstock, GA",
		"Lawrenceville, GA",
		"Stone Mountain, GA",
		"College Park, GA",
		"East Point, GA",
		"Tucker, GA",
	},
}

// NormalizeLocationKey reduces a free-text location to a lookup key:
// lowercase, trimmed, state suffix dropped ("Atlanta, GA" -> "atlanta").
func NormalizeLocationKey(location string) string {
	key := strings.ToLower(strings.TrimSpace(location))
	if idx := strings.Index(key, ","); idx >= 0 {
		key = key[:idx]
	}
	return strings.TrimSpace(key)
}

// ResolveCoordinates maps a location string to lat/lng. Matching is a
// case-insensitive substring check against the known localities; unknown
// locations fall back to downtown Atlanta.
func ResolveCoordinates(location string) (float64, float64) {
	locationLower := strings.ToLower(location)
	for _, loc := range atlantaLocalities {
		if strings.Contains(locationLower, loc.key) {
			return loc.lat, loc.lng
		}
	}
	return 33.7490, -84.3880
}

// CandidateLocations resolves a region to its fixed candidate-location list.
// Unknown regions fall back to the Atlanta set rather than failing.
func CandidateLocations(region string) []string {
	if locations, ok := regionCandidates[NormalizeLocationKey(region)]; ok {
		return append([]string(nil), locations...)
	}
	return append([]string(nil), regionCandidates["atlanta"]...)
}
