package contest

import "strings"

// Section is a contest scoring region keyed by its exchange code. Area
// groups sections by call district and drives the map tile layout.
type Section struct {
	Code string
	Area string
}

var sectionAreas = []struct {
	area  string
	codes []string
}{
	{"1", []string{"CT", "EMA", "ME", "NH", "RI", "VT", "WMA"}},
	{"2", []string{"ENY", "NLI", "NNJ", "NNY", "SNJ", "WNY"}},
	{"3", []string{"DE", "EPA", "MDC", "WPA"}},
	{"4", []string{"AL", "GA", "KY", "NC", "NFL", "PR", "SC", "SFL", "TN", "VA", "VI", "WCF"}},
	{"5", []string{"AR", "LA", "MS", "NM", "NTX", "OK", "STX", "WTX"}},
	{"6", []string{"EB", "LAX", "ORG", "PAC", "SB", "SCV", "SDG", "SF", "SJV", "SV"}},
	{"7", []string{"AK", "AZ", "EWA", "ID", "MT", "NV", "OR", "UT", "WWA", "WY"}},
	{"8", []string{"MI", "OH", "WV"}},
	{"9", []string{"IL", "IN", "WI"}},
	{"0", []string{"CO", "IA", "KS", "MN", "MO", "ND", "NE", "SD"}},
	{"VE", []string{"AB", "BC", "GH", "MB", "NB", "NL", "NS", "ONE", "ONN", "ONS", "PE", "QC", "SK", "TER"}},
}

// DefaultSections returns the ARRL/RAC section set in area order.
func DefaultSections() []Section {
	var out []Section
	for _, group := range sectionAreas {
		for _, code := range group.codes {
			out = append(out, Section{Code: code, Area: group.area})
		}
	}
	return out
}

// SectionsFromCodes builds a known-section set from configured codes,
// keeping the default area for codes it knows and "DX" for the rest.
// Duplicates and blanks are dropped.
func SectionsFromCodes(codes []string) []Section {
	areas := make(map[string]string)
	for _, s := range DefaultSections() {
		areas[s.Code] = s.Area
	}
	seen := make(map[string]bool, len(codes))
	out := make([]Section, 0, len(codes))
	for _, raw := range codes {
		code := NormalizeSection(raw)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		area, ok := areas[code]
		if !ok {
			area = "DX"
		}
		out = append(out, Section{Code: code, Area: area})
	}
	return out
}

// NormalizeSection trims and upper-cases a logged section code.
func NormalizeSection(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeCall trims and upper-cases a callsign or operator token.
func NormalizeCall(call string) string {
	return strings.ToUpper(strings.TrimSpace(call))
}
