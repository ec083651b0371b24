// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalizer

import (
	"regexp"
	"strings"
)

// specPattern ties a technical parameter to the keyword that must appear
// in the abstract and the value-with-unit expression to capture.
type specPattern struct {
	param   string
	keyword string
	re      *regexp.Regexp
}

// specPatterns covers the parameters aerospace abstracts quote inline.
// Ordered so extraction output is deterministic for a given abstract.
var specPatterns = []specPattern{
	{"efficiency", "efficien", regexp.MustCompile(`(\d+(?:\.\d+)?)\s?%`)},
	{"thrust", "thrust", regexp.MustCompile(`(\d+(?:\.\d+)?)\s?(mN|kN|N)\b`)},
	{"power", "power", regexp.MustCompile(`(\d+(?:\.\d+)?)\s?(kW|MW|W)\b`)},
	{"temperature", "temperatur", regexp.MustCompile(`(\d+(?:\.\d+)?)\s?(K|°C)\b`)},
	{"weight", "weigh", regexp.MustCompile(`(\d+(?:\.\d+)?)\s?(kg|g)\b`)},
	{"size", "diameter", regexp.MustCompile(`(\d+(?:\.\d+)?)\s?(mm|cm|m)\b`)},
	{"specific_impulse", "specific impulse", regexp.MustCompile(`(\d+(?:\.\d+)?)\s?s\b`)},
}

// ExtractSpecs pulls quoted technical parameters out of an abstract. A
// parameter is recorded only when both its keyword and a value with a
// recognized unit appear; the first match wins. Pure function of the
// abstract text.
func ExtractSpecs(abstract string) map[string]string {
	if abstract == "" {
		return nil
	}
	lower := strings.ToLower(abstract)
	var specs map[string]string
	for _, p := range specPatterns {
		if !strings.Contains(lower, p.keyword) {
			continue
		}
		m := p.re.FindStringSubmatch(abstract)
		if m == nil {
			continue
		}
		if specs == nil {
			specs = make(map[string]string)
		}
		value := m[1]
		if len(m) > 2 {
			value += " " + m[2]
		} else {
			value += " %"
		}
		specs[p.param] = value
	}
	return specs
}
