// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import (
	"context"
	"sort"
	"strings"

	"github.com/pdiddy/aero-research/pkg/types"
)

// aerospaceIPCCodes maps the IPC/CPC codes the static extractor can
// nominate to their subject descriptions.
var aerospaceIPCCodes = map[string]string{
	"B64":   "Aircraft, aviation, cosmonautics",
	"B64C":  "Aeroplanes; Helicopters",
	"B64D":  "Equipment for fitting in or to aircraft",
	"B64F":  "Ground or aircraft-carrier-deck installations",
	"B64G":  "Cosmonautics; Vehicles or equipment therefor",
	"F02K":  "Jet propulsion plants",
	"F03H":  "Producing a reactive propulsive thrust",
	"G01C":  "Measuring distances, levels or bearings; Navigation",
	"G01S":  "Radio direction-finding, navigation",
	"G05D1": "Control of position or course in two or three dimensions",
}

// codeTriggers maps query keywords to the codes they suggest. Confidence
// grows with the number of triggering keywords present.
var codeTriggers = map[string][]string{
	"thruster":   {"F03H", "B64G"},
	"propulsion": {"F02K", "F03H"},
	"ion":        {"F03H"},
	"plasma":     {"F03H"},
	"jet":        {"F02K"},
	"engine":     {"F02K"},
	"turbine":    {"F02K"},
	"satellite":  {"B64G"},
	"spacecraft": {"B64G"},
	"orbit":      {"B64G"},
	"reentry":    {"B64G"},
	"launch":     {"B64G", "B64F"},
	"aircraft":   {"B64C", "B64D"},
	"helicopter": {"B64C"},
	"wing":       {"B64C"},
	"avionics":   {"B64D", "G01S"},
	"navigation": {"G01C", "G01S", "G05D1"},
	"radar":      {"G01S"},
	"guidance":   {"G05D1"},
	"autonomous": {"G05D1"},
}

// subsystemTriggers maps query keywords to aerospace subsystem tags.
var subsystemTriggers = map[string]string{
	"thruster":     "propulsion",
	"propulsion":   "propulsion",
	"engine":       "propulsion",
	"ion":          "propulsion",
	"jet":          "propulsion",
	"composite":    "materials",
	"alloy":        "materials",
	"materials":    "materials",
	"aerodynamic":  "aerodynamics",
	"aerodynamics": "aerodynamics",
	"airframe":     "structures",
	"structural":   "structures",
	"structures":   "structures",
	"avionics":     "avionics",
	"navigation":   "avionics",
	"guidance":     "avionics",
	"sensor":       "avionics",
}

// StaticExtractor is a table-driven Extractor: keywords in the query
// nominate classification codes and subsystem tags. It stands in for the
// external extraction collaborator when none is configured and never
// fails.
type StaticExtractor struct{}

// Extract implements Extractor.
func (StaticExtractor) Extract(_ context.Context, text string) (Extraction, error) {
	words := FallbackTerms(text, 8)

	codeHits := make(map[string]int)
	subsystems := make(map[string]bool)
	for _, w := range words {
		for trigger, codes := range codeTriggers {
			if strings.Contains(w, trigger) {
				for _, c := range codes {
					codeHits[c]++
				}
			}
		}
		for trigger, subsystem := range subsystemTriggers {
			if strings.Contains(w, trigger) {
				subsystems[subsystem] = true
			}
		}
	}

	ext := Extraction{Terms: words}

	// Confidence: 0.5 for a single triggering keyword, approaching 1.0
	// as more keywords agree.
	for code, hits := range codeHits {
		conf := 1.0 - 1.0/float64(1+hits)
		ext.Codes = append(ext.Codes, types.ClassCode{Code: code, Confidence: conf})
	}
	sort.Slice(ext.Codes, func(i, j int) bool {
		if ext.Codes[i].Confidence != ext.Codes[j].Confidence {
			return ext.Codes[i].Confidence > ext.Codes[j].Confidence
		}
		return ext.Codes[i].Code < ext.Codes[j].Code
	})

	for s := range subsystems {
		ext.Subsystems = append(ext.Subsystems, s)
	}
	sort.Strings(ext.Subsystems)

	return ext, nil
}

// CodeDescription returns the subject description for a known
// classification code, or "" for unknown codes.
func CodeDescription(code string) string {
	return aerospaceIPCCodes[code]
}
