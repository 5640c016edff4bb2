// Package screening classifies child growth measurements into malnutrition
// alerts. Pure functions, no state.
package screening

import "strings"

// WHO-derived MUAC cutoffs in cm.
const (
	muacSevere = 11.5
	muacHigh   = 12.5
	lowWeight  = 5.0
)

// Screen returns a combined alert string for the given measurements, or ""
// when nothing needs attention. Weight in kg, height and MUAC in cm.
func Screen(weight, height, muac float64) string {
	var alerts []string

	if muac < muacSevere {
		alerts = append(alerts, "SEVERE malnutrition risk (MUAC < 11.5 cm) - IMMEDIATE medical attention needed")
	} else if muac < muacHigh {
		alerts = append(alerts, "HIGH malnutrition risk (MUAC < 12.5 cm) - Visit health facility soon")
	}

	if weight < lowWeight {
		alerts = append(alerts, "Low weight detected - Consider nutritional assessment")
	}

	return strings.Join(alerts, ". ")
}
