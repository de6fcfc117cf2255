package domain

import "fmt"

const lbsToKg = 0.453592

// LbsToKg converts pounds to kilograms.
func LbsToKg(lbs float64) float64 {
	return lbs * lbsToKg
}

// KgToLbs converts kilograms to pounds.
func KgToLbs(kg float64) float64 {
	return kg / lbsToKg
}

// ToDisplayUnit converts a stored weight (always lbs) to the display unit.
// Returns the value unchanged for any unit other than "kg".
func ToDisplayUnit(weightLbs float64, displayUnit string) float64 {
	if displayUnit == "kg" {
		return LbsToKg(weightLbs)
	}
	return weightLbs
}

// FromDisplayUnit converts a user-entered weight in the display unit to lbs
// for storage.
func FromDisplayUnit(weight float64, displayUnit string) float64 {
	if displayUnit == "kg" {
		return KgToLbs(weight)
	}
	return weight
}

// FormatWithUnit renders a stored weight in the display unit with one
// fractional digit and a unit suffix, e.g. "185.5 lbs".
func FormatWithUnit(weightLbs float64, displayUnit string) string {
	return fmt.Sprintf("%.1f %s", ToDisplayUnit(weightLbs, displayUnit), displayUnit)
}
