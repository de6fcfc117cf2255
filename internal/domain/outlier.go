package domain

import "math"

// OutlierThreshold is the fixed relative-change threshold. A change of
// exactly 15% is not an outlier; the comparison is strictly greater-than.
const OutlierThreshold = 0.15

// IsOutlier reports whether newWeight deviates from previousWeight by more
// than the fixed threshold. A nil previousWeight never triggers: the
// first-ever entry has nothing to compare against. Stateless; it never
// consults the pending slot.
func IsOutlier(newWeight float64, previousWeight *float64) bool {
	if previousWeight == nil {
		return false
	}
	change := math.Abs(newWeight-*previousWeight) / *previousWeight
	return change > OutlierThreshold
}
