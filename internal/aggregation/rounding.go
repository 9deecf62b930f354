package aggregation

import (
	"math"
	"strconv"
)

// CeilAverage rounds a mean up to the next whole star. The detail view and
// the rating-bucket filter use it, so 4.2 shows as 5 while 4.0 stays 4.
func CeilAverage(mean float64) int {
	return int(math.Ceil(mean))
}

// OneDecimalAverage renders the mean with one decimal and reads it back, the
// form list views carry (3.6667 becomes 3.7).
func OneDecimalAverage(mean float64) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(mean, 'f', 1, 64), 64)
	if err != nil {
		return 0
	}
	return v
}
