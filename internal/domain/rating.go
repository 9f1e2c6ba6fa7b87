package domain

import "math"

// AverageRating returns the mean of notes rounded half-up to one decimal place.
// A book without feedback is rated 0.
func AverageRating(notes []float64) float64 {
	if len(notes) == 0 {
		return 0.0
	}
	var sum float64
	for _, n := range notes {
		sum += n
	}
	mean := sum / float64(len(notes))
	return math.Floor(mean*10+0.5) / 10
}
