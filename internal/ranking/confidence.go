package ranking

// featureCount is the number of components in a feature vector.
const featureCount = 5

// confidenceFloor is the confidence assigned when every feature fell back
// to the neutral default.
const confidenceFloor = 0.2

// Confidence estimates how much of a feature vector's signal came from
// real data versus neutral defaults, in [0, 1]. A fully populated vector
// scores 1.0; each neutral substitution lowers confidence by an equal
// step down to confidenceFloor. Confidence is a display signal only and
// never gates whether an item appears in the ranked list.
func Confidence(f Features) float64 {
	neutral := f.Neutral
	if neutral <= 0 {
		return 1.0
	}
	if neutral > featureCount {
		neutral = featureCount
	}

	step := (1.0 - confidenceFloor) / featureCount
	return 1.0 - step*float64(neutral)
}
