package scoring

// Severity labels produced by Fallback.
const (
	ClassNormal   = "Normal"
	ClassMild     = "Mild"
	ClassModerate = "Moderate"
	ClassSevere   = "Severe"
)

// Fallback classifies by the answer sum alone. Confidence is always 0 so
// heuristic results are distinguishable from model output.
func Fallback(answers []int) Prediction {
	total := 0
	for _, v := range answers {
		total += v
	}
	return Prediction{FinalClass: ClassForScore(total), Confidence: 0}
}

// ClassForScore maps an SRQ-20 sum onto a severity label.
func ClassForScore(total int) string {
	switch {
	case total <= 5:
		return ClassNormal
	case total <= 7:
		return ClassMild
	case total <= 13:
		return ClassModerate
	default:
		return ClassSevere
	}
}
