package scoring

import (
	"errors"  // Error values
	"fmt"     // Formatting
	"strings" // String manipulation

	"srq_assessment/internal/domain" // Domain models

	"golang.org/x/text/cases" // Unicode case mapping
)

// Validation errors
var (
	ErrAnswerCount   = errors.New("exactly 20 answers are required")
	ErrAnswerValue   = errors.New("answers must be 0 or 1")
	ErrTotalScore    = errors.New("total_score does not match the submitted answers")
	ErrInvalidAge    = errors.New("age must be between 1 and 120")
	ErrInvalidGender = errors.New("gender must be male, female or other")
)

var fold = cases.Fold()

// ValidateAnswers checks the answer vector and returns its sum.
func ValidateAnswers(answers []int) (int, error) {
	if len(answers) != domain.QuestionCount {
		return 0, fmt.Errorf("%w, got %d", ErrAnswerCount, len(answers))
	}
	total := 0
	for i, v := range answers {
		if v != 0 && v != 1 {
			return 0, fmt.Errorf("%w (question %d)", ErrAnswerValue, i+1)
		}
		total += v
	}
	return total, nil
}

// NormalizeGender folds common spellings onto male, female or other.
func NormalizeGender(g string) (string, error) {
	switch fold.String(strings.TrimSpace(g)) {
	case "male", "m", "man", "laki-laki", "pria":
		return "male", nil
	case "female", "f", "woman", "perempuan", "wanita":
		return "female", nil
	case "other", "o", "non-binary", "nonbinary":
		return "other", nil
	}
	return "", ErrInvalidGender
}

// ValidateAge bounds the respondent age.
func ValidateAge(age int) error {
	if age < 1 || age > 120 {
		return ErrInvalidAge
	}
	return nil
}
