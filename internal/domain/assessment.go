package domain

import "time"

// QuestionCount is the number of SRQ-20 items
const QuestionCount = 20

// Result sources
const (
	SourceModel    = "model"    // Scored by the prediction service
	SourceFallback = "fallback" // Scored by the local threshold heuristic
	SourceClient   = "client"   // Class supplied by the client
)

// AssessmentResult Model
type AssessmentResult struct {
	ID         uint      `gorm:"primaryKey" json:"id"`                    // Primary key
	UserID     uint      `gorm:"index;not null" json:"user_id"`           // Foreign key to User
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"` // Owner, preloaded on admin listings
	Age        int       `gorm:"not null" json:"age"`                     // Respondent age
	Gender     string    `gorm:"size:16;not null" json:"gender"`          // male, female or other
	Q1         int       `gorm:"column:q1;not null" json:"q1"`
	Q2         int       `gorm:"column:q2;not null" json:"q2"`
	Q3         int       `gorm:"column:q3;not null" json:"q3"`
	Q4         int       `gorm:"column:q4;not null" json:"q4"`
	Q5         int       `gorm:"column:q5;not null" json:"q5"`
	Q6         int       `gorm:"column:q6;not null" json:"q6"`
	Q7         int       `gorm:"column:q7;not null" json:"q7"`
	Q8         int       `gorm:"column:q8;not null" json:"q8"`
	Q9         int       `gorm:"column:q9;not null" json:"q9"`
	Q10        int       `gorm:"column:q10;not null" json:"q10"`
	Q11        int       `gorm:"column:q11;not null" json:"q11"`
	Q12        int       `gorm:"column:q12;not null" json:"q12"`
	Q13        int       `gorm:"column:q13;not null" json:"q13"`
	Q14        int       `gorm:"column:q14;not null" json:"q14"`
	Q15        int       `gorm:"column:q15;not null" json:"q15"`
	Q16        int       `gorm:"column:q16;not null" json:"q16"`
	Q17        int       `gorm:"column:q17;not null" json:"q17"`
	Q18        int       `gorm:"column:q18;not null" json:"q18"`
	Q19        int       `gorm:"column:q19;not null" json:"q19"`
	Q20        int       `gorm:"column:q20;not null" json:"q20"`
	TotalScore int       `gorm:"not null" json:"total_score"`                  // Sum of q1..q20
	FinalClass string    `gorm:"size:64;index;not null" json:"final_class"`    // Severity label
	Confidence float64   `gorm:"not null;default:0" json:"confidence"`         // Probability-like score
	Source     string    `gorm:"size:16;not null;default:model" json:"source"` // Who produced FinalClass
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                      // Submission time
}

// TableName overrides the default table name
func (AssessmentResult) TableName() string {
	return "assessment_results"
}

// Answers returns q1..q20 in order
func (a *AssessmentResult) Answers() []int {
	return []int{
		a.Q1, a.Q2, a.Q3, a.Q4, a.Q5, a.Q6, a.Q7, a.Q8, a.Q9, a.Q10,
		a.Q11, a.Q12, a.Q13, a.Q14, a.Q15, a.Q16, a.Q17, a.Q18, a.Q19, a.Q20,
	}
}

// SetAnswers copies answers positionally into q1..q20 and recomputes TotalScore.
// It panics if len(answers) != QuestionCount; callers validate first.
func (a *AssessmentResult) SetAnswers(answers []int) {
	if len(answers) != QuestionCount {
		panic("domain: SetAnswers needs exactly 20 answers")
	}
	dst := []*int{
		&a.Q1, &a.Q2, &a.Q3, &a.Q4, &a.Q5, &a.Q6, &a.Q7, &a.Q8, &a.Q9, &a.Q10,
		&a.Q11, &a.Q12, &a.Q13, &a.Q14, &a.Q15, &a.Q16, &a.Q17, &a.Q18, &a.Q19, &a.Q20,
	}
	total := 0
	for i, v := range answers {
		*dst[i] = v
		total += v
	}
	a.TotalScore = total
}
