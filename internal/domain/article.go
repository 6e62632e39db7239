package domain

import "time"

// Article categories accepted by the articles table CHECK constraint
var ArticleCategories = []string{
	"depression",
	"anxiety",
	"stress",
	"self-care",
	"mindfulness",
	"general",
}

// IsValidCategory reports whether c is one of ArticleCategories
func IsValidCategory(c string) bool {
	for _, v := range ArticleCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Article Model
type Article struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                                                                                     // Primary key
	Title     string    `gorm:"size:255;uniqueIndex;not null" json:"title"`                                                                               // Unique title, upsert key for imports
	Author    string    `gorm:"size:120" json:"author"`                                                                                                   // Author name
	Article   string    `gorm:"type:text;not null" json:"article"`                                                                                        // Body text
	Date      time.Time `json:"date"`                                                                                                                     // Publication date
	Category  string    `gorm:"size:32;not null;check:category IN ('depression','anxiety','stress','self-care','mindfulness','general')" json:"category"` // Category
	CreatedAt time.Time `json:"created_at"`                                                                                                               // Row creation time
	UpdatedAt time.Time `json:"updated_at"`                                                                                                               // Last update time
}
