package review

// Severity represents the severity level of a review comment.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// ValidSeverity reports whether s is a recognized severity value.
func ValidSeverity(s Severity) bool {
	return SeverityRank(s) > 0
}

// Category classifies what kind of issue a comment raises.
type Category string

const (
	CategoryAccessibility   Category = "accessibility"
	CategoryBug             Category = "bug"
	CategoryQuality         Category = "quality"
	CategoryMaintainability Category = "maintainability"
	CategoryStyle           Category = "style"
)

// ValidCategory reports whether c is a recognized category. The empty
// category is valid: accessibility replies identify issues by WCAG criterion
// rather than category.
func ValidCategory(c Category) bool {
	switch c {
	case "", CategoryAccessibility, CategoryBug, CategoryQuality,
		CategoryMaintainability, CategoryStyle:
		return true
	default:
		return false
	}
}

// Type selects the review instructions sent to the model.
type Type string

const (
	TypeAccessibility Type = "accessibility"
	TypeCodeReview    Type = "code_review"
)

// ParseType validates a review type string.
func ParseType(s string) (Type, bool) {
	switch Type(s) {
	case TypeAccessibility, TypeCodeReview:
		return Type(s), true
	default:
		return "", false
	}
}

// Comment is one validated review comment from the model. Line 0 means the
// comment applies to the whole file. Criterion holds the WCAG clause
// ("1.1.1") for accessibility findings and is empty otherwise; its JSON name
// wcag_criteria matches the wire contract with the model and downstream
// consumers.
type Comment struct {
	File       string   `json:"file"`
	Line       int      `json:"line,omitempty"`
	Issue      string   `json:"issue"`
	Suggestion string   `json:"suggestion"`
	Severity   Severity `json:"severity"`
	Category   Category `json:"category,omitempty"`
	Criterion  string   `json:"wcag_criteria,omitempty"`
}

// FileLevel reports whether the comment applies to the whole file.
func (c Comment) FileLevel() bool { return c.Line <= 0 }

// SeverityCounts holds comment counts by severity level.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Total returns the sum across all severities.
func (s SeverityCounts) Total() int {
	return s.Critical + s.High + s.Medium + s.Low
}

// CountBySeverity computes the severity histogram over comments.
func CountBySeverity(comments []Comment) SeverityCounts {
	var s SeverityCounts
	for _, c := range comments {
		switch c.Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		}
	}
	return s
}
