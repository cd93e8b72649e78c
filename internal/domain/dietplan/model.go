package dietplan

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Goals
const (
	GoalWeightLoss  = "weight_loss"
	GoalMuscleGain  = "muscle_gain"
	GoalMaintenance = "maintenance"
	GoalGeneral     = "general"
)

// Plan statuses
const (
	StatusActive   = "Active"
	StatusArchived = "Archived"
)

// MealTimeLayout is the HH:MM meal time format.
const MealTimeLayout = "15:04"

// MaxTitleLength bounds the title.
const MaxTitleLength = 200

// ValidGoals contains all valid goals.
var ValidGoals = []string{GoalWeightLoss, GoalMuscleGain, GoalMaintenance, GoalGeneral}

// Domain errors
var (
	ErrEmptyMemberID    = errors.New("member ID is required")
	ErrEmptyTitle       = errors.New("diet plan title cannot be empty")
	ErrTitleTooLong     = errors.New("diet plan title cannot exceed 200 characters")
	ErrInvalidGoal      = errors.New("goal must be one of: weight_loss, muscle_gain, maintenance, general")
	ErrNegativeCalories = errors.New("calories cannot be negative")
	ErrMissingStartDate = errors.New("start date is required")
	ErrDateOrder        = errors.New("end date cannot be before start date")
	ErrEmptyMeal        = errors.New("each meal needs a name and what to eat")
	ErrInvalidMealTime  = errors.New("meal time must be HH:MM")
	ErrInvalidStatus    = errors.New("status must be 'Active' or 'Archived'")
	ErrAlreadyArchived  = errors.New("diet plan is already archived")
)

// Meal is one slot of the daily plan.
type Meal struct {
	Name     string `json:"name"`           // e.g. "Breakfast"
	Time     string `json:"time,omitempty"` // HH:MM
	Items    string `json:"items"`
	Calories int    `json:"calories"`
}

// DietPlan is a nutrition plan written by staff for one member.
// Notes is Markdown.
type DietPlan struct {
	ID            string
	MemberID      string
	MemberName    string
	Title         string
	Goal          string
	DailyCalories int
	Meals         []Meal
	Notes         string
	StartDate     time.Time
	EndDate       time.Time // zero means open-ended
	Status        string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks if the DietPlan has valid data.
// PRE: DietPlan struct is populated
// POST: Returns nil if valid, error otherwise
func (p *DietPlan) Validate() error {
	if strings.TrimSpace(p.MemberID) == "" {
		return ErrEmptyMemberID
	}
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if len(p.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if !slices.Contains(ValidGoals, p.Goal) {
		return ErrInvalidGoal
	}
	if p.DailyCalories < 0 {
		return ErrNegativeCalories
	}
	if p.StartDate.IsZero() {
		return ErrMissingStartDate
	}
	if !p.EndDate.IsZero() && p.EndDate.Before(p.StartDate) {
		return ErrDateOrder
	}
	for _, m := range p.Meals {
		if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Items) == "" {
			return ErrEmptyMeal
		}
		if m.Calories < 0 {
			return ErrNegativeCalories
		}
		if m.Time != "" {
			if _, err := time.Parse(MealTimeLayout, m.Time); err != nil {
				return ErrInvalidMealTime
			}
		}
	}
	if p.Status != StatusActive && p.Status != StatusArchived {
		return ErrInvalidStatus
	}
	return nil
}

// MealCalories is the sum of the meal calories.
func (p *DietPlan) MealCalories() int {
	total := 0
	for _, m := range p.Meals {
		total += m.Calories
	}
	return total
}

// IsCurrent reports whether the plan applies on today.
func (p *DietPlan) IsCurrent(today time.Time) bool {
	if p.Status != StatusActive || today.Before(p.StartDate) {
		return false
	}
	return p.EndDate.IsZero() || !p.EndDate.Before(today)
}

// Archive retires the plan. Archived plans stay readable.
// POST: Status is Archived; ErrAlreadyArchived if it already was
func (p *DietPlan) Archive() error {
	if p.Status == StatusArchived {
		return ErrAlreadyArchived
	}
	p.Status = StatusArchived
	return nil
}
