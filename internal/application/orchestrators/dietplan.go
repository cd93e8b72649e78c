package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gymdesk/internal/domain/dietplan"
)

var ErrDietPlanNotFound = errors.New("diet plan not found")

// DietPlanDeps holds dependencies for the diet plan orchestrators.
type DietPlanDeps struct {
	Plans      DietPlanStore
	Members    MemberStore
	GenerateID func() string
	Clock      Clock
}

// CreateDietPlanInput carries a new plan for a member.
type CreateDietPlanInput struct {
	MemberID      string
	Title         string
	Goal          string
	DailyCalories int
	Meals         []dietplan.Meal
	Notes         string
	StartDate     time.Time
	EndDate       time.Time
	CreatedBy     string
}

// ExecuteCreateDietPlan writes a plan for a member.
// PRE: member exists
// POST: Plan saved Active with the member's name captured; Goal defaults to
// general, StartDate to today and DailyCalories to the meal total
func ExecuteCreateDietPlan(ctx context.Context, input CreateDietPlanInput, deps DietPlanDeps) (dietplan.DietPlan, error) {
	if input.MemberID == "" {
		return dietplan.DietPlan{}, dietplan.ErrEmptyMemberID
	}
	m, err := deps.Members.GetByID(ctx, input.MemberID)
	if err != nil {
		return dietplan.DietPlan{}, notFound(err, ErrMemberNotFound)
	}

	now := deps.Clock.now()
	p := dietplan.DietPlan{
		ID:            deps.GenerateID(),
		MemberID:      m.ID,
		MemberName:    m.FullName(),
		Title:         strings.TrimSpace(input.Title),
		Goal:          input.Goal,
		DailyCalories: input.DailyCalories,
		Meals:         trimMeals(input.Meals),
		Notes:         input.Notes,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		Status:        dietplan.StatusActive,
		CreatedBy:     input.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if p.Goal == "" {
		p.Goal = dietplan.GoalGeneral
	}
	if p.StartDate.IsZero() {
		p.StartDate = deps.Clock.Today()
	}
	if p.DailyCalories == 0 {
		p.DailyCalories = p.MealCalories()
	}
	if err := p.Validate(); err != nil {
		return dietplan.DietPlan{}, err
	}
	if err := deps.Plans.Save(ctx, p); err != nil {
		return dietplan.DietPlan{}, err
	}
	slog.Info("diet_event", "event", "diet_plan_created", "diet_plan_id", p.ID, "member_id", p.MemberID, "goal", p.Goal)
	return p, nil
}

// UpdateDietPlanInput carries a partial edit. Nil fields are left unchanged.
type UpdateDietPlanInput struct {
	Title         *string
	Goal          *string
	DailyCalories *int
	Meals         *[]dietplan.Meal
	Notes         *string
	StartDate     *time.Time
	EndDate       *time.Time
}

// ExecuteUpdateDietPlan edits an active plan.
// PRE: plan exists and is Active
// POST: Changed fields persisted
func ExecuteUpdateDietPlan(ctx context.Context, id string, input UpdateDietPlanInput, deps DietPlanDeps) (dietplan.DietPlan, error) {
	p, err := deps.Plans.GetByID(ctx, id)
	if err != nil {
		return dietplan.DietPlan{}, notFound(err, ErrDietPlanNotFound)
	}
	if p.Status == dietplan.StatusArchived {
		return dietplan.DietPlan{}, dietplan.ErrAlreadyArchived
	}
	setString(&p.Title, input.Title)
	setString(&p.Goal, input.Goal)
	if input.Notes != nil {
		p.Notes = *input.Notes
	}
	if input.Meals != nil {
		p.Meals = trimMeals(*input.Meals)
	}
	if input.DailyCalories != nil {
		p.DailyCalories = *input.DailyCalories
	}
	if input.StartDate != nil {
		p.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		p.EndDate = *input.EndDate
	}
	p.UpdatedAt = deps.Clock.now()
	if err := p.Validate(); err != nil {
		return dietplan.DietPlan{}, err
	}
	if err := deps.Plans.Save(ctx, p); err != nil {
		return dietplan.DietPlan{}, err
	}
	slog.Info("diet_event", "event", "diet_plan_updated", "diet_plan_id", p.ID)
	return p, nil
}

// ExecuteArchiveDietPlan retires a plan. The member can still read it.
func ExecuteArchiveDietPlan(ctx context.Context, id string, deps DietPlanDeps) (dietplan.DietPlan, error) {
	p, err := deps.Plans.GetByID(ctx, id)
	if err != nil {
		return dietplan.DietPlan{}, notFound(err, ErrDietPlanNotFound)
	}
	if err := p.Archive(); err != nil {
		return dietplan.DietPlan{}, err
	}
	p.UpdatedAt = deps.Clock.now()
	if err := deps.Plans.Save(ctx, p); err != nil {
		return dietplan.DietPlan{}, err
	}
	slog.Info("diet_event", "event", "diet_plan_archived", "diet_plan_id", p.ID)
	return p, nil
}

// ExecuteDeleteDietPlan removes a plan.
func ExecuteDeleteDietPlan(ctx context.Context, id string, deps DietPlanDeps) error {
	if err := deps.Plans.Delete(ctx, id); err != nil {
		return notFound(err, ErrDietPlanNotFound)
	}
	slog.Info("diet_event", "event", "diet_plan_deleted", "diet_plan_id", id)
	return nil
}

func trimMeals(meals []dietplan.Meal) []dietplan.Meal {
	out := make([]dietplan.Meal, 0, len(meals))
	for _, m := range meals {
		m.Name = strings.TrimSpace(m.Name)
		m.Time = strings.TrimSpace(m.Time)
		m.Items = strings.TrimSpace(m.Items)
		out = append(out, m)
	}
	return out
}
