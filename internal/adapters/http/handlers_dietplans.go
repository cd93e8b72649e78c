package web

import (
	"net/http"

	"gymdesk/internal/application/listutil"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
	"gymdesk/internal/domain/dietplan"
)

// dietPlanBody is the create and edit payload. Absent fields are left
// unchanged on edit.
type dietPlanBody struct {
	MemberID      string           `json:"memberId"`
	Title         *string          `json:"title"`
	Goal          *string          `json:"goal"`
	DailyCalories *int             `json:"dailyCalories"`
	Meals         *[]dietplan.Meal `json:"meals"`
	Notes         *string          `json:"notes"`
	StartDate     civilDate        `json:"startDate"`
	EndDate       civilDate        `json:"endDate"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// handleDietPlans handles GET (list) and POST (create) for /api/diet-plans
func handleDietPlans(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case "GET":
		scope, ok := memberScope(w, r, sess)
		if !ok {
			return
		}
		result, err := projections.QueryDietPlanList(ctx, projections.DietPlanListQuery{
			Params:   listutil.ParseListParams(r.URL.Query(), nil, projections.DietPlanListFilterKeys),
			MemberID: scope,
			Today:    today(),
		}, projections.DietPlanListDeps{Plans: stores.DietPlanStore})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case "POST":
		admin, ok := requireAdmin(w, r)
		if !ok {
			return
		}
		var in dietPlanBody
		if !decodeBody(w, r, &in) {
			return
		}
		p, err := orchestrators.ExecuteCreateDietPlan(ctx, orchestrators.CreateDietPlanInput{
			MemberID:      in.MemberID,
			Title:         deref(in.Title),
			Goal:          deref(in.Goal),
			DailyCalories: deref(in.DailyCalories),
			Meals:         deref(in.Meals),
			Notes:         deref(in.Notes),
			StartDate:     in.StartDate.Time,
			EndDate:       in.EndDate.Time,
			CreatedBy:     admin.AccountID,
		}, dietPlanDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		countEvent("diet_plan_created")
		writeJSON(w, http.StatusCreated, projections.NewDietPlanView(p, today()))

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleDietPlanByID handles GET, PATCH and DELETE for /api/diet-plans/{id}.
// Members may read their own plans only.
func handleDietPlanByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	switch r.Method {
	case "GET":
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		scope, ok := memberScope(w, r, sess)
		if !ok {
			return
		}
		p, err := stores.DietPlanStore.GetByID(ctx, id)
		if err != nil {
			writeError(w, err)
			return
		}
		if scope != "" && p.MemberID != scope {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, projections.NewDietPlanView(p, today()))

	case "PATCH":
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		var in dietPlanBody
		if !decodeBody(w, r, &in) {
			return
		}
		p, err := orchestrators.ExecuteUpdateDietPlan(ctx, id, orchestrators.UpdateDietPlanInput{
			Title:         in.Title,
			Goal:          in.Goal,
			DailyCalories: in.DailyCalories,
			Meals:         in.Meals,
			Notes:         in.Notes,
			StartDate:     in.StartDate.ptr(),
			EndDate:       in.EndDate.ptr(),
		}, dietPlanDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, projections.NewDietPlanView(p, today()))

	case "DELETE":
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		if err := orchestrators.ExecuteDeleteDietPlan(ctx, id, dietPlanDeps()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleDietPlanArchive handles POST /api/diet-plans/{id}/archive
func handleDietPlanArchive(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	p, err := orchestrators.ExecuteArchiveDietPlan(r.Context(), r.PathValue("id"), dietPlanDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	countEvent("diet_plan_archived")
	writeJSON(w, http.StatusOK, projections.NewDietPlanView(p, today()))
}
