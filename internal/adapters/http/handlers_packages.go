package web

import (
	"net/http"

	"gymdesk/internal/application/listutil"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
	"gymdesk/internal/domain/feepackage"
)

// handlePackages handles GET (list) and POST (assign) for /api/packages
func handlePackages(w http.ResponseWriter, r *http.Request) {
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
		result, err := projections.QueryPackageList(ctx, projections.PackageListQuery{
			Params:   listutil.ParseListParams(r.URL.Query(), nil, projections.PackageListFilterKeys),
			MemberID: scope,
			Today:    today(),
		}, projections.PackageListDeps{Packages: stores.PackageStore})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case "POST":
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		var input struct {
			MemberID    string    `json:"memberId"`
			PackageType string    `json:"packageType"`
			Amount      rupees    `json:"amount"`
			StartDate   civilDate `json:"startDate"`
		}
		if !decodeBody(w, r, &input) {
			return
		}
		p, err := orchestrators.ExecuteAssignPackage(ctx, orchestrators.AssignPackageInput{
			MemberID:    input.MemberID,
			PackageType: input.PackageType,
			Amount:      input.Amount.Paise,
			StartDate:   input.StartDate.Time,
		}, packageDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		countEvent("package_assigned")
		writeJSON(w, http.StatusCreated, projections.NewPackageView(p, today()))

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handlePackageCatalog handles GET /api/packages/catalog
func handlePackageCatalog(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSession(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, feepackage.Plans())
}

// handlePackageCancel handles POST /api/packages/{id}/cancel
func handlePackageCancel(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	p, err := orchestrators.ExecuteCancelPackage(r.Context(), r.PathValue("id"), packageDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.NewPackageView(p, today()))
}
