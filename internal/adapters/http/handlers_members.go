package web

import (
	"context"
	"errors"
	"net/http"

	"gymdesk/internal/adapters/filestore"
	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/application/listutil"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/member"
)

// memberBody is the JSON shape for creating and editing members. Pointer
// fields distinguish "not sent" from "cleared" on PATCH.
type memberBody struct {
	AccountID        *string   `json:"accountId"`
	FirstName        *string   `json:"firstName"`
	LastName         *string   `json:"lastName"`
	Email            *string   `json:"email"`
	Phone            *string   `json:"phone"`
	DateOfBirth      civilDate `json:"dateOfBirth"`
	Gender           *string   `json:"gender"`
	Address          *string   `json:"address"`
	City             *string   `json:"city"`
	State            *string   `json:"state"`
	ZipCode          *string   `json:"zipCode"`
	EmergencyContact *string   `json:"emergencyContact"`
	EmergencyPhone   *string   `json:"emergencyPhone"`
	MembershipType   *string   `json:"membershipType"`
	StartDate        civilDate `json:"startDate"`
	EndDate          civilDate `json:"endDate"`
	Status           *string   `json:"status"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func profileDeps() projections.MemberProfileDeps {
	return projections.MemberProfileDeps{
		Members:   stores.MemberStore,
		Bills:     stores.BillStore,
		Packages:  stores.PackageStore,
		Orders:    stores.OrderStore,
		DietPlans: stores.DietPlanStore,
	}
}

// ownMember loads the member profile linked to a member session.
func ownMember(r *http.Request, sess middleware.Session) (member.Member, error) {
	return stores.MemberStore.GetByAccountID(r.Context(), sess.AccountID)
}

// handleMembers handles GET (list) and POST (create) for /api/members
func handleMembers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case "GET":
		params := listutil.ParseListParams(r.URL.Query(), projections.MemberListSortColumns, projections.MemberListFilterKeys)
		result, err := projections.QueryMemberList(ctx, projections.MemberListQuery{Params: params, Today: today()},
			projections.MemberListDeps{Members: stores.MemberStore})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case "POST":
		var in memberBody
		if !decodeBody(w, r, &in) {
			return
		}
		m, err := orchestrators.ExecuteAddMember(ctx, orchestrators.AddMemberInput{
			AccountID:        str(in.AccountID),
			FirstName:        str(in.FirstName),
			LastName:         str(in.LastName),
			Email:            str(in.Email),
			Phone:            str(in.Phone),
			DateOfBirth:      in.DateOfBirth.Time,
			Gender:           str(in.Gender),
			Address:          str(in.Address),
			City:             str(in.City),
			State:            str(in.State),
			ZipCode:          str(in.ZipCode),
			EmergencyContact: str(in.EmergencyContact),
			EmergencyPhone:   str(in.EmergencyPhone),
			MembershipType:   str(in.MembershipType),
			StartDate:        in.StartDate.Time,
			EndDate:          in.EndDate.Time,
			Status:           str(in.Status),
		}, memberDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		countEvent("member_added")
		writeJSON(w, http.StatusCreated, projections.NewMemberView(m, today()))

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleMemberByID handles GET (profile), PATCH and DELETE for /api/members/{id}
func handleMemberByID(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	id := r.PathValue("id")

	if r.Method == "GET" {
		if sess.Role != account.RoleAdmin {
			own, err := ownMember(r, sess)
			if err != nil || own.ID != id {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}
		profile, err := projections.QueryMemberProfile(ctx, projections.MemberProfileQuery{MemberID: id, Today: today()}, profileDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
		return
	}

	if sess.Role != account.RoleAdmin {
		http.Error(w, "admin required", http.StatusForbidden)
		return
	}

	switch r.Method {
	case "PATCH":
		var in memberBody
		if !decodeBody(w, r, &in) {
			return
		}
		m, err := orchestrators.ExecuteUpdateMember(ctx, orchestrators.UpdateMemberInput{
			ID:               id,
			FirstName:        in.FirstName,
			LastName:         in.LastName,
			Email:            in.Email,
			Phone:            in.Phone,
			DateOfBirth:      in.DateOfBirth.ptr(),
			Gender:           in.Gender,
			Address:          in.Address,
			City:             in.City,
			State:            in.State,
			ZipCode:          in.ZipCode,
			EmergencyContact: in.EmergencyContact,
			EmergencyPhone:   in.EmergencyPhone,
			MembershipType:   in.MembershipType,
			StartDate:        in.StartDate.ptr(),
			EndDate:          in.EndDate.ptr(),
			Status:           in.Status,
		}, memberDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, projections.NewMemberView(m, today()))

	case "DELETE":
		if err := orchestrators.ExecuteDeleteMember(ctx, id, stores.MemberStore); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleMyProfile handles GET /api/me for member accounts.
func handleMyProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	if sess.Role != account.RoleMember {
		http.Error(w, "member account required", http.StatusForbidden)
		return
	}
	profile, err := projections.QueryMemberProfile(r.Context(), projections.MemberProfileQuery{AccountID: sess.AccountID, Today: today()}, profileDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleMemberPhoto handles POST /api/members/{id}/photo (multipart field "photo").
func handleMemberPhoto(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if settings.Files == nil {
		http.Error(w, "photo uploads are not configured", http.StatusServiceUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, filestore.MaxFileBytes+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, filestore.ErrTooLarge.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		http.Error(w, "photo file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	m, err := orchestrators.ExecuteAttachPhoto(r.Context(), orchestrators.AttachPhotoInput{
		MemberID: r.PathValue("id"),
		Filename: header.Filename,
		Body:     file,
	}, orchestrators.AttachPhotoDeps{MemberStore: stores.MemberStore, Files: settings.Files, Clock: clock()})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.NewMemberView(m, today()))
}

// handleMemberCheckIn handles POST /api/members/{id}/checkin
func handleMemberCheckIn(w http.ResponseWriter, r *http.Request) {
	memberAction(w, r, orchestrators.ExecuteCheckIn)
}

// handleMemberSuspend handles POST /api/members/{id}/suspend
func handleMemberSuspend(w http.ResponseWriter, r *http.Request) {
	memberAction(w, r, orchestrators.ExecuteSuspendMember)
}

// handleMemberReinstate handles POST /api/members/{id}/reinstate
func handleMemberReinstate(w http.ResponseWriter, r *http.Request) {
	memberAction(w, r, orchestrators.ExecuteReinstateMember)
}

func memberAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id string, deps orchestrators.MemberDeps) (member.Member, error)) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	m, err := action(r.Context(), r.PathValue("id"), memberDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.NewMemberView(m, today()))
}

// handleMemberReconcileDues handles POST /api/members/{id}/reconcile
func handleMemberReconcileDues(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	result, err := orchestrators.ExecuteReconcileDues(r.Context(), r.PathValue("id"), billingDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"memberId": result.MemberID,
		"before":   result.Before,
		"after":    result.After,
	})
}
