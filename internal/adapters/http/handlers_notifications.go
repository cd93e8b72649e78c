package web

import (
	"net/http"
	"time"

	"gymdesk/internal/application/listutil"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/member"
)

// memberInboxLimit caps how many sent notifications a member sees.
const memberInboxLimit = 50

type notificationBody struct {
	Title          *string   `json:"title"`
	Message        *string   `json:"message"`
	Type           *string   `json:"type"`
	TargetType     *string   `json:"targetType"`
	MemberID       *string   `json:"memberId"`
	ScheduledDate  civilDate `json:"scheduledDate"`
	SendTime       *string   `json:"sendTime"`
	IsRecurring    *bool     `json:"isRecurring"`
	RecurrenceType *string   `json:"recurrenceType"`
}

// handleNotifications handles GET (list) and POST (schedule) for /api/notifications
func handleNotifications(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	listDeps := projections.NotificationListDeps{Notifications: stores.NotificationStore}

	switch r.Method {
	case "GET":
		if sess.Role == account.RoleMember {
			m, err := ownMember(r, sess)
			if err != nil {
				http.Error(w, "no member profile is linked to this account", http.StatusForbidden)
				return
			}
			views, err := projections.QueryMemberNotifications(ctx, m, today(), memberInboxLimit, listDeps)
			if err != nil {
				internalError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"notifications": views})
			return
		}
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		params := listutil.ParseListParams(r.URL.Query(), nil, projections.NotificationListFilterKeys)
		result, err := projections.QueryNotificationList(ctx, projections.NotificationListQuery{Params: params}, listDeps)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case "POST":
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		var in notificationBody
		if !decodeBody(w, r, &in) {
			return
		}
		input := orchestrators.CreateNotificationInput{
			Title:          str(in.Title),
			Message:        str(in.Message),
			Type:           str(in.Type),
			TargetType:     str(in.TargetType),
			MemberID:       str(in.MemberID),
			ScheduledDate:  in.ScheduledDate.Time,
			SendTime:       str(in.SendTime),
			RecurrenceType: str(in.RecurrenceType),
		}
		if in.IsRecurring != nil {
			input.IsRecurring = *in.IsRecurring
		}
		n, err := orchestrators.ExecuteCreateNotification(ctx, input, notificationDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, projections.NewNotificationView(n))

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleNotificationByID handles PATCH and DELETE for /api/notifications/{id}
func handleNotificationByID(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	ctx := r.Context()
	id := r.PathValue("id")

	switch r.Method {
	case "PATCH":
		var in notificationBody
		if !decodeBody(w, r, &in) {
			return
		}
		n, err := orchestrators.ExecuteEditNotification(ctx, orchestrators.EditNotificationInput{
			ID:             id,
			Title:          in.Title,
			Message:        in.Message,
			Type:           in.Type,
			TargetType:     in.TargetType,
			MemberID:       in.MemberID,
			ScheduledDate:  in.ScheduledDate.ptr(),
			SendTime:       in.SendTime,
			IsRecurring:    in.IsRecurring,
			RecurrenceType: in.RecurrenceType,
		}, notificationDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, projections.NewNotificationView(n))

	case "DELETE":
		if err := orchestrators.ExecuteDeleteNotification(ctx, id, notificationDeps()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleNotificationSend handles POST /api/notifications/{id}/send
func handleNotificationSend(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	result, err := orchestrators.ExecuteDispatchNotification(r.Context(), r.PathValue("id"), notificationDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	countEvent("notifications_dispatched")
	writeJSON(w, http.StatusOK, map[string]any{
		"notification": projections.NewNotificationView(result.Notification),
		"sent":         result.Sent,
		"queued":       result.Queued,
		"skipped":      result.Skipped,
	})
}

// handleNotificationMarkSent handles POST /api/notifications/{id}/mark-sent
func handleNotificationMarkSent(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	n, err := orchestrators.ExecuteMarkNotificationSent(r.Context(), r.PathValue("id"), notificationDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.NewNotificationView(n))
}

// handleNotificationCancel handles POST /api/notifications/{id}/cancel
func handleNotificationCancel(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	n, err := orchestrators.ExecuteCancelNotification(r.Context(), r.PathValue("id"), notificationDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.NewNotificationView(n))
}

// handleNotificationTargets handles GET /api/notifications/{id}/targets
func handleNotificationTargets(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	ctx := r.Context()
	n, err := stores.NotificationStore.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	day := today()
	targets, err := projections.QueryTargetMembers(ctx, projections.TargetQuery{
		TargetType: n.TargetType,
		MemberID:   n.MemberID,
		Today:      day,
	}, stores.MemberStore)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": memberViews(targets, day), "count": len(targets)})
}

func memberViews(list []member.Member, day time.Time) []projections.MemberView {
	views := make([]projections.MemberView, 0, len(list))
	for _, m := range list {
		views = append(views, projections.NewMemberView(m, day))
	}
	return views
}
