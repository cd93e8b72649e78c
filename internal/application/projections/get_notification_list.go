package projections

import (
	"context"
	"time"

	notificationStore "gymdesk/internal/adapters/storage/notification"
	"gymdesk/internal/application/listutil"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/notification"
)

// NotificationListFilterKeys are the accepted filter keys for the notification list.
var NotificationListFilterKeys = []string{"status", "type", "targetType"}

// NotificationListQuery is the input for the staff notification list.
type NotificationListQuery struct {
	Params listutil.ListParams
}

// NotificationListResult is a page of notifications.
type NotificationListResult struct {
	Notifications []NotificationView `json:"notifications"`
	Page          listutil.PageInfo  `json:"page"`
}

// NotificationListDeps holds dependencies for notification queries.
type NotificationListDeps struct {
	Notifications NotificationReader
}

// QueryNotificationList returns one page of notifications, newest first.
func QueryNotificationList(ctx context.Context, query NotificationListQuery, deps NotificationListDeps) (NotificationListResult, error) {
	p := query.Params
	filter := notificationStore.ListFilter{
		Status:     p.Filters["status"],
		Type:       p.Filters["type"],
		TargetType: p.Filters["targetType"],
	}
	total, err := deps.Notifications.Count(ctx, filter)
	if err != nil {
		return NotificationListResult{}, err
	}
	page := listutil.NewPageInfo(p.Page, p.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	list, err := deps.Notifications.List(ctx, filter)
	if err != nil {
		return NotificationListResult{}, err
	}
	return NotificationListResult{Notifications: notificationViews(list), Page: page}, nil
}

// QueryMemberNotifications lists the sent notifications that reached m:
// those for everyone, those for m's status bucket as of today, and those
// addressed to m directly.
func QueryMemberNotifications(ctx context.Context, m member.Member, today time.Time, limit int, deps NotificationListDeps) ([]NotificationView, error) {
	audience := []string{notification.TargetAll}
	switch m.EffectiveStatus(today) {
	case member.StatusActive:
		audience = append(audience, notification.TargetActive)
	case member.StatusExpired:
		audience = append(audience, notification.TargetExpired)
	}
	list, err := deps.Notifications.List(ctx, notificationStore.ListFilter{
		Status:   notification.StatusSent,
		MemberID: m.ID,
		Audience: audience,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}
	return notificationViews(list), nil
}

func notificationViews(list []notification.Notification) []NotificationView {
	views := make([]NotificationView, 0, len(list))
	for _, n := range list {
		views = append(views, NewNotificationView(n))
	}
	return views
}
