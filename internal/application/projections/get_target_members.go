package projections

import (
	"context"
	"database/sql"
	"errors"
	"time"

	memberStore "gymdesk/internal/adapters/storage/member"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/membership"
	"gymdesk/internal/domain/notification"
)

// TargetQuery selects the audience of a notification.
type TargetQuery struct {
	TargetType string
	MemberID   string
	Today      time.Time
}

// QueryTargetMembers lists the members a notification reaches.
// PRE: TargetType is one of all, active, expired, specific
// POST: active/expired match the status derived for Today; Inactive members
// are only reached by all and specific; a missing specific member yields none
func QueryTargetMembers(ctx context.Context, query TargetQuery, members MemberReader) ([]member.Member, error) {
	switch query.TargetType {
	case notification.TargetAll:
		return listAllMembers(ctx, memberStore.ListFilter{Sort: "name"}, members)
	case notification.TargetActive:
		return listAllMembers(ctx, memberStore.ListFilter{
			Status: member.StatusActive,
			AsOf:   membership.FormatDate(query.Today),
			Sort:   "name",
		}, members)
	case notification.TargetExpired:
		return listAllMembers(ctx, memberStore.ListFilter{
			Status: member.StatusExpired,
			AsOf:   membership.FormatDate(query.Today),
			Sort:   "name",
		}, members)
	case notification.TargetSpecific:
		if query.MemberID == "" {
			return nil, nil
		}
		m, err := members.GetByID(ctx, query.MemberID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []member.Member{m}, nil
	}
	return nil, notification.ErrInvalidTarget
}

// NewTargetResolver adapts QueryTargetMembers to the dispatcher's resolver.
func NewTargetResolver(members MemberReader) func(ctx context.Context, n notification.Notification, today time.Time) ([]member.Member, error) {
	return func(ctx context.Context, n notification.Notification, today time.Time) ([]member.Member, error) {
		return QueryTargetMembers(ctx, TargetQuery{TargetType: n.TargetType, MemberID: n.MemberID, Today: today}, members)
	}
}

func listAllMembers(ctx context.Context, filter memberStore.ListFilter, members MemberReader) ([]member.Member, error) {
	return collectPages(func(limit, offset int) ([]member.Member, error) {
		filter.Limit, filter.Offset = limit, offset
		return members.List(ctx, filter)
	})
}
