package orchestrators

import (
	"context"
	"log/slog"

	"gymdesk/internal/domain/member"
)

// ExecuteSuspendMember marks a member Inactive. The status survives the
// reconciliation sweep until the member is reinstated.
// PRE: memberID names an existing member
// POST: Status is Inactive
func ExecuteSuspendMember(ctx context.Context, memberID string, deps MemberDeps) (member.Member, error) {
	m, err := deps.MemberStore.GetByID(ctx, memberID)
	if err != nil {
		return member.Member{}, notFound(err, ErrMemberNotFound)
	}
	if m.Status == member.StatusInactive {
		return m, nil
	}
	m.Status = member.StatusInactive
	m.UpdatedAt = deps.Clock.now()
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, err
	}

	slog.Info("member_event", "event", "member_suspended", "member_id", m.ID)
	return m, nil
}

// ExecuteReinstateMember lifts a suspension. The status is derived from the
// end date again, so a lapsed membership comes back as Expired.
// PRE: memberID names an existing member
// POST: Status is Active or Expired
func ExecuteReinstateMember(ctx context.Context, memberID string, deps MemberDeps) (member.Member, error) {
	m, err := deps.MemberStore.GetByID(ctx, memberID)
	if err != nil {
		return member.Member{}, notFound(err, ErrMemberNotFound)
	}
	if m.Status != member.StatusInactive {
		return m, nil
	}
	m.Status = member.StatusExpired
	if !m.EndDate.IsZero() {
		m.Status = m.EffectiveStatus(deps.Clock.Today())
	}
	m.UpdatedAt = deps.Clock.now()
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, err
	}

	slog.Info("member_event", "event", "member_reinstated", "member_id", m.ID, "status", m.Status)
	return m, nil
}
