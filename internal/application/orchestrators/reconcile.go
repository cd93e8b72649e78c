package orchestrators

import (
	"context"
	"log/slog"
)

// ReconcileDeps holds dependencies for ReconcileStatuses.
type ReconcileDeps struct {
	Atomic AtomicFunc
	Clock  Clock
}

// ReconcileResult counts rows whose stored status changed.
type ReconcileResult struct {
	Members  int64
	Bills    int64
	Packages int64
}

// ExecuteReconcileStatuses brings stored statuses in line with today's date:
// members and packages past their end date become Expired (members renewed
// into the future become Active again) and pending bills past due become Overdue.
// POST: stored statuses equal the statuses derived on read
func ExecuteReconcileStatuses(ctx context.Context, deps ReconcileDeps) (ReconcileResult, error) {
	today := deps.Clock.Today()
	now := deps.Clock.now()
	var result ReconcileResult
	err := deps.Atomic(ctx, func(ctx context.Context, s TxStores) error {
		var err error
		if result.Members, err = s.Members.RefreshStatuses(ctx, today, now); err != nil {
			return err
		}
		if result.Bills, err = s.Bills.MarkOverdue(ctx, today, now); err != nil {
			return err
		}
		result.Packages, err = s.Packages.ExpireLapsed(ctx, today, now)
		return err
	})
	if err != nil {
		return ReconcileResult{}, err
	}
	if result.Members+result.Bills+result.Packages > 0 {
		slog.Info("reconcile_event", "event", "statuses_reconciled", "members", result.Members, "bills", result.Bills, "packages", result.Packages)
	}
	return result, nil
}
