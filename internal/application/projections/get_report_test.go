package projections

import (
	"context"
	"testing"

	"gymdesk/internal/application/listutil"
	"gymdesk/internal/domain/export"
)

func column(t *testing.T, table export.Table, header string) int {
	t.Helper()
	for i, h := range table.Headers {
		if h == header {
			return i
		}
	}
	t.Fatalf("no column %q in %v", header, table.Headers)
	return -1
}

// TestQueryReport_Members verifies derived status, money formatting and filters.
func TestQueryReport_Members(t *testing.T) {
	g := newGym(t)
	seedGym(t, g)

	r, err := QueryReport(context.Background(), ReportQuery{Type: "members", Today: today, Now: now}, g.reportDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Type != export.ReportMembers || !r.GeneratedAt.Equal(now) {
		t.Errorf("unexpected metadata %s %v", r.Type, r.GeneratedAt)
	}
	if len(r.Table.Rows) != 5 || r.Stats["count"] != 5 {
		t.Fatalf("rows=%d count=%v, want 5", len(r.Table.Rows), r.Stats["count"])
	}
	status := column(t, r.Table, "Status")
	dues := column(t, r.Table, "Dues")
	end := column(t, r.Table, "End Date")
	for _, row := range r.Table.Rows {
		if row[0] == "m2" {
			if row[status] != "Expired" {
				t.Errorf("m2 status = %s, want Expired", row[status])
			}
			if row[dues] != "100.00" || row[end] != "2026-02-15" {
				t.Errorf("m2 dues=%s end=%s", row[dues], row[end])
			}
		}
	}
	if r.Stats["totalDues"] != "600.00" {
		t.Errorf("totalDues = %v, want 600.00", r.Stats["totalDues"])
	}

	r, err = QueryReport(context.Background(), ReportQuery{Type: "members", Filters: map[string]string{"status": "Expired"}, Today: today, Now: now}, g.reportDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Table.Rows) != 2 || r.Filters["status"] != "Expired" {
		t.Errorf("filtered rows=%d filters=%v", len(r.Table.Rows), r.Filters)
	}
}

// TestQueryReport_Bills verifies totals and the due date window.
func TestQueryReport_Bills(t *testing.T) {
	g := newGym(t)
	seedGym(t, g)

	r, err := QueryReport(context.Background(), ReportQuery{Type: "bills", Today: today, Now: now}, g.reportDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Stats["totalAmount"] != "1000.00" || r.Stats["paidAmount"] != "400.00" || r.Stats["unpaidAmount"] != "600.00" {
		t.Errorf("unexpected stats %v", r.Stats)
	}

	window := listutil.DateRange{From: day(2026, 2, 1), To: day(2026, 2, 28)}
	r, err = QueryReport(context.Background(), ReportQuery{Type: "bills", Dates: window, Today: today, Now: now}, g.reportDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Table.Rows) != 2 {
		t.Errorf("rows due in February = %d, want 2", len(r.Table.Rows))
	}
	if r.Filters["from"] != "2026-02-01" || r.Filters["to"] != "2026-02-28" {
		t.Errorf("date window not echoed in filters: %v", r.Filters)
	}
}

// TestQueryReport_OrdersAndSupplements verifies item rendering and stock stats.
func TestQueryReport_OrdersAndSupplements(t *testing.T) {
	g := newGym(t)
	seedGym(t, g)

	r, err := QueryReport(context.Background(), ReportQuery{Type: "orders", Today: today, Now: now}, g.reportDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := column(t, r.Table, "Items")
	found := false
	for _, row := range r.Table.Rows {
		if row[0] == "o1" {
			found = true
			if row[items] != "Whey x2" {
				t.Errorf("items = %q, want %q", row[items], "Whey x2")
			}
		}
	}
	if !found {
		t.Error("order o1 missing")
	}
	if r.Stats["revenue"] != "80.00" {
		t.Errorf("revenue = %v, want 80.00 (cancelled excluded)", r.Stats["revenue"])
	}

	r, err = QueryReport(context.Background(), ReportQuery{Type: "supplements", Today: today, Now: now}, g.reportDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Stats["outOfStock"] != 1 {
		t.Errorf("outOfStock = %v, want 1", r.Stats["outOfStock"])
	}
	// 2 x 2499.00 + 50 x 999.00
	if r.Stats["stockValue"] != "54948.00" {
		t.Errorf("stockValue = %v, want 54948.00", r.Stats["stockValue"])
	}
}

// TestQueryReport_Packages verifies cancelled packages are listed but not totalled.
func TestQueryReport_Packages(t *testing.T) {
	g := newGym(t)
	seedGym(t, g)

	r, err := QueryReport(context.Background(), ReportQuery{Type: "packages", Today: today, Now: now}, g.reportDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(r.Table.Rows))
	}
	if r.Stats["totalAmount"] != "12000.00" {
		t.Errorf("totalAmount = %v, want 12000.00", r.Stats["totalAmount"])
	}
}

// TestQueryReport_UnknownType verifies the type is validated.
func TestQueryReport_UnknownType(t *testing.T) {
	g := newGym(t)
	if _, err := QueryReport(context.Background(), ReportQuery{Type: "attendance", Today: today, Now: now}, g.reportDeps()); err != export.ErrUnknownReport {
		t.Errorf("expected ErrUnknownReport, got %v", err)
	}
}
