package projections

import (
	"context"
	"strconv"
	"strings"
	"time"

	billStore "gymdesk/internal/adapters/storage/bill"
	packageStore "gymdesk/internal/adapters/storage/feepackage"
	memberStore "gymdesk/internal/adapters/storage/member"
	supplementStore "gymdesk/internal/adapters/storage/supplement"
	"gymdesk/internal/application/listutil"
	"gymdesk/internal/domain/billing"
	"gymdesk/internal/domain/export"
	"gymdesk/internal/domain/feepackage"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/membership"
	"gymdesk/internal/domain/supplement"
)

// reportPageSize is the batch size used when reading a whole table.
const reportPageSize = 1000

// ReportFilterKeys are the accepted filter keys per report type.
var ReportFilterKeys = map[string][]string{
	export.ReportMembers:     {"status", "type"},
	export.ReportBills:       {"status", "memberId"},
	export.ReportPackages:    {"status", "type"},
	export.ReportOrders:      {"status"},
	export.ReportSupplements: {"category"},
}

// ReportQuery is the input for an export.
type ReportQuery struct {
	Type    string
	Filters map[string]string
	Dates   listutil.DateRange // bills by due date, orders by order date
	Today   time.Time
	Now     time.Time
}

// ReportDeps holds dependencies for exports.
type ReportDeps struct {
	Members     MemberReader
	Bills       BillReader
	Packages    PackageReader
	Orders      OrderReader
	Supplements SupplementReader
}

// QueryReport flattens one entity table into a report. Columns follow the
// entity's field order; money is rendered in rupees with two decimals and
// dates as YYYY-MM-DD.
// PRE: Type is a valid report type
// POST: every row has one cell per header; Stats holds count and totals
func QueryReport(ctx context.Context, query ReportQuery, deps ReportDeps) (export.Report, error) {
	typ, err := export.ParseReportType(query.Type)
	if err != nil {
		return export.Report{}, err
	}
	filters := map[string]string{}
	for k, v := range query.Filters {
		filters[k] = v
	}
	if !query.Dates.From.IsZero() {
		filters["from"] = membership.FormatDate(query.Dates.From)
	}
	if !query.Dates.To.IsZero() {
		filters["to"] = membership.FormatDate(query.Dates.To)
	}
	r := export.Report{Type: typ, GeneratedAt: query.Now, Filters: filters, Stats: map[string]any{}}

	switch typ {
	case export.ReportMembers:
		err = memberReport(ctx, &r, query, deps.Members)
	case export.ReportBills:
		err = billReport(ctx, &r, query, deps.Bills)
	case export.ReportPackages:
		err = packageReport(ctx, &r, query, deps.Packages)
	case export.ReportOrders:
		err = orderReport(ctx, &r, query, deps.Orders)
	case export.ReportSupplements:
		err = supplementReport(ctx, &r, query, deps.Supplements)
	}
	if err != nil {
		return export.Report{}, err
	}
	r.Stats["count"] = len(r.Table.Rows)
	return r, r.Table.Validate()
}

func memberReport(ctx context.Context, r *export.Report, q ReportQuery, members MemberReader) error {
	filter := memberStore.ListFilter{
		Status:         q.Filters["status"],
		MembershipType: q.Filters["type"],
		AsOf:           membership.FormatDate(q.Today),
		Sort:           "name",
	}
	list, err := collectPages(func(limit, offset int) ([]member.Member, error) {
		filter.Limit, filter.Offset = limit, offset
		return members.List(ctx, filter)
	})
	if err != nil {
		return err
	}
	r.Table.Headers = []string{
		"ID", "First Name", "Last Name", "Email", "Phone", "Date of Birth", "Gender",
		"Address", "City", "State", "Zip Code", "Emergency Contact", "Emergency Phone",
		"Membership Type", "Start Date", "End Date", "Status", "Dues", "Created",
	}
	var dues int64
	byStatus := map[string]int{}
	for _, m := range list {
		status := m.EffectiveStatus(q.Today)
		byStatus[status]++
		dues += m.Dues
		r.Table.Rows = append(r.Table.Rows, []string{
			m.ID, m.FirstName, m.LastName, m.Email, m.Phone, membership.FormatDate(m.DateOfBirth), m.Gender,
			m.Address, m.City, m.State, m.ZipCode, m.EmergencyContact, m.EmergencyPhone,
			m.MembershipType, membership.FormatDate(m.StartDate), membership.FormatDate(m.EndDate), status,
			billing.FormatAmount(m.Dues), membership.FormatDate(m.CreatedAt),
		})
	}
	r.Stats["byStatus"] = byStatus
	r.Stats["totalDues"] = billing.FormatAmount(dues)
	return nil
}

func billReport(ctx context.Context, r *export.Report, q ReportQuery, bills BillReader) error {
	filter := billStore.ListFilter{
		MemberID: q.Filters["memberId"],
		Status:   q.Filters["status"],
		DueFrom:  q.Dates.From,
		DueTo:    q.Dates.To,
		AsOf:     q.Today,
	}
	list, err := collectPages(func(limit, offset int) ([]billing.Bill, error) {
		filter.Limit, filter.Offset = limit, offset
		return bills.List(ctx, filter)
	})
	if err != nil {
		return err
	}
	r.Table.Headers = []string{
		"ID", "Bill Number", "Member ID", "Member Name", "Amount", "Description",
		"Due Date", "Status", "Payment Date", "Payment Method", "Created",
	}
	var total, paid, unpaid int64
	for _, b := range list {
		total += b.Amount
		if b.IsPaid() {
			paid += b.Amount
		} else {
			unpaid += b.Amount
		}
		r.Table.Rows = append(r.Table.Rows, []string{
			b.ID, b.BillNumber, b.MemberID, b.MemberName, billing.FormatAmount(b.Amount), b.Description,
			membership.FormatDate(b.DueDate), b.EffectiveStatus(q.Today), membership.FormatDate(b.PaymentDate),
			b.PaymentMethod, membership.FormatDate(b.CreatedAt),
		})
	}
	r.Stats["totalAmount"] = billing.FormatAmount(total)
	r.Stats["paidAmount"] = billing.FormatAmount(paid)
	r.Stats["unpaidAmount"] = billing.FormatAmount(unpaid)
	return nil
}

func packageReport(ctx context.Context, r *export.Report, q ReportQuery, packages PackageReader) error {
	filter := packageStore.ListFilter{Status: q.Filters["status"], PackageType: q.Filters["type"]}
	list, err := collectPages(func(limit, offset int) ([]feepackage.FeePackage, error) {
		filter.Limit, filter.Offset = limit, offset
		return packages.List(ctx, filter)
	})
	if err != nil {
		return err
	}
	r.Table.Headers = []string{
		"ID", "Member ID", "Member Name", "Package Type", "Package Name", "Amount",
		"Duration (months)", "Start Date", "End Date", "Status",
	}
	var total int64
	for _, p := range list {
		v := NewPackageView(p, q.Today)
		if v.Status != feepackage.StatusCancelled {
			total += p.Amount
		}
		r.Table.Rows = append(r.Table.Rows, []string{
			p.ID, p.MemberID, p.MemberName, p.PackageType, p.PackageName, billing.FormatAmount(p.Amount),
			strconv.Itoa(p.Duration), v.StartDate, v.EndDate, v.Status,
		})
	}
	r.Stats["totalAmount"] = billing.FormatAmount(total)
	return nil
}

func orderReport(ctx context.Context, r *export.Report, q ReportQuery, orders OrderReader) error {
	filter := supplementStore.OrderFilter{Status: q.Filters["status"], From: q.Dates.From, To: q.Dates.To}
	list, err := collectPages(func(limit, offset int) ([]supplement.Order, error) {
		filter.Limit, filter.Offset = limit, offset
		return orders.List(ctx, filter)
	})
	if err != nil {
		return err
	}
	r.Table.Headers = []string{
		"ID", "Member ID", "Member Name", "Items", "Total Amount", "Status", "Order Date", "Payment Method",
	}
	var revenue int64
	for _, o := range list {
		if o.Status == supplement.OrderCompleted {
			revenue += o.TotalAmount
		}
		r.Table.Rows = append(r.Table.Rows, []string{
			o.ID, o.MemberID, o.MemberName, describeItems(o.Items), billing.FormatAmount(o.TotalAmount),
			o.Status, membership.FormatDate(o.OrderDate), o.PaymentMethod,
		})
	}
	r.Stats["revenue"] = billing.FormatAmount(revenue)
	return nil
}

func supplementReport(ctx context.Context, r *export.Report, q ReportQuery, supplements SupplementReader) error {
	filter := supplementStore.ListFilter{Category: q.Filters["category"]}
	list, err := collectPages(func(limit, offset int) ([]supplement.Supplement, error) {
		filter.Limit, filter.Offset = limit, offset
		return supplements.List(ctx, filter)
	})
	if err != nil {
		return err
	}
	r.Table.Headers = []string{
		"ID", "Name", "Brand", "Category", "Description", "Price", "Stock", "Barcode", "Expiry Date",
	}
	var stockValue int64
	outOfStock := 0
	for _, s := range list {
		stockValue += s.Price * int64(s.Stock)
		if !s.InStock() {
			outOfStock++
		}
		r.Table.Rows = append(r.Table.Rows, []string{
			s.ID, s.Name, s.Brand, s.Category, s.Description, billing.FormatAmount(s.Price),
			strconv.Itoa(s.Stock), s.Barcode, membership.FormatDate(s.ExpiryDate),
		})
	}
	r.Stats["stockValue"] = billing.FormatAmount(stockValue)
	r.Stats["outOfStock"] = outOfStock
	return nil
}

// describeItems renders order lines as "Whey x2; BCAA x1".
func describeItems(items []supplement.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, it.Name+" x"+strconv.Itoa(it.Quantity))
	}
	return strings.Join(parts, "; ")
}

func collectPages[T any](fetch func(limit, offset int) ([]T, error)) ([]T, error) {
	var out []T
	for offset := 0; ; offset += reportPageSize {
		page, err := fetch(reportPageSize, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < reportPageSize {
			return out, nil
		}
	}
}
