package orchestrators

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"maps"
	"sort"
	"strings"
	"time"

	emailAdapter "gymdesk/internal/adapters/email"
	accountStore "gymdesk/internal/adapters/storage/account"
	billStore "gymdesk/internal/adapters/storage/bill"
	packageStore "gymdesk/internal/adapters/storage/feepackage"
	registrationStore "gymdesk/internal/adapters/storage/registration"
	supplementStore "gymdesk/internal/adapters/storage/supplement"
	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/billing"
	"gymdesk/internal/domain/dietplan"
	"gymdesk/internal/domain/feepackage"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/notification"
	"gymdesk/internal/domain/outbox"
	"gymdesk/internal/domain/registration"
	"gymdesk/internal/domain/supplement"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

var testClock = Clock{Now: fixedNow, Location: time.UTC}

// today is the civil date of fixedTime.
var today = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// sequenceIDs returns a generator producing prefix-1, prefix-2, ...
func sequenceIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// sequenceInts returns a RandInt that replays values, then repeats the last.
func sequenceInts(values ...int) func(int) int {
	i := 0
	return func(int) int {
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v
	}
}

func missing(kind string) error {
	return fmt.Errorf("%s not found: %w", kind, sql.ErrNoRows)
}

// fakeDB is an in-memory stand-in for the SQLite schema. atomic snapshots all
// tables and restores them when fn fails.
type fakeDB struct {
	accounts      map[string]account.Account
	members       map[string]member.Member
	bills         map[string]billing.Bill
	packages      map[string]feepackage.FeePackage
	notifications map[string]notification.Notification
	supplements   map[string]supplement.Supplement
	orders        map[string]supplement.Order
	registrations map[string]registration.Request
	outbox        map[string]outbox.Entry
	dietPlans     map[string]dietplan.DietPlan
	fail          map[string]error // "members.UpdateDues" -> error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		accounts:      map[string]account.Account{},
		members:       map[string]member.Member{},
		bills:         map[string]billing.Bill{},
		packages:      map[string]feepackage.FeePackage{},
		notifications: map[string]notification.Notification{},
		supplements:   map[string]supplement.Supplement{},
		orders:        map[string]supplement.Order{},
		registrations: map[string]registration.Request{},
		outbox:        map[string]outbox.Entry{},
		dietPlans:     map[string]dietplan.DietPlan{},
		fail:          map[string]error{},
	}
}

func (db *fakeDB) check(op string) error {
	return db.fail[op]
}

func (db *fakeDB) stores() TxStores {
	return TxStores{
		Accounts:      fakeAccounts{db},
		Members:       fakeMembers{db},
		Bills:         fakeBills{db},
		Packages:      fakePackages{db},
		Notifications: fakeNotifications{db},
		Supplements:   fakeSupplements{db},
		Orders:        fakeOrders{db},
		Registrations: fakeRegistrations{db},
		Outbox:        fakeOutbox{db},
	}
}

func (db *fakeDB) atomic(ctx context.Context, fn func(ctx context.Context, s TxStores) error) error {
	snap := *db
	snap.accounts = maps.Clone(db.accounts)
	snap.members = maps.Clone(db.members)
	snap.bills = maps.Clone(db.bills)
	snap.packages = maps.Clone(db.packages)
	snap.notifications = maps.Clone(db.notifications)
	snap.supplements = maps.Clone(db.supplements)
	snap.orders = maps.Clone(db.orders)
	snap.registrations = maps.Clone(db.registrations)
	snap.outbox = maps.Clone(db.outbox)
	snap.dietPlans = maps.Clone(db.dietPlans)
	if err := fn(ctx, db.stores()); err != nil {
		*db = snap
		return err
	}
	return nil
}

type fakeAccounts struct{ db *fakeDB }

func (f fakeAccounts) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := f.db.accounts[id]
	if !ok {
		return account.Account{}, missing("account")
	}
	return a, nil
}

func (f fakeAccounts) GetByEmail(_ context.Context, email string) (account.Account, error) {
	for _, a := range f.db.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return account.Account{}, missing("account")
}

func (f fakeAccounts) Save(_ context.Context, a account.Account) error {
	if err := f.db.check("accounts.Save"); err != nil {
		return err
	}
	for id, other := range f.db.accounts {
		if id == a.ID {
			continue
		}
		if other.Email == a.Email {
			return accountStore.ErrEmailTaken
		}
		if other.AccountID == a.AccountID {
			return accountStore.ErrAccountIDTaken
		}
	}
	f.db.accounts[a.ID] = a
	return nil
}

func (f fakeAccounts) Delete(_ context.Context, id string) error {
	delete(f.db.accounts, id)
	return nil
}

func (f fakeAccounts) Count(_ context.Context, _ accountStore.ListFilter) (int, error) {
	return len(f.db.accounts), nil
}

type fakeMembers struct{ db *fakeDB }

func (f fakeMembers) GetByID(_ context.Context, id string) (member.Member, error) {
	m, ok := f.db.members[id]
	if !ok {
		return member.Member{}, missing("member")
	}
	return m, nil
}

func (f fakeMembers) Save(_ context.Context, m member.Member) error {
	if err := f.db.check("members.Save"); err != nil {
		return err
	}
	if prev, ok := f.db.members[m.ID]; ok {
		m.Dues = prev.Dues
	}
	f.db.members[m.ID] = m
	return nil
}

func (f fakeMembers) Delete(_ context.Context, id string) error {
	delete(f.db.members, id)
	return nil
}

func (f fakeMembers) UpdateDues(_ context.Context, id string, dues int64) error {
	if err := f.db.check("members.UpdateDues"); err != nil {
		return err
	}
	m, ok := f.db.members[id]
	if !ok {
		return missing("member")
	}
	m.Dues = dues
	f.db.members[id] = m
	return nil
}

func (f fakeMembers) RefreshStatuses(_ context.Context, today, now time.Time) (int64, error) {
	var n int64
	for id, m := range f.db.members {
		if m.EndDate.IsZero() {
			continue
		}
		if m.RecalculateStatus(today) {
			m.UpdatedAt = now
			f.db.members[id] = m
			n++
		}
	}
	return n, nil
}

type fakeBills struct{ db *fakeDB }

func (f fakeBills) GetByID(_ context.Context, id string) (billing.Bill, error) {
	b, ok := f.db.bills[id]
	if !ok {
		return billing.Bill{}, missing("bill")
	}
	return b, nil
}

func (f fakeBills) Save(_ context.Context, b billing.Bill) error {
	if err := f.db.check("bills.Save"); err != nil {
		return err
	}
	for id, other := range f.db.bills {
		if id != b.ID && other.BillNumber == b.BillNumber {
			return billStore.ErrBillNumberTaken
		}
	}
	f.db.bills[b.ID] = b
	return nil
}

func (f fakeBills) Delete(_ context.Context, id string) error {
	delete(f.db.bills, id)
	return nil
}

func (f fakeBills) SumUnpaidForMember(_ context.Context, memberID string) (int64, error) {
	var bills []billing.Bill
	for _, b := range f.db.bills {
		if b.MemberID == memberID {
			bills = append(bills, b)
		}
	}
	return billing.SumUnpaid(bills), nil
}

func (f fakeBills) MarkOverdue(_ context.Context, today, now time.Time) (int64, error) {
	var n int64
	for id, b := range f.db.bills {
		if b.MarkOverdue(today) {
			b.UpdatedAt = now
			f.db.bills[id] = b
			n++
		}
	}
	return n, nil
}

func (f fakeBills) List(_ context.Context, filter billStore.ListFilter) ([]billing.Bill, error) {
	var out []billing.Bill
	for _, b := range f.db.bills {
		if filter.MemberID != "" && b.MemberID != filter.MemberID {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakePackages struct{ db *fakeDB }

func (f fakePackages) GetByID(_ context.Context, id string) (feepackage.FeePackage, error) {
	p, ok := f.db.packages[id]
	if !ok {
		return feepackage.FeePackage{}, missing("fee package")
	}
	return p, nil
}

func (f fakePackages) Save(_ context.Context, p feepackage.FeePackage) error {
	f.db.packages[p.ID] = p
	return nil
}

func (f fakePackages) ExpireLapsed(_ context.Context, today, now time.Time) (int64, error) {
	var n int64
	for id, p := range f.db.packages {
		if p.Status == feepackage.StatusActive && p.RecalculateStatus(today) {
			p.UpdatedAt = now
			f.db.packages[id] = p
			n++
		}
	}
	return n, nil
}

func (f fakePackages) List(_ context.Context, filter packageStore.ListFilter) ([]feepackage.FeePackage, error) {
	var out []feepackage.FeePackage
	for _, p := range f.db.packages {
		if filter.MemberID == "" || p.MemberID == filter.MemberID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeNotifications struct{ db *fakeDB }

func (f fakeNotifications) GetByID(_ context.Context, id string) (notification.Notification, error) {
	n, ok := f.db.notifications[id]
	if !ok {
		return notification.Notification{}, missing("notification")
	}
	return n, nil
}

func (f fakeNotifications) Save(_ context.Context, n notification.Notification) error {
	f.db.notifications[n.ID] = n
	return nil
}

func (f fakeNotifications) Delete(_ context.Context, id string) error {
	delete(f.db.notifications, id)
	return nil
}

func (f fakeNotifications) ListScheduledUntil(_ context.Context, date time.Time) ([]notification.Notification, error) {
	var out []notification.Notification
	for _, n := range f.db.notifications {
		if n.Status == notification.StatusScheduled && !n.ScheduledDate.After(date) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeSupplements struct{ db *fakeDB }

func (f fakeSupplements) GetByID(_ context.Context, id string) (supplement.Supplement, error) {
	s, ok := f.db.supplements[id]
	if !ok {
		return supplement.Supplement{}, missing("supplement")
	}
	return s, nil
}

func (f fakeSupplements) Save(_ context.Context, s supplement.Supplement) error {
	f.db.supplements[s.ID] = s
	return nil
}

func (f fakeSupplements) Delete(_ context.Context, id string) error {
	delete(f.db.supplements, id)
	return nil
}

func (f fakeSupplements) UpdateStock(_ context.Context, id string, stock int, now time.Time) error {
	s, ok := f.db.supplements[id]
	if !ok {
		return missing("supplement")
	}
	s.Stock = stock
	s.UpdatedAt = now
	f.db.supplements[id] = s
	return nil
}

type fakeOrders struct{ db *fakeDB }

func (f fakeOrders) GetByID(_ context.Context, id string) (supplement.Order, error) {
	o, ok := f.db.orders[id]
	if !ok {
		return supplement.Order{}, missing("order")
	}
	return o, nil
}

func (f fakeOrders) Save(_ context.Context, o supplement.Order) error {
	if err := f.db.check("orders.Save"); err != nil {
		return err
	}
	f.db.orders[o.ID] = o
	return nil
}

func (f fakeOrders) List(_ context.Context, filter supplementStore.OrderFilter) ([]supplement.Order, error) {
	var out []supplement.Order
	for _, o := range f.db.orders {
		if filter.MemberID == "" || o.MemberID == filter.MemberID {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeRegistrations struct{ db *fakeDB }

func (f fakeRegistrations) GetByID(_ context.Context, id string) (registration.Request, error) {
	r, ok := f.db.registrations[id]
	if !ok {
		return registration.Request{}, missing("registration request")
	}
	return r, nil
}

func (f fakeRegistrations) GetPendingByEmail(_ context.Context, email string) (registration.Request, error) {
	for _, r := range f.db.registrations {
		if r.Email == email && r.Status == registration.StatusPending {
			return r, nil
		}
	}
	return registration.Request{}, missing("registration request")
}

func (f fakeRegistrations) Save(_ context.Context, r registration.Request) error {
	f.db.registrations[r.ID] = r
	return nil
}

func (f fakeRegistrations) List(_ context.Context, filter registrationStore.ListFilter) ([]registration.Request, error) {
	var out []registration.Request
	for _, r := range f.db.registrations {
		if filter.Status == "" || r.Status == filter.Status {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeOutbox struct{ db *fakeDB }

func (f fakeOutbox) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	e, ok := f.db.outbox[id]
	if !ok {
		return outbox.Entry{}, missing("outbox entry")
	}
	return e, nil
}

func (f fakeOutbox) Save(_ context.Context, e outbox.Entry) error {
	f.db.outbox[e.ID] = e
	return nil
}

func (f fakeOutbox) ListRetryable(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, e := range f.db.outbox {
		if e.CanRetry() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeSender records sends and fails for addresses listed in failFor.
type fakeSender struct {
	sent    []emailAdapter.SendRequest
	failFor map[string]bool
}

func (s *fakeSender) Send(_ context.Context, req emailAdapter.SendRequest) (emailAdapter.SendResult, error) {
	for _, to := range req.To {
		if s.failFor[to] {
			return emailAdapter.SendResult{}, fmt.Errorf("mailbox unavailable: %s", to)
		}
	}
	s.sent = append(s.sent, req)
	return emailAdapter.SendResult{MessageID: fmt.Sprintf("msg-%d", len(s.sent)), SentAt: fixedTime}, nil
}

func (s *fakeSender) SendBatch(ctx context.Context, reqs []emailAdapter.SendRequest) ([]emailAdapter.SendResult, error) {
	var out []emailAdapter.SendResult
	for _, r := range reqs {
		res, err := s.Send(ctx, r)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// fakeFiles is an in-memory FileStore.
type fakeFiles struct {
	files map[string]string
}

func (f *fakeFiles) Put(_ context.Context, key string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.files[key] = string(b)
	return "/uploads/" + key, nil
}

func (f *fakeFiles) Remove(_ context.Context, key string) error {
	delete(f.files, key)
	return nil
}

func seedMember(db *fakeDB, id, first string, end time.Time) member.Member {
	m := member.Member{
		ID:        id,
		FirstName: first,
		LastName:  "Kumar",
		Email:     strings.ToLower(first) + "@gym.in",
		StartDate: end.AddDate(0, -1, 0),
		EndDate:   end,
		Status:    member.StatusActive,
		CreatedAt: fixedTime,
		UpdatedAt: fixedTime,
	}
	m.RecalculateStatus(today)
	db.members[id] = m
	return m
}

type fakeDietPlans struct{ db *fakeDB }

func (f fakeDietPlans) GetByID(_ context.Context, id string) (dietplan.DietPlan, error) {
	p, ok := f.db.dietPlans[id]
	if !ok {
		return dietplan.DietPlan{}, missing("diet plan")
	}
	return p, nil
}

func (f fakeDietPlans) Save(_ context.Context, p dietplan.DietPlan) error {
	if err := f.db.check("dietPlans.Save"); err != nil {
		return err
	}
	f.db.dietPlans[p.ID] = p
	return nil
}

func (f fakeDietPlans) Delete(_ context.Context, id string) error {
	if _, ok := f.db.dietPlans[id]; !ok {
		return missing("diet plan")
	}
	delete(f.db.dietPlans, id)
	return nil
}
