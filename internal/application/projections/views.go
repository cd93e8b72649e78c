package projections

import (
	"time"

	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/billing"
	"gymdesk/internal/domain/dietplan"
	"gymdesk/internal/domain/feepackage"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/membership"
	"gymdesk/internal/domain/notification"
	"gymdesk/internal/domain/registration"
	"gymdesk/internal/domain/supplement"
)

// MemberView is a member as shown to staff, with the status derived for today.
type MemberView struct {
	ID               string     `json:"id"`
	AccountID        string     `json:"accountId,omitempty"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	DateOfBirth      string     `json:"dateOfBirth"`
	Gender           string     `json:"gender"`
	Address          string     `json:"address"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	ZipCode          string     `json:"zipCode"`
	EmergencyContact string     `json:"emergencyContact"`
	EmergencyPhone   string     `json:"emergencyPhone"`
	MembershipType   string     `json:"membershipType"`
	StartDate        string     `json:"startDate"`
	EndDate          string     `json:"endDate"`
	Status           string     `json:"status"`
	Dues             int64      `json:"dues"`
	DuesDisplay      string     `json:"duesDisplay"`
	PhotoURL         string     `json:"photoUrl,omitempty"`
	LastCheckIn      *time.Time `json:"lastCheckIn,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// NewMemberView derives the view of m as of today.
func NewMemberView(m member.Member, today time.Time) MemberView {
	v := MemberView{
		ID:               m.ID,
		AccountID:        m.AccountID,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Name:             m.FullName(),
		Email:            m.Email,
		Phone:            m.Phone,
		DateOfBirth:      membership.FormatDate(m.DateOfBirth),
		Gender:           m.Gender,
		Address:          m.Address,
		City:             m.City,
		State:            m.State,
		ZipCode:          m.ZipCode,
		EmergencyContact: m.EmergencyContact,
		EmergencyPhone:   m.EmergencyPhone,
		MembershipType:   m.MembershipType,
		StartDate:        membership.FormatDate(m.StartDate),
		EndDate:          membership.FormatDate(m.EndDate),
		Status:           m.EffectiveStatus(today),
		Dues:             m.Dues,
		DuesDisplay:      billing.FormatAmount(m.Dues),
		PhotoURL:         m.PhotoURL,
		CreatedAt:        m.CreatedAt,
	}
	if !m.LastCheckIn.IsZero() {
		t := m.LastCheckIn
		v.LastCheckIn = &t
	}
	return v
}

// BillView is a bill with its status derived for today.
type BillView struct {
	ID            string    `json:"id"`
	MemberID      string    `json:"memberId"`
	MemberName    string    `json:"memberName"`
	BillNumber    string    `json:"billNumber"`
	Amount        int64     `json:"amount"`
	AmountDisplay string    `json:"amountDisplay"`
	Description   string    `json:"description"`
	DueDate       string    `json:"dueDate"`
	Status        string    `json:"status"`
	PaymentDate   string    `json:"paymentDate,omitempty"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewBillView derives the view of b as of today.
func NewBillView(b billing.Bill, today time.Time) BillView {
	return BillView{
		ID:            b.ID,
		MemberID:      b.MemberID,
		MemberName:    b.MemberName,
		BillNumber:    b.BillNumber,
		Amount:        b.Amount,
		AmountDisplay: billing.FormatAmount(b.Amount),
		Description:   b.Description,
		DueDate:       membership.FormatDate(b.DueDate),
		Status:        b.EffectiveStatus(today),
		PaymentDate:   membership.FormatDate(b.PaymentDate),
		PaymentMethod: b.PaymentMethod,
		CreatedAt:     b.CreatedAt,
	}
}

// PackageView is a fee package with its status derived for today.
type PackageView struct {
	ID          string `json:"id"`
	MemberID    string `json:"memberId"`
	MemberName  string `json:"memberName"`
	PackageType string `json:"packageType"`
	PackageName string `json:"packageName"`
	Amount      int64  `json:"amount"`
	Duration    int    `json:"duration"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Status      string `json:"status"`
}

// NewPackageView derives the view of p as of today. Cancelled stays Cancelled.
func NewPackageView(p feepackage.FeePackage, today time.Time) PackageView {
	status := p.Status
	if status != feepackage.StatusCancelled {
		status = membership.CalculateStatus(p.EndDate, today)
	}
	return PackageView{
		ID:          p.ID,
		MemberID:    p.MemberID,
		MemberName:  p.MemberName,
		PackageType: p.PackageType,
		PackageName: p.PackageName,
		Amount:      p.Amount,
		Duration:    p.Duration,
		StartDate:   membership.FormatDate(p.StartDate),
		EndDate:     membership.FormatDate(p.EndDate),
		Status:      status,
	}
}

// NotificationView is a notification as listed to staff and members.
type NotificationView struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Type           string     `json:"type"`
	TargetType     string     `json:"targetType"`
	MemberID       string     `json:"memberId,omitempty"`
	MemberName     string     `json:"memberName,omitempty"`
	ScheduledDate  string     `json:"scheduledDate"`
	SendTime       string     `json:"sendTime,omitempty"`
	IsRecurring    bool       `json:"isRecurring"`
	RecurrenceType string     `json:"recurrenceType,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	RecipientCount int        `json:"recipientCount"`
}

// NewNotificationView converts n for output.
func NewNotificationView(n notification.Notification) NotificationView {
	v := NotificationView{
		ID:             n.ID,
		Title:          n.Title,
		Message:        n.Message,
		Type:           n.Type,
		TargetType:     n.TargetType,
		MemberID:       n.MemberID,
		MemberName:     n.MemberName,
		ScheduledDate:  membership.FormatDate(n.ScheduledDate),
		SendTime:       n.SendTime,
		IsRecurring:    n.IsRecurring,
		RecurrenceType: n.RecurrenceType,
		Status:         n.Status,
		RecipientCount: n.RecipientCount,
	}
	if !n.SentAt.IsZero() {
		t := n.SentAt
		v.SentAt = &t
	}
	return v
}

// SupplementView is a catalog entry.
type SupplementView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Brand        string `json:"brand"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Price        int64  `json:"price"`
	PriceDisplay string `json:"priceDisplay"`
	Stock        int    `json:"stock"`
	Barcode      string `json:"barcode,omitempty"`
	ExpiryDate   string `json:"expiryDate,omitempty"`
	InStock      bool   `json:"inStock"`
}

// NewSupplementView converts s for output.
func NewSupplementView(s supplement.Supplement) SupplementView {
	return SupplementView{
		ID:           s.ID,
		Name:         s.Name,
		Brand:        s.Brand,
		Category:     s.Category,
		Description:  s.Description,
		Price:        s.Price,
		PriceDisplay: billing.FormatAmount(s.Price),
		Stock:        s.Stock,
		Barcode:      s.Barcode,
		ExpiryDate:   membership.FormatDate(s.ExpiryDate),
		InStock:      s.InStock(),
	}
}

// OrderView is a supplement order.
type OrderView struct {
	ID            string                 `json:"id"`
	MemberID      string                 `json:"memberId,omitempty"`
	MemberName    string                 `json:"memberName,omitempty"`
	Items         []supplement.OrderItem `json:"items"`
	TotalAmount   int64                  `json:"totalAmount"`
	TotalDisplay  string                 `json:"totalDisplay"`
	Status        string                 `json:"status"`
	OrderDate     string                 `json:"orderDate"`
	PaymentMethod string                 `json:"paymentMethod,omitempty"`
}

// NewOrderView converts o for output.
func NewOrderView(o supplement.Order) OrderView {
	items := o.Items
	if items == nil {
		items = []supplement.OrderItem{}
	}
	return OrderView{
		ID:            o.ID,
		MemberID:      o.MemberID,
		MemberName:    o.MemberName,
		Items:         items,
		TotalAmount:   o.TotalAmount,
		TotalDisplay:  billing.FormatAmount(o.TotalAmount),
		Status:        o.Status,
		OrderDate:     membership.FormatDate(o.OrderDate),
		PaymentMethod: o.PaymentMethod,
	}
}

// RegistrationView is a sign-up request without its password hash.
type RegistrationView struct {
	ID              string     `json:"id"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Role            string     `json:"role"`
	Status          string     `json:"status"`
	RequestedAt     time.Time  `json:"requestedAt"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy      string     `json:"reviewedBy,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}

// NewRegistrationView converts r for output.
func NewRegistrationView(r registration.Request) RegistrationView {
	v := RegistrationView{
		ID:              r.ID,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           r.Email,
		Phone:           r.Phone,
		Role:            r.Role,
		Status:          r.Status,
		RequestedAt:     r.RequestedAt,
		ReviewedBy:      r.ReviewedBy,
		RejectionReason: r.RejectionReason,
	}
	if !r.ReviewedAt.IsZero() {
		t := r.ReviewedAt
		v.ReviewedAt = &t
	}
	return v
}

// AccountView is an account without credentials.
type AccountView struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Locked    bool      `json:"locked"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewAccountView converts a for output.
func NewAccountView(a account.Account, now time.Time) AccountView {
	email := a.DisplayEmail
	if email == "" {
		email = a.Email
	}
	return AccountView{
		ID:        a.ID,
		AccountID: a.AccountID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     email,
		Role:      a.Role,
		Locked:    a.IsLocked(now),
		CreatedAt: a.CreatedAt,
	}
}

// DietPlanView is a diet plan with its notes rendered for today.
type DietPlanView struct {
	ID            string          `json:"id"`
	MemberID      string          `json:"memberId"`
	MemberName    string          `json:"memberName"`
	Title         string          `json:"title"`
	Goal          string          `json:"goal"`
	DailyCalories int             `json:"dailyCalories"`
	MealCalories  int             `json:"mealCalories"`
	Meals         []dietplan.Meal `json:"meals"`
	Notes         string          `json:"notes"`
	StartDate     string          `json:"startDate"`
	EndDate       string          `json:"endDate,omitempty"`
	Status        string          `json:"status"`
	Current       bool            `json:"current"`
}

// NewDietPlanView builds the view of p as of today.
func NewDietPlanView(p dietplan.DietPlan, today time.Time) DietPlanView {
	meals := p.Meals
	if meals == nil {
		meals = []dietplan.Meal{}
	}
	return DietPlanView{
		ID:            p.ID,
		MemberID:      p.MemberID,
		MemberName:    p.MemberName,
		Title:         p.Title,
		Goal:          p.Goal,
		DailyCalories: p.DailyCalories,
		MealCalories:  p.MealCalories(),
		Meals:         meals,
		Notes:         p.Notes,
		StartDate:     membership.FormatDate(p.StartDate),
		EndDate:       membership.FormatDate(p.EndDate),
		Status:        p.Status,
		Current:       p.IsCurrent(today),
	}
}
