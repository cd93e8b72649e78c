package orchestrators

import (
	"context"
	"errors"
	"testing"

	"gymdesk/internal/domain/feepackage"
	"gymdesk/internal/domain/member"
)

func packageDeps(db *fakeDB) PackageDeps {
	return PackageDeps{Atomic: db.atomic, GenerateID: sequenceIDs("pkg"), Clock: testClock}
}

// TestExecuteAssignPackage_MonthEndClamp tests Jan 31 + 1 month and the member overwrite.
func TestExecuteAssignPackage_MonthEndClamp(t *testing.T) {
	db := newFakeDB()
	seedMember(db, "m1", "Ravi", day(2026, 6, 1))

	p, err := ExecuteAssignPackage(context.Background(), AssignPackageInput{
		MemberID: "m1", PackageType: "basic", StartDate: day(2026, 1, 31),
	}, packageDeps(db))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.EndDate.Equal(day(2026, 2, 28)) {
		t.Errorf("EndDate = %s, want 2026-02-28", p.EndDate.Format("2006-01-02"))
	}
	if p.Status != feepackage.StatusExpired {
		t.Errorf("package ended before today, got %s", p.Status)
	}
	if p.Amount != feepackage.Catalog["basic"].DefaultAmount || p.PackageName != "Basic Monthly" {
		t.Errorf("catalog defaults not applied: %+v", p)
	}

	m := db.members["m1"]
	if m.MembershipType != member.TypeBasic || !m.StartDate.Equal(p.StartDate) || !m.EndDate.Equal(p.EndDate) || m.Status != member.StatusExpired {
		t.Errorf("member not overwritten from package: %+v", m)
	}
	if m.FirstName != "Ravi" || m.Email != "ravi@gym.in" {
		t.Error("assignment must only touch membership fields")
	}
}

// TestExecuteAssignPackage_Active tests an annual plan with a custom amount.
func TestExecuteAssignPackage_Active(t *testing.T) {
	db := newFakeDB()
	seedMember(db, "m1", "Ravi", day(2026, 1, 1))

	p, err := ExecuteAssignPackage(context.Background(), AssignPackageInput{
		MemberID: "m1", PackageType: "Platinum", Amount: 1200000, StartDate: day(2026, 2, 15),
	}, packageDeps(db))
	if err != nil {
		t.Fatal(err)
	}
	if !p.EndDate.Equal(day(2027, 2, 15)) || p.Status != feepackage.StatusActive || p.Amount != 1200000 {
		t.Errorf("unexpected package: %+v", p)
	}
	if p.MemberName != "Ravi Kumar" {
		t.Errorf("MemberName = %q", p.MemberName)
	}
	if db.members["m1"].Status != member.StatusActive {
		t.Errorf("member status = %s, want Active", db.members["m1"].Status)
	}
}

// TestExecuteAssignPackage_Errors tests unknown plan and missing member.
func TestExecuteAssignPackage_Errors(t *testing.T) {
	db := newFakeDB()
	seedMember(db, "m1", "Ravi", day(2026, 6, 1))

	if _, err := ExecuteAssignPackage(context.Background(), AssignPackageInput{MemberID: "m1", PackageType: "diamond", StartDate: today}, packageDeps(db)); !errors.Is(err, feepackage.ErrUnknownPackage) {
		t.Errorf("expected ErrUnknownPackage, got %v", err)
	}
	if _, err := ExecuteAssignPackage(context.Background(), AssignPackageInput{MemberID: "ghost", PackageType: "gold", StartDate: today}, packageDeps(db)); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}
	if len(db.packages) != 0 {
		t.Error("no package should be stored")
	}
}

// TestExecuteCancelPackage tests cancellation leaves the member alone.
func TestExecuteCancelPackage(t *testing.T) {
	db := newFakeDB()
	seedMember(db, "m1", "Ravi", day(2026, 1, 1))
	deps := packageDeps(db)
	p, err := ExecuteAssignPackage(context.Background(), AssignPackageInput{MemberID: "m1", PackageType: "gold", StartDate: today}, deps)
	if err != nil {
		t.Fatal(err)
	}
	before := db.members["m1"]

	got, err := ExecuteCancelPackage(context.Background(), p.ID, deps)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != feepackage.StatusCancelled {
		t.Errorf("expected Cancelled, got %s", got.Status)
	}
	if after := db.members["m1"]; !after.EndDate.Equal(before.EndDate) || after.Status != before.Status {
		t.Error("cancel must not change the member")
	}
	if _, err := ExecuteCancelPackage(context.Background(), p.ID, deps); !errors.Is(err, feepackage.ErrAlreadyCancelled) {
		t.Errorf("expected ErrAlreadyCancelled, got %v", err)
	}
}
