package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"gymdesk/internal/domain/member"
)

var (
	ErrMemberNotFound   = errors.New("member not found")
	ErrUnsupportedPhoto = errors.New("photo must be a .jpg, .jpeg, .png or .webp file")
)

// photoExtensions lists accepted profile photo types.
var photoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// AddMemberInput carries a new member profile.
type AddMemberInput struct {
	AccountID        string
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	DateOfBirth      time.Time
	Gender           string
	Address          string
	City             string
	State            string
	ZipCode          string
	EmergencyContact string
	EmergencyPhone   string
	MembershipType   string
	StartDate        time.Time
	EndDate          time.Time
	Status           string // empty derives from EndDate
}

// MemberDeps holds dependencies for the member orchestrators.
type MemberDeps struct {
	MemberStore MemberStore
	GenerateID  func() string
	Clock       Clock
}

// ExecuteAddMember persists a new member profile.
// PRE: FirstName non-empty, Email contains '@'
// POST: Member saved with Dues 0; Status derived from EndDate unless given
func ExecuteAddMember(ctx context.Context, input AddMemberInput, deps MemberDeps) (member.Member, error) {
	now := deps.Clock.now()
	m := member.Member{
		ID:               deps.GenerateID(),
		AccountID:        input.AccountID,
		FirstName:        strings.TrimSpace(input.FirstName),
		LastName:         strings.TrimSpace(input.LastName),
		Email:            strings.TrimSpace(input.Email),
		Phone:            strings.TrimSpace(input.Phone),
		DateOfBirth:      input.DateOfBirth,
		Gender:           input.Gender,
		Address:          input.Address,
		City:             input.City,
		State:            input.State,
		ZipCode:          input.ZipCode,
		EmergencyContact: input.EmergencyContact,
		EmergencyPhone:   input.EmergencyPhone,
		MembershipType:   input.MembershipType,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		Status:           input.Status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if m.Status == "" {
		m.Status = member.StatusActive
		m.RecalculateStatus(deps.Clock.Today())
	}
	if err := m.Validate(); err != nil {
		return member.Member{}, err
	}
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, err
	}

	slog.Info("member_event", "event", "member_added", "member_id", m.ID, "status", m.Status)
	return m, nil
}

// UpdateMemberInput carries a partial update. Nil fields are left unchanged.
type UpdateMemberInput struct {
	ID               string
	FirstName        *string
	LastName         *string
	Email            *string
	Phone            *string
	DateOfBirth      *time.Time
	Gender           *string
	Address          *string
	City             *string
	State            *string
	ZipCode          *string
	EmergencyContact *string
	EmergencyPhone   *string
	MembershipType   *string
	StartDate        *time.Time
	EndDate          *time.Time
	Status           *string
}

// ExecuteUpdateMember merges a partial update into a member profile.
// PRE: input.ID names an existing member
// POST: Status is recomputed from EndDate whenever EndDate changes or the
// member is set back to Active/Expired; Inactive survives recomputation
func ExecuteUpdateMember(ctx context.Context, input UpdateMemberInput, deps MemberDeps) (member.Member, error) {
	m, err := deps.MemberStore.GetByID(ctx, input.ID)
	if err != nil {
		return member.Member{}, notFound(err, ErrMemberNotFound)
	}

	setString(&m.FirstName, input.FirstName)
	setString(&m.LastName, input.LastName)
	setString(&m.Email, input.Email)
	setString(&m.Phone, input.Phone)
	setString(&m.Gender, input.Gender)
	setString(&m.Address, input.Address)
	setString(&m.City, input.City)
	setString(&m.State, input.State)
	setString(&m.ZipCode, input.ZipCode)
	setString(&m.EmergencyContact, input.EmergencyContact)
	setString(&m.EmergencyPhone, input.EmergencyPhone)
	setString(&m.MembershipType, input.MembershipType)
	if input.DateOfBirth != nil {
		m.DateOfBirth = *input.DateOfBirth
	}
	if input.StartDate != nil {
		m.StartDate = *input.StartDate
	}
	endChanged := false
	if input.EndDate != nil && !input.EndDate.Equal(m.EndDate) {
		m.EndDate = *input.EndDate
		endChanged = true
	}
	if input.Status != nil {
		m.Status = *input.Status
	}
	if endChanged || (input.Status != nil && *input.Status != member.StatusInactive) {
		m.RecalculateStatus(deps.Clock.Today())
	}
	m.UpdatedAt = deps.Clock.now()

	if err := m.Validate(); err != nil {
		return member.Member{}, err
	}
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, err
	}

	slog.Info("member_event", "event", "member_updated", "member_id", m.ID, "status", m.Status, "end_changed", endChanged)
	return m, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// ExecuteDeleteMember removes a member profile. Bills, packages and orders
// keep their denormalized member name.
// PRE: id names an existing member
// POST: Member removed; nothing else changes
func ExecuteDeleteMember(ctx context.Context, id string, store MemberStore) error {
	if _, err := store.GetByID(ctx, id); err != nil {
		return notFound(err, ErrMemberNotFound)
	}
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("member_event", "event", "member_deleted", "member_id", id)
	return nil
}

// FileStore stores uploaded files under a key and serves them by URL.
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader) (url string, err error)
	Remove(ctx context.Context, key string) error
}

// AttachPhotoInput carries an uploaded profile photo.
type AttachPhotoInput struct {
	MemberID string
	Filename string
	Body     io.Reader
}

// AttachPhotoDeps holds dependencies for AttachPhoto.
type AttachPhotoDeps struct {
	MemberStore MemberStore
	Files       FileStore
	Clock       Clock
}

// ExecuteAttachPhoto stores a photo under members/{id}/ and records its URL.
// PRE: member exists; Filename has an accepted image extension
// POST: PhotoURL points at the stored file; on a failed profile write the
// stored file is removed again
func ExecuteAttachPhoto(ctx context.Context, input AttachPhotoInput, deps AttachPhotoDeps) (member.Member, error) {
	ext := strings.ToLower(filepath.Ext(input.Filename))
	if !photoExtensions[ext] {
		return member.Member{}, ErrUnsupportedPhoto
	}
	m, err := deps.MemberStore.GetByID(ctx, input.MemberID)
	if err != nil {
		return member.Member{}, notFound(err, ErrMemberNotFound)
	}

	now := deps.Clock.now()
	key := fmt.Sprintf("members/%s/%d%s", m.ID, now.UnixNano(), ext)
	url, err := deps.Files.Put(ctx, key, input.Body)
	if err != nil {
		return member.Member{}, fmt.Errorf("store photo: %w", err)
	}

	m.PhotoURL = url
	m.UpdatedAt = now
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		if rmErr := deps.Files.Remove(ctx, key); rmErr != nil {
			slog.Error("member_event", "event", "orphan_photo", "key", key, "error", rmErr)
		}
		return member.Member{}, err
	}

	slog.Info("member_event", "event", "photo_attached", "member_id", m.ID, "key", key)
	return m, nil
}

// ExecuteCheckIn records a visit at the front desk.
// PRE: member exists and is Active as of today
// POST: LastCheckIn = now
func ExecuteCheckIn(ctx context.Context, memberID string, deps MemberDeps) (member.Member, error) {
	m, err := deps.MemberStore.GetByID(ctx, memberID)
	if err != nil {
		return member.Member{}, notFound(err, ErrMemberNotFound)
	}
	if m.EffectiveStatus(deps.Clock.Today()) != member.StatusActive {
		slog.Info("member_event", "event", "checkin_refused", "member_id", m.ID, "status", m.EffectiveStatus(deps.Clock.Today()))
		return member.Member{}, member.ErrNotActive
	}
	now := deps.Clock.now()
	m.LastCheckIn = now
	m.UpdatedAt = now
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, err
	}
	slog.Info("member_event", "event", "checked_in", "member_id", m.ID)
	return m, nil
}
