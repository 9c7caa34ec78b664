package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/store"
	"github.com/iftf/duoverkoop/internal/utils"
)

// ErrUnknownGroup is returned for group names outside Groups.
var ErrUnknownGroup = errors.New("unknown group")

// Groups lists the assignable staff groups.
var Groups = []string{model.GroupPOSStaff, model.GroupSupportStaff, model.GroupAdmin}

// ValidGroup reports whether g is one of Groups.
func ValidGroup(g string) bool {
	for _, known := range Groups {
		if g == known {
			return true
		}
	}
	return false
}

// StaffService manages staff accounts from the admin CLI.
type StaffService struct {
	st         store.Store
	bcryptCost int
}

// NewStaffService returns a StaffService hashing passwords with cost.
func NewStaffService(st store.Store, bcryptCost int) *StaffService {
	return &StaffService{st: st, bcryptCost: bcryptCost}
}

// CreateUser adds an active account.  An empty group is allowed and
// grants nothing until AssignGroup is run.
func (s *StaffService) CreateUser(ctx context.Context, username, email, password, group string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username is required")
	}
	if group != "" && !ValidGroup(group) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{Username: username, Email: email, PasswordHash: hash, Group: group, IsActive: true}
	if err := s.st.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}
	return u, nil
}

// AssignGroup moves username into group, replacing any previous group.
func (s *StaffService) AssignGroup(ctx context.Context, username, group string) (*model.User, error) {
	if !ValidGroup(group) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	u, err := s.st.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", username, err)
	}
	if err := s.st.SetUserGroup(ctx, u.ID, group); err != nil {
		return nil, err
	}
	u.Group = group
	return u, nil
}

// UsersWithoutGroup lists accounts that cannot do anything yet.
func (s *StaffService) UsersWithoutGroup(ctx context.Context) ([]model.User, error) {
	users, err := s.st.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.User
	for _, u := range users {
		if u.Group == "" {
			out = append(out, u)
		}
	}
	return out, nil
}
