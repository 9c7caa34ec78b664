package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/store"
	"github.com/iftf/duoverkoop/internal/store/memory"
	"github.com/iftf/duoverkoop/internal/utils"
)

func TestCapabilitiesFor(t *testing.T) {
	assert.Equal(t, Capabilities{CanCreate: true, CanView: true}, CapabilitiesFor(model.GroupPOSStaff))
	assert.Equal(t, Capabilities{CanCreate: true, CanView: true, CanEdit: true, CanExport: true}, CapabilitiesFor(model.GroupSupportStaff))
	assert.Equal(t, Capabilities{}, CapabilitiesFor(""))
	assert.Equal(t, Capabilities{}, CapabilitiesFor("pos staff"))
}

func TestStaffService(t *testing.T) {
	st := memory.New()
	s := NewStaffService(st, 4)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, " jan ", "jan@example.com", "long enough", "")
	require.NoError(t, err)
	assert.Equal(t, "jan", u.Username)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "long enough"))

	_, err = s.CreateUser(ctx, "jan", "", "long enough", "")
	assert.ErrorIs(t, err, store.ErrConflict)
	_, err = s.CreateUser(ctx, "piet", "", "long enough", "Cashiers")
	assert.ErrorIs(t, err, ErrUnknownGroup)

	loose, err := s.UsersWithoutGroup(ctx)
	require.NoError(t, err)
	require.Len(t, loose, 1)

	_, err = s.AssignGroup(ctx, "jan", "Cashiers")
	assert.ErrorIs(t, err, ErrUnknownGroup)
	_, err = s.AssignGroup(ctx, "ghost", model.GroupPOSStaff)
	assert.ErrorIs(t, err, store.ErrNotFound)

	u, err = s.AssignGroup(ctx, "jan", model.GroupPOSStaff)
	require.NoError(t, err)
	assert.Equal(t, model.GroupPOSStaff, u.Group)
	u, err = s.AssignGroup(ctx, "jan", model.GroupSupportStaff)
	require.NoError(t, err)
	stored, err := st.GetUserByUsername(ctx, "jan")
	require.NoError(t, err)
	assert.Equal(t, model.GroupSupportStaff, stored.Group)

	loose, err = s.UsersWithoutGroup(ctx)
	require.NoError(t, err)
	assert.Empty(t, loose)
}
