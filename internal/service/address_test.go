package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/desi_occasions/internal/transport"
)

func TestAddressService(t *testing.T) {
	t.Parallel()

	svc := &AddressService{Repo: newTestRepo(t)}
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	empty, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = svc.Create(ctx, owner, transport.AddressRequest{Label: "Home", Address: "  "})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(ctx, owner, transport.AddressRequest{Address: "1 Road", MapURL: "maps"})
	assert.ErrorIs(t, err, ErrValidation)

	a, err := svc.Create(ctx, owner, transport.AddressRequest{Label: "Home", Address: "1 Road", MapURL: "https://maps.example/1"})
	require.NoError(t, err)
	require.NotNil(t, a.MapURL)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.ErrorIs(t, svc.Delete(ctx, other, a.ID), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, owner, uuid.New()), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, owner, a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, owner, a.ID), ErrNotFound)
}
