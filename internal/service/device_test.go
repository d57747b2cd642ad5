package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurowatch-systems/neurowatch/internal/models"
	"github.com/neurowatch-systems/neurowatch/internal/repository"
)

func TestDeviceService_Register(t *testing.T) {
	svc := NewDeviceService(repository.NewInMemoryRepository())

	device, err := svc.Register(context.Background(), "user-1", &models.RegisterDeviceRequest{
		DeviceID: "wearable-1",
		Label:    "left wrist",
	})
	require.NoError(t, err)

	assert.Equal(t, "wearable-1", device.DeviceID)
	assert.Equal(t, "user-1", device.OwnerID)
	assert.Equal(t, "left wrist", device.Label)
}

func TestDeviceService_Register_LabelDefaultsToDeviceID(t *testing.T) {
	svc := NewDeviceService(repository.NewInMemoryRepository())

	device, err := svc.Register(context.Background(), "user-1", &models.RegisterDeviceRequest{
		DeviceID: "wearable-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "wearable-1", device.Label)
}

func TestDeviceService_Register_DeviceCap(t *testing.T) {
	svc := NewDeviceService(repository.NewInMemoryRepository())
	ctx := context.Background()

	for i := 0; i < models.MaxDevicesPerUser; i++ {
		_, err := svc.Register(ctx, "user-1", &models.RegisterDeviceRequest{
			DeviceID: fmt.Sprintf("wearable-%d", i),
		})
		require.NoError(t, err)
	}

	_, err := svc.Register(ctx, "user-1", &models.RegisterDeviceRequest{DeviceID: "one-too-many"})
	assert.ErrorIs(t, err, ErrDeviceLimit)

	// The cap is per user, not global.
	_, err = svc.Register(ctx, "user-2", &models.RegisterDeviceRequest{DeviceID: "user2-wearable"})
	assert.NoError(t, err)
}

func TestDeviceService_Register_DuplicateDeviceID(t *testing.T) {
	svc := NewDeviceService(repository.NewInMemoryRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, "user-1", &models.RegisterDeviceRequest{DeviceID: "wearable-1"})
	require.NoError(t, err)

	// Device IDs are globally unique, even across users.
	_, err = svc.Register(ctx, "user-2", &models.RegisterDeviceRequest{DeviceID: "wearable-1"})
	assert.ErrorIs(t, err, repository.ErrDeviceExists)
}

func TestDeviceService_UpdateLabel(t *testing.T) {
	svc := NewDeviceService(repository.NewInMemoryRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, "user-1", &models.RegisterDeviceRequest{DeviceID: "wearable-1"})
	require.NoError(t, err)

	device, err := svc.UpdateLabel(ctx, "user-1", "wearable-1", "right ankle")
	require.NoError(t, err)
	assert.Equal(t, "right ankle", device.Label)

	_, err = svc.UpdateLabel(ctx, "user-2", "wearable-1", "stolen")
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.UpdateLabel(ctx, "user-1", "ghost", "nothing")
	assert.ErrorIs(t, err, repository.ErrDeviceNotFound)
}

func TestDeviceService_Delete(t *testing.T) {
	svc := NewDeviceService(repository.NewInMemoryRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, "user-1", &models.RegisterDeviceRequest{DeviceID: "wearable-1"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "user-2", "wearable-1"), ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, "user-1", "wearable-1"))

	devices, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, devices)
}
