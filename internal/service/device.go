package service

import (
	"context"
	"errors"
	"time"

	"github.com/neurowatch-systems/neurowatch/internal/models"
	"github.com/neurowatch-systems/neurowatch/internal/repository"
)

var (
	ErrDeviceLimit = errors.New("maximum number of devices reached")
	ErrNotOwner    = errors.New("device does not belong to this user")
)

type DeviceService struct {
	repo repository.Repository
}

func NewDeviceService(repo repository.Repository) *DeviceService {
	return &DeviceService{repo: repo}
}

// Register adds a device under the user, enforcing the per-user cap and
// global device-id uniqueness.
func (s *DeviceService) Register(ctx context.Context, userID string, req *models.RegisterDeviceRequest) (*models.Device, error) {
	existing, err := s.repo.ListDevicesByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= models.MaxDevicesPerUser {
		return nil, ErrDeviceLimit
	}

	label := req.Label
	if label == "" {
		label = req.DeviceID
	}

	device := &models.Device{
		DeviceID:  req.DeviceID,
		OwnerID:   userID,
		Label:     label,
		CreatedAt: time.Now(),
	}

	if err := s.repo.CreateDevice(ctx, device); err != nil {
		return nil, err
	}

	return device, nil
}

func (s *DeviceService) List(ctx context.Context, userID string) ([]*models.Device, error) {
	return s.repo.ListDevicesByOwner(ctx, userID)
}

// UpdateLabel renames a device after verifying ownership.
func (s *DeviceService) UpdateLabel(ctx context.Context, userID, deviceID, label string) (*models.Device, error) {
	device, err := s.ownedDevice(ctx, userID, deviceID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateDeviceLabel(ctx, deviceID, label); err != nil {
		return nil, err
	}

	device.Label = label
	return device, nil
}

// Delete removes a device after verifying ownership.
func (s *DeviceService) Delete(ctx context.Context, userID, deviceID string) error {
	if _, err := s.ownedDevice(ctx, userID, deviceID); err != nil {
		return err
	}
	return s.repo.DeleteDevice(ctx, deviceID)
}

func (s *DeviceService) ownedDevice(ctx context.Context, userID, deviceID string) (*models.Device, error) {
	device, err := s.repo.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device.OwnerID != userID {
		return nil, ErrNotOwner
	}
	return device, nil
}
