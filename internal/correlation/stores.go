package correlation

import (
	"context"
	"errors"

	"github.com/neurowatch-systems/neurowatch/internal/repository"
)

// RepositoryDirectory adapts the repository to the DeviceDirectory
// interface, translating its not-found error into ErrUnknownDevice.
type RepositoryDirectory struct {
	repo repository.Repository
}

func NewRepositoryDirectory(repo repository.Repository) *RepositoryDirectory {
	return &RepositoryDirectory{repo: repo}
}

func (d *RepositoryDirectory) ResolveOwner(ctx context.Context, deviceID string) (string, error) {
	device, err := d.repo.GetDevice(ctx, deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			return "", ErrUnknownDevice
		}
		return "", err
	}
	return device.OwnerID, nil
}

func (d *RepositoryDirectory) DevicesOf(ctx context.Context, userID string) ([]string, error) {
	devices, err := d.repo.ListDevicesByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(devices))
	for _, device := range devices {
		ids = append(ids, device.DeviceID)
	}
	return ids, nil
}
