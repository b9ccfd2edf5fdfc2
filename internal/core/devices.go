package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DeviceManager guarantees a playback surface is designated active before a
// command is issued. Device lists are fetched fresh on every call; devices
// appear and disappear outside this process.
type DeviceManager struct {
	player PlayerClient
	logger *zap.Logger
}

func NewDeviceManager(player PlayerClient, logger *zap.Logger) *DeviceManager {
	return &DeviceManager{
		player: player,
		logger: logger,
	}
}

// EnsureActive returns the id of an active device, transferring playback to
// the first listed device when none is active. Provider device ordering
// carries no contract; "first" is a deterministic best-effort default.
func (m *DeviceManager) EnsureActive(ctx context.Context) (string, error) {
	devices, err := m.player.Devices(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list devices: %w", err)
	}

	if len(devices) == 0 {
		return "", ErrNoDevice
	}

	for _, d := range devices {
		if d.Active {
			return d.ID, nil
		}
	}

	target := devices[0]
	m.logger.Info("No active device, transferring playback",
		zap.String("deviceID", target.ID),
		zap.String("deviceName", target.Name))

	if err := m.player.TransferPlayback(ctx, target.ID); err != nil {
		return "", fmt.Errorf("failed to transfer playback to %s: %w", target.ID, err)
	}

	return target.ID, nil
}
