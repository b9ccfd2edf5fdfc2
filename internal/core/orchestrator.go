package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// User-facing outcome messages, matching what the HTTP surface promises.
const (
	MsgResumed           = "Resumed"
	MsgOwnedPlaying      = "Your playlist playing"
	MsgCollectionPlaying = "Playlist playing"
	MsgTrackPlaying      = "Track playing"
	MsgPaused            = "Paused"
	MsgSkipped           = "Skipped"
)

// Orchestrator sequences credential priming, device selection, query
// resolution and the ordered playback commands for each inbound intent.
type Orchestrator struct {
	credentials CredentialSource
	devices     *DeviceManager
	resolver    *Resolver
	player      PlayerClient
	logger      *zap.Logger
}

func NewOrchestrator(
	credentials CredentialSource,
	devices *DeviceManager,
	resolver *Resolver,
	player PlayerClient,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		credentials: credentials,
		devices:     devices,
		resolver:    resolver,
		player:      player,
		logger:      logger,
	}
}

// Play resolves a free-text query and starts playback in the desired state.
// Blank queries resume current playback. Returns the outcome message for
// the caller.
func (o *Orchestrator) Play(ctx context.Context, query string) (string, error) {
	if err := o.credentials.Ensure(ctx); err != nil {
		return "", fmt.Errorf("failed to ensure access credential: %w", err)
	}

	deviceID, err := o.devices.EnsureActive(ctx)
	if err != nil {
		return "", err
	}

	res, err := o.resolver.Resolve(ctx, query)
	if err != nil {
		return "", err
	}

	if res.Ref == nil {
		if err := o.player.Play(ctx, deviceID, nil); err != nil {
			return "", fmt.Errorf("failed to resume playback: %w", err)
		}
		return MsgResumed, nil
	}

	if err := o.player.SetShuffle(ctx, deviceID, res.Shuffle); err != nil {
		return "", fmt.Errorf("failed to set shuffle: %w", err)
	}

	if res.Ref.Kind == RefKindTrack {
		// The provider wants an active playback context before a bare track
		// list can be queued, so prime the device with a context-less play.
		if err := o.player.Play(ctx, deviceID, nil); err != nil {
			return "", fmt.Errorf("failed to prime device: %w", err)
		}
	}

	if err := o.player.Play(ctx, deviceID, res.Ref); err != nil {
		return "", fmt.Errorf("failed to start playback: %w", err)
	}

	o.logger.Info("Playback started",
		zap.String("query", query),
		zap.String("uri", res.Ref.URI),
		zap.Bool("shuffle", res.Shuffle))

	switch res.Strategy {
	case StrategyOwnedCollection:
		return MsgOwnedPlaying, nil
	case StrategyPublicCollection:
		return MsgCollectionPlaying, nil
	default:
		return MsgTrackPlaying, nil
	}
}

// Resume restarts current playback on an ensured device.
func (o *Orchestrator) Resume(ctx context.Context) (string, error) {
	deviceID, err := o.devices.EnsureActive(ctx)
	if err != nil {
		return "", err
	}

	if err := o.player.Play(ctx, deviceID, nil); err != nil {
		return "", fmt.Errorf("failed to resume playback: %w", err)
	}

	return MsgResumed, nil
}

// Pause pauses playback. Pausing an already-paused player is fine.
func (o *Orchestrator) Pause(ctx context.Context) (string, error) {
	deviceID, err := o.devices.EnsureActive(ctx)
	if err != nil {
		return "", err
	}

	if err := o.player.Pause(ctx, deviceID); err != nil {
		return "", fmt.Errorf("failed to pause playback: %w", err)
	}

	return MsgPaused, nil
}

// Skip advances to the next track.
func (o *Orchestrator) Skip(ctx context.Context) (string, error) {
	deviceID, err := o.devices.EnsureActive(ctx)
	if err != nil {
		return "", err
	}

	if err := o.player.Next(ctx, deviceID); err != nil {
		return "", fmt.Errorf("failed to skip track: %w", err)
	}

	return MsgSkipped, nil
}

// SetVolume sets the playback volume. Levels outside [0,100] are rejected
// before any network call.
func (o *Orchestrator) SetVolume(ctx context.Context, level int) (string, error) {
	if level < 0 || level > 100 {
		return "", ErrInvalidVolume
	}

	deviceID, err := o.devices.EnsureActive(ctx)
	if err != nil {
		return "", err
	}

	if err := o.player.SetVolume(ctx, deviceID, level); err != nil {
		return "", fmt.Errorf("failed to set volume: %w", err)
	}

	return fmt.Sprintf("Volume set to %d%%", level), nil
}
