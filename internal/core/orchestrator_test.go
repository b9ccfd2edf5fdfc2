package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"
)

// Mock implementations for testing

type mockCredentials struct {
	ensureCalls int
	err         error
}

func (m *mockCredentials) Ensure(_ context.Context) error {
	m.ensureCalls++
	return m.err
}

// mockPlayer records every command in order so tests can assert sequencing.
type mockPlayer struct {
	saved          []Collection
	savedErr       error
	searchTracks   map[string][]Track
	searchLists    map[string][]Collection
	devices        []Device
	devicesErr     error
	commandErr     error
	calls          []string
	savedListCalls int
	searchCalls    int
}

func (m *mockPlayer) SearchTracks(_ context.Context, query string, _ int) ([]Track, error) {
	m.searchCalls++
	m.calls = append(m.calls, "search-tracks:"+query)
	return m.searchTracks[query], nil
}

func (m *mockPlayer) SearchCollections(_ context.Context, query string, _ int) ([]Collection, error) {
	m.searchCalls++
	m.calls = append(m.calls, "search-collections:"+query)
	return m.searchLists[query], nil
}

func (m *mockPlayer) SavedCollections(_ context.Context, _ int) ([]Collection, error) {
	m.savedListCalls++
	m.calls = append(m.calls, "saved-collections")
	return m.saved, m.savedErr
}

func (m *mockPlayer) Devices(_ context.Context) ([]Device, error) {
	m.calls = append(m.calls, "devices")
	return m.devices, m.devicesErr
}

func (m *mockPlayer) TransferPlayback(_ context.Context, deviceID string) error {
	m.calls = append(m.calls, "transfer:"+deviceID)
	return m.commandErr
}

func (m *mockPlayer) Play(_ context.Context, deviceID string, ref *PlayableRef) error {
	if ref == nil {
		m.calls = append(m.calls, "play-resume:"+deviceID)
	} else {
		m.calls = append(m.calls, fmt.Sprintf("play:%s:%s", deviceID, ref.URI))
	}
	return m.commandErr
}

func (m *mockPlayer) Pause(_ context.Context, deviceID string) error {
	m.calls = append(m.calls, "pause:"+deviceID)
	return m.commandErr
}

func (m *mockPlayer) Next(_ context.Context, deviceID string) error {
	m.calls = append(m.calls, "next:"+deviceID)
	return m.commandErr
}

func (m *mockPlayer) SetVolume(_ context.Context, deviceID string, level int) error {
	m.calls = append(m.calls, fmt.Sprintf("volume:%s:%d", deviceID, level))
	return m.commandErr
}

func (m *mockPlayer) SetShuffle(_ context.Context, deviceID string, on bool) error {
	m.calls = append(m.calls, fmt.Sprintf("shuffle:%s:%t", deviceID, on))
	return m.commandErr
}

func newTestOrchestrator(player *mockPlayer) (*Orchestrator, *mockCredentials) {
	logger := zap.NewNop()
	credentials := &mockCredentials{}
	resolver := NewResolver(player, nil, logger)
	devices := NewDeviceManager(player, logger)
	return NewOrchestrator(credentials, devices, resolver, player, logger), credentials
}

func assertCalls(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls[%d] = %q, expected %q (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestPlayPublicCollectionNoShuffle(t *testing.T) {
	player := &mockPlayer{
		devices: []Device{{ID: "dev1", Active: true}},
		searchLists: map[string][]Collection{
			"no shuffle lofi beats": {{URI: "spotify:playlist:lofi", Name: "Lofi Beats"}},
		},
	}
	orchestrator, credentials := newTestOrchestrator(player)

	message, err := orchestrator.Play(context.Background(), "no shuffle lofi beats")
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if message != MsgCollectionPlaying {
		t.Errorf("Play() message = %q, expected %q", message, MsgCollectionPlaying)
	}
	if credentials.ensureCalls != 1 {
		t.Errorf("Ensure() called %d times, expected 1", credentials.ensureCalls)
	}

	assertCalls(t, player.calls, []string{
		"devices",
		"saved-collections",
		"search-collections:no shuffle lofi beats",
		"shuffle:dev1:false",
		"play:dev1:spotify:playlist:lofi",
	})
}

func TestPlayTrackPrimesDeviceAndForcesShuffleOff(t *testing.T) {
	player := &mockPlayer{
		devices: []Device{{ID: "dev1", Active: true}},
		searchTracks: map[string][]Track{
			"Bohemian Rhapsody": {{URI: "spotify:track:bohrap", Title: "Bohemian Rhapsody"}},
		},
	}
	orchestrator, _ := newTestOrchestrator(player)

	message, err := orchestrator.Play(context.Background(), "Bohemian Rhapsody")
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if message != MsgTrackPlaying {
		t.Errorf("Play() message = %q, expected %q", message, MsgTrackPlaying)
	}

	// Shuffle forced off, priming play before the track-specific play.
	assertCalls(t, player.calls, []string{
		"devices",
		"saved-collections",
		"search-collections:Bohemian Rhapsody",
		"search-tracks:Bohemian Rhapsody",
		"shuffle:dev1:false",
		"play-resume:dev1",
		"play:dev1:spotify:track:bohrap",
	})
}

func TestPlayOwnedCollection(t *testing.T) {
	player := &mockPlayer{
		devices: []Device{{ID: "dev1", Active: true}},
		saved:   []Collection{{URI: "spotify:playlist:mine", Name: "Workout Mix"}},
	}
	orchestrator, _ := newTestOrchestrator(player)

	message, err := orchestrator.Play(context.Background(), "workout mix")
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if message != MsgOwnedPlaying {
		t.Errorf("Play() message = %q, expected %q", message, MsgOwnedPlaying)
	}

	assertCalls(t, player.calls, []string{
		"devices",
		"saved-collections",
		"shuffle:dev1:true",
		"play:dev1:spotify:playlist:mine",
	})
}

func TestPlayEmptyQueryResumesAfterTransfer(t *testing.T) {
	player := &mockPlayer{
		devices: []Device{{ID: "dev1", Active: false}},
	}
	orchestrator, _ := newTestOrchestrator(player)

	message, err := orchestrator.Play(context.Background(), "")
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if message != MsgResumed {
		t.Errorf("Play() message = %q, expected %q", message, MsgResumed)
	}
	if player.searchCalls != 0 {
		t.Errorf("blank query issued %d search calls, expected 0", player.searchCalls)
	}

	assertCalls(t, player.calls, []string{
		"devices",
		"transfer:dev1",
		"play-resume:dev1",
	})
}

func TestPlayNothingFound(t *testing.T) {
	player := &mockPlayer{
		devices: []Device{{ID: "dev1", Active: true}},
	}
	orchestrator, _ := newTestOrchestrator(player)

	_, err := orchestrator.Play(context.Background(), "does not exist")
	if err == nil {
		t.Fatal("Play() expected error for unresolvable query")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Play() error = %v, expected ErrNotFound", err)
	}
}

func TestPauseIdempotent(t *testing.T) {
	player := &mockPlayer{
		devices: []Device{{ID: "dev1", Active: true}},
	}
	orchestrator, _ := newTestOrchestrator(player)

	for i := 0; i < 2; i++ {
		message, err := orchestrator.Pause(context.Background())
		if err != nil {
			t.Fatalf("Pause() call %d error = %v", i+1, err)
		}
		if message != MsgPaused {
			t.Errorf("Pause() call %d message = %q, expected %q", i+1, message, MsgPaused)
		}
	}
}

func TestSetVolumeBoundaries(t *testing.T) {
	tests := []struct {
		level   int
		wantErr bool
	}{
		{-1, true},
		{0, false},
		{100, false},
		{101, true},
	}

	for _, tt := range tests {
		player := &mockPlayer{
			devices: []Device{{ID: "dev1", Active: true}},
		}
		orchestrator, _ := newTestOrchestrator(player)

		message, err := orchestrator.SetVolume(context.Background(), tt.level)

		if tt.wantErr {
			if !errors.Is(err, ErrInvalidVolume) {
				t.Errorf("SetVolume(%d) error = %v, expected ErrInvalidVolume", tt.level, err)
			}
			if len(player.calls) != 0 {
				t.Errorf("SetVolume(%d) issued calls %v before validation", tt.level, player.calls)
			}
			continue
		}

		if err != nil {
			t.Fatalf("SetVolume(%d) error = %v", tt.level, err)
		}
		expected := fmt.Sprintf("Volume set to %d%%", tt.level)
		if message != expected {
			t.Errorf("SetVolume(%d) message = %q, expected %q", tt.level, message, expected)
		}
	}
}

func TestSkip(t *testing.T) {
	player := &mockPlayer{
		devices: []Device{{ID: "dev1", Active: true}},
	}
	orchestrator, _ := newTestOrchestrator(player)

	message, err := orchestrator.Skip(context.Background())
	if err != nil {
		t.Fatalf("Skip() error = %v", err)
	}
	if message != MsgSkipped {
		t.Errorf("Skip() message = %q, expected %q", message, MsgSkipped)
	}
	assertCalls(t, player.calls, []string{"devices", "next:dev1"})
}

func TestResumeNoDevices(t *testing.T) {
	player := &mockPlayer{}
	orchestrator, _ := newTestOrchestrator(player)

	_, err := orchestrator.Resume(context.Background())
	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("Resume() error = %v, expected ErrNoDevice", err)
	}
}
