package core

import (
	"context"
)

// RefKind distinguishes the two playable resource shapes the provider
// accepts: a single track queued by URI, or a collection played as context.
type RefKind int

const (
	// RefKindTrack represents a single playable track
	RefKindTrack RefKind = iota
	// RefKindCollection represents a named playlist, owned or public
	RefKindCollection
)

// PlayableRef is the outcome of query resolution: a provider-defined URI
// tagged with the kind of resource it names.
type PlayableRef struct {
	Kind RefKind
	URI  string
}

type Track struct {
	ID     string
	URI    string
	Title  string
	Artist string
}

// Collection is a provider-side named playlist.
type Collection struct {
	ID    string
	URI   string
	Name  string
	Owner string
}

// Device is a point-in-time snapshot of a playback surface. Devices come
// and go outside this process, so snapshots are never cached.
type Device struct {
	ID     string
	Name   string
	Active bool
}

// Strategy names the resolver stage that produced a match.
type Strategy int

const (
	// StrategyOwnedCollection matched one of the caller's saved collections
	StrategyOwnedCollection Strategy = iota
	// StrategyPublicCollection matched a public collection via search
	StrategyPublicCollection
	// StrategyTrack matched an individual track via search
	StrategyTrack
)

// Resolution is what the resolver hands the orchestrator. A nil Ref means
// the query was blank and current playback should resume.
type Resolution struct {
	Ref      *PlayableRef
	Strategy Strategy
	Shuffle  bool
}

// CredentialSource guarantees a usable access credential before a batch of
// authenticated calls. Validity is still discovered reactively; Ensure only
// covers the cold-start case where no access token has been obtained yet.
type CredentialSource interface {
	Ensure(ctx context.Context) error
}

// PlayerClient is the upstream surface the core consumes. Implemented by
// internal/spotify; mocked in tests.
type PlayerClient interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]Track, error)
	SearchCollections(ctx context.Context, query string, limit int) ([]Collection, error)
	SavedCollections(ctx context.Context, limit int) ([]Collection, error)
	Devices(ctx context.Context) ([]Device, error)
	TransferPlayback(ctx context.Context, deviceID string) error
	// Play with a nil ref resumes (or primes) whatever context the device has.
	Play(ctx context.Context, deviceID string, ref *PlayableRef) error
	Pause(ctx context.Context, deviceID string) error
	Next(ctx context.Context, deviceID string) error
	SetVolume(ctx context.Context, deviceID string, level int) error
	SetShuffle(ctx context.Context, deviceID string, on bool) error
}

// CollectionCache holds one page of the caller's saved collections for a
// short TTL. Implemented by internal/store.
type CollectionCache interface {
	Get() ([]Collection, bool)
	Put(collections []Collection)
}
