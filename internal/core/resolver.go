package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tunepilot/pkg/text"
)

const (
	// SavedCollectionPageSize is the single page of saved collections the
	// exact-match strategy considers; there is no pagination beyond it.
	SavedCollectionPageSize = 50
	// SearchResultLimit caps both search strategies; only the first ranked
	// result is ever used.
	SearchResultLimit = 5
)

// Resolver turns free text into a playable reference through an ordered
// list of strategies, short-circuiting on the first hit. The priority
// contract: the caller's own saved collections by exact name, then the best
// public collection match, then the best individual track match.
type Resolver struct {
	player PlayerClient
	cache  CollectionCache
	logger *zap.Logger
}

func NewResolver(player PlayerClient, cache CollectionCache, logger *zap.Logger) *Resolver {
	return &Resolver{
		player: player,
		cache:  cache,
		logger: logger,
	}
}

type strategyFunc struct {
	name    Strategy
	resolve func(ctx context.Context, query string) (*PlayableRef, error)
}

func (r *Resolver) strategies() []strategyFunc {
	return []strategyFunc{
		{StrategyOwnedCollection, r.resolveOwnedCollection},
		{StrategyPublicCollection, r.resolvePublicCollection},
		{StrategyTrack, r.resolveTrack},
	}
}

// Resolve maps a query to a playable reference. A blank query resolves to a
// nil Ref, which the orchestrator interprets as "resume current playback".
// No match at any stage yields ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, query string) (*Resolution, error) {
	if strings.TrimSpace(query) == "" {
		return &Resolution{}, nil
	}

	for _, s := range r.strategies() {
		ref, err := s.resolve(ctx, query)
		if err != nil {
			return nil, err
		}
		if ref == nil {
			continue
		}

		shuffle := text.WantsShuffle(query)
		if ref.Kind == RefKindTrack {
			// Shuffling a bare single-track context is meaningless.
			shuffle = false
		}

		r.logger.Debug("Query resolved",
			zap.String("query", query),
			zap.String("uri", ref.URI),
			zap.Bool("shuffle", shuffle))

		return &Resolution{Ref: ref, Strategy: s.name, Shuffle: shuffle}, nil
	}

	return nil, fmt.Errorf("no match for %q: %w", query, ErrNotFound)
}

// resolveOwnedCollection looks for a case-insensitive full-name match among
// the first page of the caller's saved collections. The page may be served
// from a short-TTL cache; a hit or miss never changes the outcome, only
// whether the listing call goes upstream.
func (r *Resolver) resolveOwnedCollection(ctx context.Context, query string) (*PlayableRef, error) {
	collections, cached := r.cachedCollections()
	if !cached {
		var err error
		collections, err = r.player.SavedCollections(ctx, SavedCollectionPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list saved collections: %w", err)
		}
		if r.cache != nil {
			r.cache.Put(collections)
		}
	}

	for _, c := range collections {
		if strings.EqualFold(c.Name, query) {
			return &PlayableRef{Kind: RefKindCollection, URI: c.URI}, nil
		}
	}

	return nil, nil
}

func (r *Resolver) cachedCollections() ([]Collection, bool) {
	if r.cache == nil {
		return nil, false
	}
	return r.cache.Get()
}

// resolvePublicCollection takes the provider's best-ranked public
// collection for the raw query text.
func (r *Resolver) resolvePublicCollection(ctx context.Context, query string) (*PlayableRef, error) {
	collections, err := r.player.SearchCollections(ctx, query, SearchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("collection search failed: %w", err)
	}

	if len(collections) == 0 {
		return nil, nil
	}

	return &PlayableRef{Kind: RefKindCollection, URI: collections[0].URI}, nil
}

// resolveTrack takes the provider's best-ranked track. The search query is
// refined with artist/album fields when the text carries "by" or "from"
// markers.
func (r *Resolver) resolveTrack(ctx context.Context, query string) (*PlayableRef, error) {
	tracks, err := r.player.SearchTracks(ctx, text.BuildTrackQuery(query), SearchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("track search failed: %w", err)
	}

	if len(tracks) == 0 {
		return nil, nil
	}

	return &PlayableRef{Kind: RefKindTrack, URI: tracks[0].URI}, nil
}
