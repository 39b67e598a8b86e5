package app

import (
	"context"

	"github.com/llehouerou/ytm/internal/notify"
	"github.com/llehouerou/ytm/internal/playlist"
	"github.com/llehouerou/ytm/internal/resolver"
)

// Resolver turns queries and URLs into tracks.
type Resolver interface {
	Search(ctx context.Context, query string, limit int) (resolver.SearchResult, error)
	Resolve(ctx context.Context, rawURL string) (playlist.Track, error)
	ResolveTrack(ctx context.Context, t playlist.Track) (playlist.Track, error)
}

// Announcer shows a desktop notification when a track starts.
type Announcer interface {
	Announce(track playlist.Track) error
}

// Compile-time assertions that the production types satisfy the interfaces.
var (
	_ Resolver  = (*resolver.Resolver)(nil)
	_ Announcer = (*notify.NowPlaying)(nil)
)
