// Package provider defines the uniform capability contract every content
// source (streaming service, local-file scanner, podcast feed) must
// implement. Concrete providers are out of scope for this repository;
// this package specifies the interface and the error taxonomy the
// aggregator dispatches against.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/daedal00/muse/internal/library"
	"github.com/daedal00/muse/internal/model"
	"golang.org/x/oauth2"
)

// Tag is the enum discriminator identifying a provider implementation and
// matching its URI scheme.
type Tag string

// AuthStateKind discriminates a provider's authentication posture.
type AuthStateKind int

const (
	AuthNoneNeeded AuthStateKind = iota
	AuthNeedsPassword
	AuthNeedsOAuth
	AuthAuthenticated
)

// AuthState reports a provider's current authentication posture. OAuthURL is
// set only for AuthNeedsOAuth; User is set optionally for AuthAuthenticated.
type AuthState struct {
	Kind     AuthStateKind
	OAuthURL string
	User     string
}

// CredentialsKind discriminates the Credentials union.
type CredentialsKind int

const (
	CredentialsPassword CredentialsKind = iota
	CredentialsToken
	CredentialsTokenWithState
)

// Credentials is the union authenticate() accepts: a username/password pair,
// a bare opaque token, or a token paired with OAuth state. The Token field
// is oauth2.Token-shaped so expiry/refresh-token bookkeeping travels with it
// even for providers that aren't strictly OAuth (AccessToken alone is used).
type Credentials struct {
	Kind     CredentialsKind
	Username string
	Password string
	Token    *oauth2.Token
	State    string
}

// Folder is the result of root()/navigate(path): sub-folder names plus the
// items at this level.
type Folder struct {
	SubFolders []string
	Items      []Item
}

// ItemKind discriminates the entity a browse Item wraps.
type ItemKind int

const (
	ItemTrack ItemKind = iota
	ItemAlbum
	ItemArtist
	ItemPlaylist
)

// Item is a single browse/search hit: a label plus exactly one populated
// entity, discriminated by Kind.
type Item struct {
	Label    string
	Kind     ItemKind
	Track    *model.Track
	Album    *model.Album
	Artist   *model.Artist
	Playlist *model.Playlist
}

// CoverArt is the option result of cover_art(): either a remote URL or
// embedded bytes with a MIME type.
type CoverArt struct {
	URL   string
	Bytes []byte
	MIME  string
}

// SyncCounts reports how many of each kind a provider's sync() walked and
// upserted into the library.
type SyncCounts struct {
	Tracks    int
	Albums    int
	Artists   int
	Playlists int
}

// CredentialStore is the interface providers use to load/save their own
// stored credentials. Concrete backends are out of scope for this
// repository; see internal/credential for the reference implementation.
type CredentialStore interface {
	Get(ctx context.Context, tag Tag) (*Credentials, error)
	Put(ctx context.Context, tag Tag, creds Credentials) error
}

// Provider is the uniform capability every content source implements.
// All operations except the metadata getters are cancellation-aware via
// ctx and may suspend.
type Provider interface {
	Title() string
	URIScheme() string
	ProviderTag() Tag

	Setup(ctx context.Context, creds CredentialStore) error
	AuthState(ctx context.Context) (AuthState, error)
	Authenticate(ctx context.Context, creds Credentials, store CredentialStore) error

	Sync(ctx context.Context, lib library.Store) (SyncCounts, error)

	Root(ctx context.Context) (Folder, error)
	Navigate(ctx context.Context, path string) (Folder, error)
	Search(ctx context.Context, query string) ([]Item, error)

	ResolveTrack(ctx context.Context, uri model.URI) (*model.Track, error)
	ResolveAlbum(ctx context.Context, uri model.URI) (*model.Album, error)
	ResolveArtist(ctx context.Context, uri model.URI) (*model.Artist, error)
	ResolvePlaylist(ctx context.Context, uri model.URI) (*model.Playlist, error)

	StreamURL(ctx context.Context, track *model.Track) (string, error)
	CoverArt(ctx context.Context, identity model.Identifiable) (*CoverArt, error)

	// ResolveShareURL maps an externally pasted URL back to an internal URI.
	// Returns (nil, nil) if the URL's host does not belong to this provider
	// at all.
	ResolveShareURL(ctx context.Context, rawURL string) (*model.URI, error)
}

// --- Error taxonomy ---

// NotFoundError marks a URI/id that no provider or the library could
// resolve. Most call sites instead surface this as an option-none result;
// this type exists for paths that must propagate an error.
type NotFoundError struct {
	URI model.URI
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("provider: not found: %s", e.URI) }

// InvalidURIError marks a scheme that is absent, malformed, or claimed by no
// registered provider.
type InvalidURIError struct {
	URI    model.URI
	Reason string
}

func (e *InvalidURIError) Error() string {
	return fmt.Sprintf("provider: invalid uri %q: %s", e.URI, e.Reason)
}

// UnauthorizedError marks an operation attempted while AuthState is not
// AuthAuthenticated.
type UnauthorizedError struct {
	Tag Tag
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("provider %s: not authenticated", e.Tag)
}

// RemoteError wraps a failure from the provider's remote backend.
type RemoteError struct {
	Tag   Tag
	Cause error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("provider %s: remote error: %v", e.Tag, e.Cause)
}

func (e *RemoteError) Unwrap() error { return e.Cause }

// RateLimit documents a provider's known rate limit, used by operators
// deciding sync cadence; providers are not required to enforce it themselves.
type RateLimit struct {
	RequestsPerSecond float64
	RequestsPerDay    int
	ResetAt           *time.Time
}
