// Package services defines the [Service] interface for streaming catalogs and implements it for Spotify and Apple Music.
//
// # Service Interface
//
// The resolver only needs three capabilities from a catalog: fetch a track by ID,
// look tracks up by ISRC and search by title and artist. Both catalogs return
// [models.TrackMetadata] so the matching code never sees provider JSON.
//
// # Spotify Implementation
//
// [SpotifyService] wraps zmb3/spotify with an app-only client-credentials token
// from [clientcredentials.Config]. The [oauth2] transport refreshes it on expiry.
// ISRC lookups use the "isrc:" search filter.
//
// # Apple Music Implementation
//
// [AppleMusicService] calls the catalog API directly. The developer token is either
// a pre-signed string ([StaticToken]) or signed locally from a MusicKit key by
// [DeveloperTokenSigner]. Song IDs are scoped to a storefront, so
// [AppleMusicService.TrackInStorefront] honors the country code of a pasted link.
//
// # Links
//
// [ParseInput] and [ParseURL] accept share links, spotify: URIs and bare IDs.
// [TargetURL] builds the public link for a resolved ID.
//
// # Error Handling
//
// Services wrap sentinels from the shared package:
//   - [shared.ErrAuthFailed] : 401/403 responses, rejected token exchange, signing failure
//   - [shared.ErrTrackNotFound] : 404 or an empty catalog response
//   - [shared.ErrRateLimited] : 429 responses (Apple Music retries these first)
//   - [shared.ErrServiceUnavailable] : 5xx responses
//   - [shared.ErrAPIRequest] : anything else that failed on the wire
package services
