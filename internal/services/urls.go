package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/shared"
)

var (
	spotifyIDPattern    = regexp.MustCompile(`^[A-Za-z0-9]{22}$`)
	appleIDPattern      = regexp.MustCompile(`^[0-9]{1,15}$`)
	storefrontPattern   = regexp.MustCompile(`^[a-z]{2}$`)
	spotifyLocalePrefix = regexp.MustCompile(`^intl-[a-z]{2}(-[a-z]{2})?$`)
)

// TrackRef points at one track on one catalog.
type TrackRef struct {
	Platform   models.Platform
	ID         string
	Storefront string // Apple Music country code taken from the URL, if any
}

// ValidID reports whether id has the shape of a track ID on p.
func ValidID(p models.Platform, id string) bool {
	switch p {
	case models.Spotify:
		return spotifyIDPattern.MatchString(id)
	case models.AppleMusic:
		return appleIDPattern.MatchString(id)
	default:
		return false
	}
}

// ParseInput resolves a URL, a spotify: URI or a bare ID into a [TrackRef].
//
// A bare ID is checked against declared; with an unknown platform it is
// inferred from its shape (22 base62 characters for Spotify, digits for Apple Music).
func ParseInput(input string, declared models.Platform) (TrackRef, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return TrackRef{}, fmt.Errorf("%w: empty track reference", shared.ErrInvalidInput)
	}

	if looksLikeURL(input) {
		ref, err := ParseURL(input)
		if err != nil {
			return TrackRef{}, err
		}
		if declared.Valid() && declared != ref.Platform {
			return TrackRef{}, fmt.Errorf("%w: URL is a %s link but platform %s was given",
				shared.ErrInvalidInput, ref.Platform.Label(), declared.Label())
		}
		return ref, nil
	}

	if declared.Valid() {
		if !ValidID(declared, input) {
			return TrackRef{}, fmt.Errorf("%w: %q is not a %s track ID", shared.ErrInvalidInput, input, declared.Label())
		}
		return TrackRef{Platform: declared, ID: input}, nil
	}

	for _, p := range models.Platforms {
		if ValidID(p, input) {
			return TrackRef{Platform: p, ID: input}, nil
		}
	}
	return TrackRef{}, fmt.Errorf("%w: cannot tell which platform %q belongs to", shared.ErrInvalidInput, input)
}

func looksLikeURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "spotify:") ||
		strings.Contains(lower, "spotify.com/") ||
		strings.Contains(lower, "music.apple.com/") ||
		strings.Contains(lower, "itunes.apple.com/")
}

// ParseURL extracts a track reference from a share link or spotify: URI.
//
// Supported shapes:
//
//	https://open.spotify.com/track/{id}
//	https://open.spotify.com/intl-de/track/{id}
//	spotify:track:{id}
//	https://music.apple.com/{cc}/album/{slug}/{albumId}?i={songId}
//	https://music.apple.com/{cc}/song/{slug}/{id}
//	https://music.apple.com/{cc}/song/{id}
//	https://music.apple.com/{cc}/music-video/{slug}/{id}
func ParseURL(raw string) (TrackRef, error) {
	raw = strings.TrimSpace(raw)

	const spotifyURI = "spotify:track:"
	if len(raw) >= len(spotifyURI) && strings.EqualFold(raw[:len(spotifyURI)], spotifyURI) {
		rest := raw[len(spotifyURI):]
		if !ValidID(models.Spotify, rest) {
			return TrackRef{}, fmt.Errorf("%w: bad spotify URI %q", shared.ErrInvalidURL, raw)
		}
		return TrackRef{Platform: models.Spotify, ID: rest}, nil
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return TrackRef{}, fmt.Errorf("%w: %v", shared.ErrInvalidURL, err)
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	host := strings.ToLower(u.Hostname())

	switch {
	case host == "open.spotify.com" || host == "play.spotify.com":
		return parseSpotifyPath(segments, raw)
	case host == "music.apple.com" || host == "geo.music.apple.com" || host == "itunes.apple.com":
		return parseApplePath(segments, u.Query(), raw)
	default:
		return TrackRef{}, fmt.Errorf("%w: %q", shared.ErrInvalidURL, raw)
	}
}

func parseSpotifyPath(segments []string, raw string) (TrackRef, error) {
	if len(segments) > 0 && spotifyLocalePrefix.MatchString(segments[0]) {
		segments = segments[1:]
	}
	if len(segments) > 0 && segments[0] == "embed" {
		segments = segments[1:]
	}
	if len(segments) < 2 || segments[0] != "track" || !ValidID(models.Spotify, segments[1]) {
		return TrackRef{}, fmt.Errorf("%w: not a Spotify track link: %q", shared.ErrInvalidURL, raw)
	}
	return TrackRef{Platform: models.Spotify, ID: segments[1]}, nil
}

func parseApplePath(segments []string, query url.Values, raw string) (TrackRef, error) {
	ref := TrackRef{Platform: models.AppleMusic}
	if len(segments) > 0 && storefrontPattern.MatchString(segments[0]) {
		ref.Storefront = segments[0]
		segments = segments[1:]
	}
	if len(segments) < 2 {
		return TrackRef{}, fmt.Errorf("%w: not an Apple Music track link: %q", shared.ErrInvalidURL, raw)
	}

	last := segments[len(segments)-1]
	switch segments[0] {
	case "album":
		// Album links point at a song only through the i= parameter.
		if i := query.Get("i"); ValidID(models.AppleMusic, i) {
			ref.ID = i
		}
	case "song", "music-video":
		if ValidID(models.AppleMusic, last) {
			ref.ID = last
		}
	}

	if ref.ID == "" {
		return TrackRef{}, fmt.Errorf("%w: not an Apple Music track link: %q", shared.ErrInvalidURL, raw)
	}
	return ref, nil
}

// TargetURL builds the public link for a track ID on p.
func TargetURL(p models.Platform, id, storefront string) string {
	switch p {
	case models.Spotify:
		return "https://open.spotify.com/track/" + id
	case models.AppleMusic:
		if storefront == "" {
			storefront = "us"
		}
		return fmt.Sprintf("https://music.apple.com/%s/song/%s", storefront, id)
	default:
		return ""
	}
}
