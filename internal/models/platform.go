package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/songmatch/internal/shared"
)

// Platform identifies a streaming catalog.
//
// The zero value, [PlatformUnknown], means "infer from the input URL".
type Platform int

const (
	PlatformUnknown Platform = iota
	Spotify
	AppleMusic
)

// Platforms lists every supported catalog in a stable order.
var Platforms = []Platform{Spotify, AppleMusic}

func (p Platform) String() string {
	switch p {
	case Spotify:
		return "spotify"
	case AppleMusic:
		return "apple_music"
	default:
		return "unknown"
	}
}

// Label is the human readable catalog name.
func (p Platform) Label() string {
	switch p {
	case Spotify:
		return "Spotify"
	case AppleMusic:
		return "Apple Music"
	default:
		return "Unknown"
	}
}

// Valid reports whether p names a supported catalog.
func (p Platform) Valid() bool {
	return p == Spotify || p == AppleMusic
}

// Other returns the opposite catalog. Unknown maps to Unknown.
func (p Platform) Other() Platform {
	switch p {
	case Spotify:
		return AppleMusic
	case AppleMusic:
		return Spotify
	default:
		return PlatformUnknown
	}
}

// ParsePlatform accepts the spellings users type on the command line
// ("spotify", "apple", "apple_music", "apple-music", "am", "sp").
// An empty string parses to [PlatformUnknown].
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PlatformUnknown, nil
	case "spotify", "sp":
		return Spotify, nil
	case "apple", "apple_music", "apple-music", "applemusic", "am":
		return AppleMusic, nil
	default:
		return PlatformUnknown, fmt.Errorf("%w: %q", shared.ErrUnsupportedPlatform, s)
	}
}

func (p Platform) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Platform) UnmarshalText(text []byte) error {
	if string(text) == "unknown" {
		*p = PlatformUnknown
		return nil
	}
	parsed, err := ParsePlatform(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
