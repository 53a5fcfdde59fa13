package entities

import "strings"

// SourcePlatform is the conferencing product a meeting was held on
type SourcePlatform string

const (
	SourcePlatformGoogleMeet SourcePlatform = "google_meet"
	SourcePlatformZoom       SourcePlatform = "zoom"
	SourcePlatformTeams      SourcePlatform = "teams"
	SourcePlatformWebex      SourcePlatform = "webex"
	SourcePlatformOther      SourcePlatform = "other"
)

// DefaultSourcePlatform is used for values the lookup table does not know
const DefaultSourcePlatform = SourcePlatformOther

// sourcePlatformAliases maps provider-reported values to the fixed set.
// Calendar invitations without a conferencing link come from Google
// Calendar, so "invitation" lands on google_meet.
var sourcePlatformAliases = map[string]SourcePlatform{
	"google":          SourcePlatformGoogleMeet,
	"google_meet":     SourcePlatformGoogleMeet,
	"google-meet":     SourcePlatformGoogleMeet,
	"googlemeet":      SourcePlatformGoogleMeet,
	"meet":            SourcePlatformGoogleMeet,
	"gmeet":           SourcePlatformGoogleMeet,
	"invitation":      SourcePlatformGoogleMeet,
	"zoom":            SourcePlatformZoom,
	"zoom_meeting":    SourcePlatformZoom,
	"teams":           SourcePlatformTeams,
	"ms_teams":        SourcePlatformTeams,
	"msteams":         SourcePlatformTeams,
	"microsoft":       SourcePlatformTeams,
	"microsoft_teams": SourcePlatformTeams,
	"webex":           SourcePlatformWebex,
	"cisco_webex":     SourcePlatformWebex,
	"other":           SourcePlatformOther,
}

// NormalizeSourcePlatform coerces a provider value into the fixed set.
// It never fails: unknown values map to DefaultSourcePlatform.
func NormalizeSourcePlatform(raw string) SourcePlatform {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_").Replace(key)
	if p, ok := sourcePlatformAliases[key]; ok {
		return p
	}
	return DefaultSourcePlatform
}

// IsValid reports whether p is one of the known platforms
func (p SourcePlatform) IsValid() bool {
	switch p {
	case SourcePlatformGoogleMeet, SourcePlatformZoom, SourcePlatformTeams, SourcePlatformWebex, SourcePlatformOther:
		return true
	}
	return false
}
