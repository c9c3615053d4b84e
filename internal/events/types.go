package events

// Classification values carried on the X-Sonos-Type header. Any other value
// still gets relayed, it just never touches local state.
const (
	TypePlaybackStatus = "playbackStatus"
	TypeMetadataStatus = "metadataStatus"
)

// PlaybackStatusData is the payload body of a playbackStatus event.
type PlaybackStatusData struct {
	PlaybackState string `json:"playbackState"` // PLAYING, BUFFERING, PAUSED_PLAYBACK, IDLE
}

// MetadataStatusData is the payload body of a metadataStatus event. Every
// level can be absent, so everything below the root is a pointer.
type MetadataStatusData struct {
	Container *struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"container"`
	CurrentItem *struct {
		Track *struct {
			Name   string `json:"name"`
			Artist *struct {
				Name string `json:"name"`
			} `json:"artist"`
			Album *struct {
				Name string `json:"name"`
			} `json:"album"`
			ImageURL string `json:"imageUrl"`
		} `json:"track"`
	} `json:"currentItem"`
}

// TrackName returns the nested track name, or "" at any missing depth.
func (d *MetadataStatusData) TrackName() string {
	if d.CurrentItem == nil || d.CurrentItem.Track == nil {
		return ""
	}
	return d.CurrentItem.Track.Name
}

// ArtistName returns the nested artist name, or "" at any missing depth.
func (d *MetadataStatusData) ArtistName() string {
	if d.CurrentItem == nil || d.CurrentItem.Track == nil || d.CurrentItem.Track.Artist == nil {
		return ""
	}
	return d.CurrentItem.Track.Artist.Name
}

// ContainerName returns the playlist/album context name, or "".
func (d *MetadataStatusData) ContainerName() string {
	if d.Container == nil {
		return ""
	}
	return d.Container.Name
}

// isAudiblyActive reports whether an upstream playbackState value denotes
// audible playback. BUFFERING counts: the group is about to produce sound.
func isAudiblyActive(playbackState string) bool {
	switch playbackState {
	case "PLAYING", "BUFFERING":
		return true
	default:
		return false
	}
}
