package client

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// State is the raw player state returned by GET /state and pushed as "state-update".
// Every field is optional; StateNormalizer owns the interpretation.
type State struct {
	Player     *PlayerState `json:"player"`
	Video      *Video       `json:"video"`
	PlaylistID string       `json:"playlistId"`
}

// PlayerState is the player section of State.
type PlayerState struct {
	TrackState    Number `json:"trackState"`
	VideoProgress Number `json:"videoProgress"`
	Volume        Number `json:"volume"`
	Muted         bool   `json:"muted"`
	AdPlaying     bool   `json:"adPlaying"`
	Queue         *Queue `json:"queue"`
}

// Queue is the queue section of PlayerState.
type Queue struct {
	Autoplay   bool   `json:"autoplay"`
	RepeatMode Number `json:"repeatMode"`
	Selected   Number `json:"selectedItemIndex"`
}

// Video describes the current video.
type Video struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Author          string      `json:"author"`
	Album           string      `json:"album"`
	AlbumID         string      `json:"albumId"`
	ChannelID       string      `json:"channelId"`
	LikeStatus      Number      `json:"likeStatus"`
	DurationSeconds Number      `json:"durationSeconds"`
	Thumbnails      []Thumbnail `json:"thumbnails"`
}

// Thumbnail is one artwork rendition.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  Number `json:"width"`
	Height Number `json:"height"`
}

// Metadata is returned by the unauthenticated GET /metadata.
type Metadata struct {
	APIVersions []string `json:"apiVersions"`
}

// AppInfo identifies this application during the auth handshake.
type AppInfo struct {
	AppID      string `json:"appId"`
	AppName    string `json:"appName"`
	AppVersion string `json:"appVersion"`
}

// Number is a lenient JSON number. It accepts numbers and numeric strings;
// null, booleans and junk decode as absent instead of failing the whole payload.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a valid Number.
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*n = Num(v)
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*n = Num(v)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Or returns the value, or def when absent.
func (n Number) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}
