package domain

import (
	"time"
)

type StreamID string
type UserID string
type GuestID string
type ConnID string

// SceneLayout is the studio composition currently shown to viewers.
type SceneLayout string

const (
	SceneGrid  SceneLayout = "grid"
	SceneSolo  SceneLayout = "solo"
	SceneAudio SceneLayout = "audio"
	ScenePIP   SceneLayout = "pip"
)

// ValidSceneLayout reports whether the given layout is one of the known scenes.
func ValidSceneLayout(layout SceneLayout) bool {
	switch layout {
	case SceneGrid, SceneSolo, SceneAudio, ScenePIP:
		return true
	}
	return false
}

// StreamRoom is the coordination state for one stream: liveness, the scene
// layout and the guest roster. Guests and scene state are discarded when the
// room is deleted; they are never archived.
type StreamRoom struct {
	ID         StreamID           `json:"id"`
	Title      string             `json:"title"`
	OwnerID    UserID             `json:"owner_id"`
	IsLive     bool               `json:"is_live"`
	IsPrivate  bool               `json:"is_private"`
	AccessCode string             `json:"access_code,omitempty"`
	Scene      SceneLayout        `json:"scene"`
	Guests     map[GuestID]*Guest `json:"guests"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Guest is a participant slot in a room. Guest state only exists while the
// room does; a removed guest must rejoin to get a new slot.
type Guest struct {
	ID          GuestID `json:"id"`
	DisplayName string  `json:"display_name"`
	IsMuted     bool    `json:"is_muted"`
	IsVideoOff  bool    `json:"is_video_off"`
	ViewHandle  string  `json:"view_handle,omitempty"`
}
