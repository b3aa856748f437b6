package protocol

import "time"

type MessageKind string

const (
	MessageText     MessageKind = "text"
	MessageReaction MessageKind = "reaction"
	MessageSystem   MessageKind = "system"
	MessageMeme     MessageKind = "meme"
)

type Message struct {
	ID        string      `json:"id"`
	SenderID  string      `json:"senderId"`
	Text      string      `json:"text"`
	Timestamp int64       `json:"timestamp"`
	Kind      MessageKind `json:"kind"`
}

// Note positions are percentages (0-100) of the container bounds, so both
// peers can render them regardless of viewport size.
type Note struct {
	ID           string  `json:"id"`
	Content      string  `json:"content"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Rotation     float64 `json:"rotation"`
	ColorStyle   string  `json:"colorStyle"`
	LastEditedBy string  `json:"lastEditedBy"`
	Timestamp    int64   `json:"timestamp"`
	ZIndex       int     `json:"zIndex"`
}

type SongKind string

const (
	SongYouTube SongKind = "youtube"
	SongMP3     SongKind = "mp3"
)

type Song struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Artist   string   `json:"artist"`
	CoverURL string   `json:"coverUrl"`
	Duration float64  `json:"duration"`
	MediaRef string   `json:"mediaRef"`
	Kind     SongKind `json:"kind"`
	AddedBy  string   `json:"addedBy"`
}

// PlayerState describes playback at one wall-clock instant: TimestampMs is
// the moment ProgressSeconds was true. Consumers re-project against current
// time to find where playback is now.
type PlayerState struct {
	CurrentSongID   string  `json:"currentSongId"`
	IsPlaying       bool    `json:"isPlaying"`
	ProgressSeconds float64 `json:"progressSeconds"`
	TimestampMs     int64   `json:"timestampMs"`
	SyncLocked      bool    `json:"syncLocked"`
	MasterID        string  `json:"masterId"`
}

type ToolType string

const (
	ToolPen       ToolType = "pen"
	ToolEraser    ToolType = "eraser"
	ToolRectangle ToolType = "rectangle"
	ToolCircle    ToolType = "circle"
	ToolLine      ToolType = "line"
)

type Point struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"pressure,omitempty"`
}

type DrawingLine struct {
	ID        string   `json:"id"`
	Points    []Point  `json:"points"`
	Color     string   `json:"color"`
	Width     float64  `json:"width"`
	Tool      ToolType `json:"toolType"`
	Opacity   float64  `json:"opacity"`
	Timestamp int64    `json:"timestamp"`
}

// SpaceState is the ambient mood of the room. Low stakes, last write wins.
type SpaceState struct {
	Vibe      string `json:"vibe"`
	Intensity int    `json:"intensity"`
	IsLocked  bool   `json:"isLocked"`
}

// Snapshot is the whole replicated state of one space. Every mutation is a
// full replace or an append of one sub-state, never a field-level merge.
type Snapshot struct {
	Messages []Message     `json:"messages"`
	Notes    []Note        `json:"notes"`
	Playlist []Song        `json:"playlist"`
	Player   PlayerState   `json:"player"`
	Game     GameState     `json:"game"`
	Drawing  []DrawingLine `json:"drawing"`
	Space    SpaceState    `json:"space"`
}

// NewSnapshot returns the default snapshot a peer starts from before any
// history seed or inbound sync.
func NewSnapshot(localID string) Snapshot {
	return Snapshot{
		Messages: []Message{},
		Notes:    []Note{},
		Playlist: []Song{},
		Player: PlayerState{
			TimestampMs: time.Now().UnixMilli(),
			SyncLocked:  true,
		},
		Game:    NewGameState(localID),
		Drawing: []DrawingLine{},
		Space:   SpaceState{Vibe: "Chilling", Intensity: 1},
	}
}

// Clone returns a copy whose sub-state slices are independent of the
// original, so readers never observe in-place mutation.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Messages = append([]Message(nil), s.Messages...)
	out.Notes = append([]Note(nil), s.Notes...)
	out.Playlist = append([]Song(nil), s.Playlist...)
	out.Drawing = append([]DrawingLine(nil), s.Drawing...)
	out.Game = s.Game.Clone()
	return out
}
