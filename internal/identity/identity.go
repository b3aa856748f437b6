package identity

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultRoomCode is where a pair lands when nothing else names a room.
	DefaultRoomCode = "SYNC-NOW"

	identityFile = "identity.json"
)

// Session is the resolved identity of this device in one room.
type Session struct {
	ParticipantID string `json:"participantId"`
	RoomCode      string `json:"roomCode"`
}

type persisted struct {
	ParticipantID string `json:"participantId"`
	LastRoom      string `json:"lastRoom"`
}

// Resolver derives a stable per-device participant id and a shared room
// code. Persistence failures degrade silently to a session-only identity.
type Resolver struct {
	dataDir string
}

func NewResolver(dataDir string) *Resolver {
	return &Resolver{dataDir: dataDir}
}

// Resolve picks the room code by priority: an explicit code or share URL,
// then the previously persisted code, then the default. The resolved code is
// persisted back so the next run lands in the same room.
func (r *Resolver) Resolve(roomArg string) Session {
	saved := r.load()

	id := saved.ParticipantID
	if id == "" {
		id = uuid.NewString()
	}

	code := ExtractRoomCode(roomArg)
	if code == "" {
		code = saved.LastRoom
	}
	if code == "" {
		code = DefaultRoomCode
	}
	code = strings.ToUpper(code)

	r.save(persisted{ParticipantID: id, LastRoom: code})

	return Session{ParticipantID: id, RoomCode: code}
}

// ShareURL renders the URL a participant hands to their peer so both land in
// the same room.
func ShareURL(baseURL, roomCode string) string {
	if baseURL == "" {
		return ""
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("room", roomCode)
	u.RawQuery = q.Encode()
	return u.String()
}

// ExtractRoomCode accepts either a bare room code or a share URL carrying a
// room query parameter.
func ExtractRoomCode(arg string) string {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return ""
	}
	if strings.Contains(arg, "://") {
		u, err := url.Parse(arg)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(u.Query().Get("room"))
	}
	return arg
}

func (r *Resolver) load() persisted {
	var saved persisted
	if r.dataDir == "" {
		return saved
	}
	data, err := os.ReadFile(filepath.Join(r.dataDir, identityFile))
	if err != nil {
		return saved
	}
	_ = json.Unmarshal(data, &saved)
	return saved
}

func (r *Resolver) save(p persisted) {
	if r.dataDir == "" {
		return
	}
	if err := os.MkdirAll(r.dataDir, 0o755); err != nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(r.dataDir, identityFile), data, 0o644)
}
