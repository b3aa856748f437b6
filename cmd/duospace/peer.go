package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zxhanraja/duo-space/internal/history"
	"github.com/zxhanraja/duo-space/internal/identity"
	"github.com/zxhanraja/duo-space/internal/presence"
	"github.com/zxhanraja/duo-space/internal/protocol"
	"github.com/zxhanraja/duo-space/internal/router"
	"github.com/zxhanraja/duo-space/internal/space"
	"github.com/zxhanraja/duo-space/internal/transport"
)

type peerConfig struct {
	relayURL string
	room     string
	dataDir  string
}

func newPeerCmd() *cobra.Command {
	cfg := &peerConfig{}
	cmd := &cobra.Command{
		Use:   "peer",
		Short: "Run a headless peer: joins a room, prints inbound events, sends typed lines as chat.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeer(cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&cfg.relayURL, "relay", "", "relay base URL, e.g. http://localhost:8080 (env: DUOSPACE_RELAY)")
	fs.StringVar(&cfg.room, "room", "", "room code or share URL carrying one (env: DUOSPACE_ROOM)")
	fs.StringVar(&cfg.dataDir, "data-dir", defaultDataDir(), "directory for identity and chat history (env: DUOSPACE_DATA_DIR)")

	bindFlags(cmd)
	return cmd
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".duospace"
	}
	return filepath.Join(base, "duospace")
}

func runPeer(cfg *peerConfig) error {
	sess := identity.NewResolver(cfg.dataDir).Resolve(cfg.room)

	var hist *history.Store
	if cfg.dataDir != "" {
		var err error
		hist, err = history.Open(filepath.Join(cfg.dataDir, "history.db"))
		if err != nil {
			// History is best-effort; the session runs without it.
			log.Printf("history unavailable: %v", err)
			hist = nil
		}
	}

	channels := []transport.Channel{transport.JoinLocalBus(sess.RoomCode)}
	if cfg.relayURL != "" {
		channels = append(channels, transport.DialRelay(cfg.relayURL, sess.RoomCode, sess.ParticipantID))
	}
	mux := transport.NewMux(sess.ParticipantID, channels...)

	core := space.New(sess, mux, hist)
	defer func() {
		core.Close()
		if hist != nil {
			hist.Close()
		}
	}()

	fmt.Printf("room %s, participant %s\n", sess.RoomCode, sess.ParticipantID)
	if cfg.relayURL != "" {
		fmt.Printf("share: %s\n", identity.ShareURL(cfg.relayURL, sess.RoomCode))
	}

	watchTopics(core)
	core.SubscribeToStatus(func(status presence.Status) {
		fmt.Printf("[status] peerOnline=%v connected=%v room=%s\n",
			status.PeerOnline, status.Connected, status.RoomCode)
	})

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		core.SendMessage(protocol.Message{
			ID:        uuid.NewString(),
			SenderID:  sess.ParticipantID,
			Text:      text,
			Timestamp: time.Now().UnixMilli(),
			Kind:      protocol.MessageText,
		})
	}
	return scanner.Err()
}

func watchTopics(core *space.Core) {
	core.Subscribe(router.TopicMessage, func(payload any) {
		if msg, ok := payload.(protocol.Message); ok {
			fmt.Printf("[%s] %s\n", msg.SenderID, msg.Text)
		}
	})
	core.Subscribe(router.TopicNudge, func(any) {
		fmt.Println("[nudge] the peer shook your space")
	})
	core.Subscribe(router.TopicPlayerUpdate, func(payload any) {
		if player, ok := payload.(protocol.PlayerState); ok {
			fmt.Printf("[player] song=%s playing=%v at %.1fs\n",
				player.CurrentSongID, player.IsPlaying, space.ProjectProgress(player, time.Now()))
		}
	})
	core.Subscribe(router.TopicNoteUpdate, func(payload any) {
		if notes, ok := payload.([]protocol.Note); ok {
			fmt.Printf("[notes] %d notes\n", len(notes))
		}
	})
	core.Subscribe(router.TopicGameUpdate, func(payload any) {
		if game, ok := payload.(protocol.GameState); ok {
			fmt.Printf("[game] %s %s, turn %s\n", game.Kind, game.Status, game.Turn)
		}
	})
	core.Subscribe(router.TopicDrawLine, func(any) {
		fmt.Println("[canvas] line drawn")
	})
	core.Subscribe(router.TopicClearCanvas, func(any) {
		fmt.Println("[canvas] cleared")
	})
	core.Subscribe(router.TopicPlaylistUpdate, func(payload any) {
		if playlist, ok := payload.([]protocol.Song); ok {
			fmt.Printf("[playlist] %d songs\n", len(playlist))
		}
	})
	core.Subscribe(router.TopicFullSync, func(any) {
		fmt.Println("[sync] full state received")
	})
	core.Subscribe(router.TopicThemeChange, func(payload any) {
		if theme, ok := payload.(string); ok {
			fmt.Printf("[theme] %s\n", theme)
		}
	})
	core.Subscribe(router.TopicTypingStatus, func(payload any) {
		if status, ok := payload.(protocol.TypingStatus); ok && status.IsTyping {
			fmt.Printf("[typing] %s is typing…\n", status.UserID)
		}
	})
}
