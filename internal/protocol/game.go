package protocol

import (
	"encoding/json"
	"fmt"
)

type GameKind string

const (
	GameNone      GameKind = "none"
	GameTicTacToe GameKind = "tictactoe"
	GameGomoku    GameKind = "gomoku"
	GameMemory    GameKind = "memory"
	GameRPS       GameKind = "rps"
	GameHangman   GameKind = "hangman"
	GameWordDuel  GameKind = "wordduel"
)

type GameStatus string

const (
	StatusLobby   GameStatus = "lobby"
	StatusPlaying GameStatus = "playing"
	StatusEnded   GameStatus = "ended"
)

// GameVariant holds the fields one game kind needs and nothing else.
// Interpretation dispatches on GameState.Kind.
type GameVariant interface {
	GameKind() GameKind
}

type TicTacToeState struct {
	Board []string `json:"board"`
}

func (TicTacToeState) GameKind() GameKind { return GameTicTacToe }

type GomokuState struct {
	Board []string `json:"board"`
	Size  int      `json:"size"`
}

func (GomokuState) GameKind() GameKind { return GameGomoku }

type MemoryCard struct {
	ID        int    `json:"id"`
	Content   string `json:"content"`
	IsFlipped bool   `json:"isFlipped"`
	IsMatched bool   `json:"isMatched"`
}

type MemoryState struct {
	Cards          []MemoryCard   `json:"cards"`
	Scores         map[string]int `json:"scores"`
	FlippedIndices []int          `json:"flippedIndices"`
}

func (MemoryState) GameKind() GameKind { return GameMemory }

type RPSChoice string

const (
	RPSRock     RPSChoice = "rock"
	RPSPaper    RPSChoice = "paper"
	RPSScissors RPSChoice = "scissors"
)

type RPSState struct {
	Choices map[string]RPSChoice `json:"choices"`
}

func (RPSState) GameKind() GameKind { return GameRPS }

type HangmanState struct {
	Word           string   `json:"word"`
	GuessedLetters []string `json:"guessedLetters"`
	MaxLives       int      `json:"maxLives"`
}

func (HangmanState) GameKind() GameKind { return GameHangman }

type WordDuelState struct {
	Target   string            `json:"target"`
	Progress map[string]string `json:"progress"`
}

func (WordDuelState) GameKind() GameKind { return GameWordDuel }

// GameState is the game sub-state: shared bookkeeping plus one kind-specific
// variant. A GAME envelope always replaces the whole value.
type GameState struct {
	Kind          GameKind
	Status        GameStatus
	Turn          string
	Winner        string
	SessionScores map[string]int
	LastStarterID string
	Variant       GameVariant
}

// NewGameState returns the idle lobby state with the local participant on
// turn.
func NewGameState(localID string) GameState {
	return GameState{
		Kind:          GameNone,
		Status:        StatusLobby,
		Turn:          localID,
		SessionScores: map[string]int{},
	}
}

func (g GameState) Clone() GameState {
	out := g
	out.SessionScores = make(map[string]int, len(g.SessionScores))
	for k, v := range g.SessionScores {
		out.SessionScores[k] = v
	}
	out.Variant = cloneVariant(g.Variant)
	return out
}

// cloneVariant copies the kind-specific state so a cloned snapshot never
// aliases the live one's interior slices and maps.
func cloneVariant(v GameVariant) GameVariant {
	switch s := v.(type) {
	case TicTacToeState:
		s.Board = append([]string(nil), s.Board...)
		return s
	case GomokuState:
		s.Board = append([]string(nil), s.Board...)
		return s
	case MemoryState:
		s.Cards = append([]MemoryCard(nil), s.Cards...)
		scores := make(map[string]int, len(s.Scores))
		for k, n := range s.Scores {
			scores[k] = n
		}
		s.Scores = scores
		s.FlippedIndices = append([]int(nil), s.FlippedIndices...)
		return s
	case RPSState:
		choices := make(map[string]RPSChoice, len(s.Choices))
		for k, c := range s.Choices {
			choices[k] = c
		}
		s.Choices = choices
		return s
	case HangmanState:
		s.GuessedLetters = append([]string(nil), s.GuessedLetters...)
		return s
	case WordDuelState:
		progress := make(map[string]string, len(s.Progress))
		for k, p := range s.Progress {
			progress[k] = p
		}
		s.Progress = progress
		return s
	default:
		return v
	}
}

type gameStateJSON struct {
	Kind          GameKind        `json:"kind"`
	Status        GameStatus      `json:"status"`
	Turn          string          `json:"turn"`
	Winner        string          `json:"winner,omitempty"`
	SessionScores map[string]int  `json:"sessionScores,omitempty"`
	LastStarterID string          `json:"lastStarterId,omitempty"`
	State         json.RawMessage `json:"state,omitempty"`
}

func (g GameState) MarshalJSON() ([]byte, error) {
	kind := g.Kind
	if kind == "" {
		kind = GameNone
	}
	wire := gameStateJSON{
		Kind:          kind,
		Status:        g.Status,
		Turn:          g.Turn,
		Winner:        g.Winner,
		SessionScores: g.SessionScores,
		LastStarterID: g.LastStarterID,
	}
	if g.Variant != nil {
		raw, err := json.Marshal(g.Variant)
		if err != nil {
			return nil, fmt.Errorf("marshal %s state: %w", kind, err)
		}
		wire.State = raw
	}
	return json.Marshal(wire)
}

func (g *GameState) UnmarshalJSON(data []byte) error {
	var wire gameStateJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	g.Kind = wire.Kind
	g.Status = wire.Status
	g.Turn = wire.Turn
	g.Winner = wire.Winner
	g.SessionScores = wire.SessionScores
	g.LastStarterID = wire.LastStarterID
	g.Variant = nil
	if g.SessionScores == nil {
		g.SessionScores = map[string]int{}
	}
	if len(wire.State) == 0 {
		return nil
	}
	variant, err := decodeVariant(wire.Kind, wire.State)
	if err != nil {
		return err
	}
	g.Variant = variant
	return nil
}

func decodeVariant(kind GameKind, raw json.RawMessage) (GameVariant, error) {
	switch kind {
	case GameTicTacToe:
		var v TicTacToeState
		err := json.Unmarshal(raw, &v)
		return v, err
	case GameGomoku:
		var v GomokuState
		err := json.Unmarshal(raw, &v)
		return v, err
	case GameMemory:
		var v MemoryState
		err := json.Unmarshal(raw, &v)
		return v, err
	case GameRPS:
		var v RPSState
		err := json.Unmarshal(raw, &v)
		return v, err
	case GameHangman:
		var v HangmanState
		err := json.Unmarshal(raw, &v)
		return v, err
	case GameWordDuel:
		var v WordDuelState
		err := json.Unmarshal(raw, &v)
		return v, err
	default:
		// Unknown kinds decode without a variant rather than failing the
		// whole envelope.
		return nil, nil
	}
}
