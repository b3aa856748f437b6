package protocol

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestGameStateRoundTripKeepsVariant(t *testing.T) {
	in := GameState{
		Kind:          GameHangman,
		Status:        StatusPlaying,
		Turn:          "alice",
		SessionScores: map[string]int{"alice": 2, "bob": 1},
		LastStarterID: "bob",
		Variant: HangmanState{
			Word:           "gopher",
			GuessedLetters: []string{"g", "o"},
			MaxLives:       6,
		},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out GameState
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip changed state:\n in: %+v\nout: %+v", in, out)
	}
	hangman, ok := out.Variant.(HangmanState)
	if !ok {
		t.Fatalf("variant type = %T, want HangmanState", out.Variant)
	}
	if hangman.Word != "gopher" {
		t.Fatalf("word = %q", hangman.Word)
	}
}

func TestGameStateDecodesVariantByKind(t *testing.T) {
	wire := `{"kind":"tictactoe","status":"playing","turn":"bob","state":{"board":["X","","O","","X","","","",""]}}`

	var g GameState
	if err := json.Unmarshal([]byte(wire), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	board, ok := g.Variant.(TicTacToeState)
	if !ok {
		t.Fatalf("variant type = %T, want TicTacToeState", g.Variant)
	}
	if len(board.Board) != 9 || board.Board[0] != "X" || board.Board[4] != "X" {
		t.Fatalf("board = %v", board.Board)
	}
	if g.SessionScores == nil {
		t.Fatal("session scores not initialized")
	}
}

func TestGameStateUnknownKindDropsVariant(t *testing.T) {
	wire := `{"kind":"checkers","status":"playing","turn":"alice","state":{"pieces":[1,2,3]}}`

	var g GameState
	if err := json.Unmarshal([]byte(wire), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if g.Variant != nil {
		t.Fatalf("variant = %+v, want nil for unknown kind", g.Variant)
	}
	if g.Kind != GameKind("checkers") || g.Turn != "alice" {
		t.Fatalf("shared fields lost: %+v", g)
	}
}

func TestGameStateCloneDetachesVariant(t *testing.T) {
	original := GameState{
		Kind:          GameMemory,
		Status:        StatusPlaying,
		Turn:          "alice",
		SessionScores: map[string]int{"alice": 1},
		Variant: MemoryState{
			Cards:          []MemoryCard{{ID: 1, Content: "star"}, {ID: 2, Content: "moon"}},
			Scores:         map[string]int{"alice": 3},
			FlippedIndices: []int{0},
		},
	}

	clone := original.Clone()
	memory := clone.Variant.(MemoryState)
	memory.Cards[0].IsFlipped = true
	memory.Scores["alice"] = 99
	memory.FlippedIndices[0] = 1
	clone.SessionScores["alice"] = 99

	kept := original.Variant.(MemoryState)
	if kept.Cards[0].IsFlipped {
		t.Fatal("mutating a cloned card leaked into the original")
	}
	if kept.Scores["alice"] != 3 {
		t.Fatalf("scores leaked: %d", kept.Scores["alice"])
	}
	if kept.FlippedIndices[0] != 0 {
		t.Fatalf("flipped indices leaked: %v", kept.FlippedIndices)
	}
	if original.SessionScores["alice"] != 1 {
		t.Fatalf("session scores leaked: %d", original.SessionScores["alice"])
	}
}

func TestGameStateEmptyKindMarshalsAsNone(t *testing.T) {
	data, err := json.Marshal(GameState{Turn: "alice"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var wire map[string]json.RawMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(wire["kind"]) != `"none"` {
		t.Fatalf("kind = %s, want \"none\"", wire["kind"])
	}
	if _, ok := wire["state"]; ok {
		t.Fatal("state present without a variant")
	}
}
