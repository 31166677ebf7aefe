// Package payload encodes chess game events into the compact text records
// carried in a transaction payload.
//
// Record format:
//
//	CHS1|<kind>|<gameID>|<fields...>
//
// Records are ASCII and never exceed MaxSize bytes. Move legality is not
// checked here; only move syntax is.
package payload

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Klingon-tech/kaschess/pkg/crypto"
)

// Protocol constants.
const (
	Magic        = "CHS1"
	MaxSize      = 128
	GameIDLength = 16
	MaxMinutes   = 999
	MaxIncrement = 999
	MaxPly       = 9999
	sep          = "|"
)

// Kind identifies the event type.
type Kind byte

// Event kinds.
const (
	KindInit   Kind = 'i'
	KindJoin   Kind = 'j'
	KindMove   Kind = 'm'
	KindChat   Kind = 'c'
	KindResign Kind = 'r'
	KindDraw   Kind = 'd'
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindJoin:
		return "join"
	case KindMove:
		return "move"
	case KindChat:
		return "chat"
	case KindResign:
		return "resign"
	case KindDraw:
		return "draw"
	}
	return fmt.Sprintf("unknown(%q)", byte(k))
}

// Color is a side choice.
type Color byte

// Colors. ColorRandom is only valid for init.
const (
	ColorWhite  Color = 'w'
	ColorBlack  Color = 'b'
	ColorRandom Color = 'r'
)

// DrawAction is the draw sub-command.
type DrawAction byte

// Draw actions.
const (
	DrawOffer   DrawAction = 'o'
	DrawAccept  DrawAction = 'a'
	DrawDecline DrawAction = 'x'
)

// Payload errors.
var (
	ErrMalformed   = errors.New("malformed payload")
	ErrUnknownKind = errors.New("unknown payload kind")
	ErrTooLarge    = errors.New("payload too large")
	ErrInvalidMove = errors.New("invalid move syntax")
)

// Event is one decoded game event. Only the fields of its Kind are set.
type Event struct {
	Kind   Kind
	GameID string

	// init, join
	Color Color
	// init
	Minutes   uint16
	Increment uint16
	// move
	Ply  uint16
	Move string
	// chat
	Seq   uint8
	Total uint8
	Chunk []byte
	// draw
	Draw DrawAction
}

// NewGameID derives a game id from the creator's identity and a nonce.
func NewGameID(creator, nonce []byte) string {
	h := crypto.HashConcat(creator, nonce)
	return hex.EncodeToString(h[:GameIDLength/2])
}

// Encode validates ev and renders it as a record.
func Encode(ev Event) ([]byte, error) {
	if err := validateGameID(ev.GameID); err != nil {
		return nil, err
	}
	fields := []string{Magic, string(rune(ev.Kind)), ev.GameID}

	switch ev.Kind {
	case KindInit:
		if ev.Color != ColorWhite && ev.Color != ColorBlack && ev.Color != ColorRandom {
			return nil, fmt.Errorf("%w: init color %q", ErrMalformed, byte(ev.Color))
		}
		if ev.Minutes > MaxMinutes || ev.Increment > MaxIncrement {
			return nil, fmt.Errorf("%w: time control %d+%d", ErrMalformed, ev.Minutes, ev.Increment)
		}
		fields = append(fields, string(rune(ev.Color)),
			strconv.Itoa(int(ev.Minutes)), strconv.Itoa(int(ev.Increment)))
	case KindJoin:
		if ev.Color != ColorWhite && ev.Color != ColorBlack {
			return nil, fmt.Errorf("%w: join color %q", ErrMalformed, byte(ev.Color))
		}
		fields = append(fields, string(rune(ev.Color)))
	case KindMove:
		if ev.Ply == 0 || ev.Ply > MaxPly {
			return nil, fmt.Errorf("%w: ply %d", ErrMalformed, ev.Ply)
		}
		if err := ValidateMove(ev.Move); err != nil {
			return nil, err
		}
		fields = append(fields, strconv.Itoa(int(ev.Ply)), ev.Move)
	case KindChat:
		if ev.Total == 0 || ev.Seq == 0 || ev.Seq > ev.Total || ev.Total > MaxChatChunks {
			return nil, fmt.Errorf("%w: chat chunk %d/%d", ErrMalformed, ev.Seq, ev.Total)
		}
		if len(ev.Chunk) == 0 {
			return nil, fmt.Errorf("%w: empty chat chunk", ErrMalformed)
		}
		fields = append(fields, strconv.Itoa(int(ev.Seq)), strconv.Itoa(int(ev.Total)),
			base64.StdEncoding.EncodeToString(ev.Chunk))
	case KindResign:
	case KindDraw:
		if ev.Draw != DrawOffer && ev.Draw != DrawAccept && ev.Draw != DrawDecline {
			return nil, fmt.Errorf("%w: draw action %q", ErrMalformed, byte(ev.Draw))
		}
		fields = append(fields, string(rune(ev.Draw)))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, byte(ev.Kind))
	}

	out := strings.Join(fields, sep)
	if len(out) > MaxSize {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrTooLarge, len(out), MaxSize)
	}
	return []byte(out), nil
}

// Decode parses a record.
func Decode(data []byte) (Event, error) {
	if len(data) > MaxSize {
		return Event{}, fmt.Errorf("%w: %d bytes, max %d", ErrTooLarge, len(data), MaxSize)
	}
	parts := strings.Split(string(data), sep)
	if len(parts) < 3 || parts[0] != Magic {
		return Event{}, fmt.Errorf("%w: missing %s header", ErrMalformed, Magic)
	}
	if len(parts[1]) != 1 {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownKind, parts[1])
	}
	ev := Event{Kind: Kind(parts[1][0]), GameID: parts[2]}
	if err := validateGameID(ev.GameID); err != nil {
		return Event{}, err
	}
	fields := parts[3:]

	want := map[Kind]int{KindInit: 3, KindJoin: 1, KindMove: 2, KindChat: 3, KindResign: 0, KindDraw: 1}
	n, ok := want[ev.Kind]
	if !ok {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownKind, parts[1])
	}
	if len(fields) != n {
		return Event{}, fmt.Errorf("%w: %s wants %d fields, got %d", ErrMalformed, ev.Kind, n, len(fields))
	}

	var err error
	switch ev.Kind {
	case KindInit:
		ev.Color, err = parseColor(fields[0])
		if err != nil {
			return Event{}, err
		}
		if ev.Minutes, err = parseUint16(fields[1], MaxMinutes, "minutes"); err != nil {
			return Event{}, err
		}
		if ev.Increment, err = parseUint16(fields[2], MaxIncrement, "increment"); err != nil {
			return Event{}, err
		}
	case KindJoin:
		ev.Color, err = parseColor(fields[0])
		if err != nil {
			return Event{}, err
		}
		if ev.Color == ColorRandom {
			return Event{}, fmt.Errorf("%w: join color must be w or b", ErrMalformed)
		}
	case KindMove:
		if ev.Ply, err = parseUint16(fields[0], MaxPly, "ply"); err != nil {
			return Event{}, err
		}
		if ev.Ply == 0 {
			return Event{}, fmt.Errorf("%w: ply 0", ErrMalformed)
		}
		if err := ValidateMove(fields[1]); err != nil {
			return Event{}, err
		}
		ev.Move = fields[1]
	case KindChat:
		seq, err := parseUint16(fields[0], MaxChatChunks, "seq")
		if err != nil {
			return Event{}, err
		}
		total, err := parseUint16(fields[1], MaxChatChunks, "total")
		if err != nil {
			return Event{}, err
		}
		if seq == 0 || total == 0 || seq > total {
			return Event{}, fmt.Errorf("%w: chat chunk %d/%d", ErrMalformed, seq, total)
		}
		ev.Seq, ev.Total = uint8(seq), uint8(total)
		ev.Chunk, err = base64.StdEncoding.DecodeString(fields[2])
		if err != nil || len(ev.Chunk) == 0 {
			return Event{}, fmt.Errorf("%w: chat chunk encoding", ErrMalformed)
		}
	case KindDraw:
		if len(fields[0]) != 1 {
			return Event{}, fmt.Errorf("%w: draw action %q", ErrMalformed, fields[0])
		}
		ev.Draw = DrawAction(fields[0][0])
		if ev.Draw != DrawOffer && ev.Draw != DrawAccept && ev.Draw != DrawDecline {
			return Event{}, fmt.Errorf("%w: draw action %q", ErrMalformed, fields[0])
		}
	}
	return ev, nil
}

// ValidateMove checks UCI long algebraic syntax: e2e4, or e7e8q with a
// promotion piece.
func ValidateMove(m string) error {
	if len(m) != 4 && len(m) != 5 {
		return fmt.Errorf("%w: %q", ErrInvalidMove, m)
	}
	for i := 0; i < 4; i += 2 {
		if m[i] < 'a' || m[i] > 'h' || m[i+1] < '1' || m[i+1] > '8' {
			return fmt.Errorf("%w: %q", ErrInvalidMove, m)
		}
	}
	if m[0:2] == m[2:4] {
		return fmt.Errorf("%w: %q moves to its own square", ErrInvalidMove, m)
	}
	if len(m) == 5 {
		switch m[4] {
		case 'q', 'r', 'b', 'n':
		default:
			return fmt.Errorf("%w: promotion %q", ErrInvalidMove, m[4])
		}
		if m[3] != '1' && m[3] != '8' {
			return fmt.Errorf("%w: promotion off the back rank", ErrInvalidMove)
		}
	}
	return nil
}

func validateGameID(id string) error {
	if len(id) != GameIDLength {
		return fmt.Errorf("%w: game id must be %d hex chars", ErrMalformed, GameIDLength)
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w: game id %q", ErrMalformed, id)
		}
	}
	return nil
}

func parseColor(s string) (Color, error) {
	if len(s) == 1 {
		switch c := Color(s[0]); c {
		case ColorWhite, ColorBlack, ColorRandom:
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: color %q", ErrMalformed, s)
}

func parseUint16(s string, max uint64, field string) (uint16, error) {
	// Leading zeros or signs would make records non-canonical.
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformed, field, s)
	}
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil || v > max {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformed, field, s)
	}
	return uint16(v), nil
}
