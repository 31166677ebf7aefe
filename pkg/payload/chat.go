package payload

import (
	"fmt"
	"sort"
)

// MaxChatChunks bounds the number of records a single message may span.
const MaxChatChunks = 99

// chatChunkSize is the raw bytes per chunk. The worst-case header
// "CHS1|c|<16>|99|99|" is 30 bytes, leaving 98 for base64 (96 usable).
const chatChunkSize = 72

// ChatChunks splits msg into chat events that each encode within MaxSize.
func ChatChunks(gameID, msg string) ([]Event, error) {
	if err := validateGameID(gameID); err != nil {
		return nil, err
	}
	if msg == "" {
		return nil, fmt.Errorf("%w: empty chat message", ErrMalformed)
	}
	raw := []byte(msg)
	total := (len(raw) + chatChunkSize - 1) / chatChunkSize
	if total > MaxChatChunks {
		return nil, fmt.Errorf("%w: message needs %d chunks, max %d", ErrTooLarge, total, MaxChatChunks)
	}
	events := make([]Event, 0, total)
	for i := 0; i < total; i++ {
		end := (i + 1) * chatChunkSize
		if end > len(raw) {
			end = len(raw)
		}
		events = append(events, Event{
			Kind:   KindChat,
			GameID: gameID,
			Seq:    uint8(i + 1),
			Total:  uint8(total),
			Chunk:  append([]byte(nil), raw[i*chatChunkSize:end]...),
		})
	}
	return events, nil
}

// ReassembleChat joins the chunks of one message. Chunks may arrive in any
// order but must all be present exactly once.
func ReassembleChat(events []Event) (string, error) {
	if len(events) == 0 {
		return "", fmt.Errorf("%w: no chat chunks", ErrMalformed)
	}
	first := events[0]
	sorted := make([]Event, len(events))
	copy(sorted, events)
	for _, ev := range sorted {
		if ev.Kind != KindChat || ev.GameID != first.GameID || ev.Total != first.Total {
			return "", fmt.Errorf("%w: chunk does not belong to message", ErrMalformed)
		}
	}
	if int(first.Total) != len(sorted) {
		return "", fmt.Errorf("%w: have %d of %d chunks", ErrMalformed, len(sorted), first.Total)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })

	var out []byte
	for i, ev := range sorted {
		if int(ev.Seq) != i+1 {
			return "", fmt.Errorf("%w: chunk %d missing or repeated", ErrMalformed, i+1)
		}
		out = append(out, ev.Chunk...)
	}
	return string(out), nil
}
