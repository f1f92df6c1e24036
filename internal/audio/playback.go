package audio

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"
)

// Player plays an interviewer audio turn and blocks until playback finishes
// or fails. Implementations decide what "playback" means: the live session
// transport forwards the audio to the connected client and waits for its
// acknowledgement; the timed player below just waits out the estimated
// duration.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// DecodeBase64 decodes the base64 audio payload carried in chat responses
func DecodeBase64(data string) ([]byte, error) {
	if data == "" {
		return nil, fmt.Errorf("empty audio payload")
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode audio payload: %w", err)
	}
	return decoded, nil
}

// EncodeBase64 encodes audio bytes for transport to the client
func EncodeBase64(audio []byte) string {
	return base64.StdEncoding.EncodeToString(audio)
}

// EstimateDuration estimates how long the given audio will take to play.
// WAV payloads are measured from their header; anything else falls back to
// a words-per-minute-style estimate based on payload size at the given
// default byte rate.
func EstimateDuration(audio []byte, defaultByteRate int) time.Duration {
	if d, err := wavDuration(audio); err == nil {
		return d
	}
	if defaultByteRate <= 0 {
		defaultByteRate = 16000 // 8kHz 16-bit mono
	}
	seconds := float64(len(audio)) / float64(defaultByteRate)
	return time.Duration(seconds * float64(time.Second))
}

// wavDuration reads the fmt and data chunks of a RIFF/WAVE payload
func wavDuration(audio []byte) (time.Duration, error) {
	if len(audio) < 44 || string(audio[0:4]) != "RIFF" || string(audio[8:12]) != "WAVE" {
		return 0, fmt.Errorf("not a WAV payload")
	}

	var byteRate uint32
	var dataSize uint32

	// Walk the chunk list; fmt carries the byte rate, data the payload size
	offset := 12
	for offset+8 <= len(audio) {
		chunkID := string(audio[offset : offset+4])
		chunkSize := binary.LittleEndian.Uint32(audio[offset+4 : offset+8])

		switch chunkID {
		case "fmt ":
			if offset+16+8 > len(audio) {
				return 0, fmt.Errorf("truncated fmt chunk")
			}
			byteRate = binary.LittleEndian.Uint32(audio[offset+16 : offset+20])
		case "data":
			dataSize = chunkSize
		}

		offset += 8 + int(chunkSize)
		if chunkSize%2 == 1 {
			offset++ // chunks are word-aligned
		}
	}

	if byteRate == 0 || dataSize == 0 {
		return 0, fmt.Errorf("missing fmt or data chunk")
	}

	seconds := float64(dataSize) / float64(byteRate)
	return time.Duration(seconds * float64(time.Second)), nil
}

// TimedPlayer blocks for the estimated duration of the audio. It stands in
// for real playback when the transport has no acknowledgement channel.
type TimedPlayer struct {
	ByteRate int // fallback byte rate for non-WAV payloads
}

// Play waits out the estimated playback duration or the context
func (p *TimedPlayer) Play(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(EstimateDuration(audio, p.ByteRate)):
		return nil
	}
}

// NopPlayer discards audio immediately; used when voice is disabled
type NopPlayer struct{}

// Play returns immediately
func (NopPlayer) Play(ctx context.Context, audio []byte) error { return nil }
