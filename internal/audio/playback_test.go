package audio

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"testing"
	"time"
)

// buildWAV builds a minimal RIFF/WAVE payload with the given byte rate and
// data length
func buildWAV(byteRate uint32, dataLen int) []byte {
	data := make([]byte, dataLen)
	buf := make([]byte, 0, 44+dataLen)

	buf = append(buf, []byte("RIFF")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+dataLen))
	buf = append(buf, []byte("WAVE")...)

	buf = append(buf, []byte("fmt ")...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, 1) // mono
	buf = binary.LittleEndian.AppendUint32(buf, 8000)
	buf = binary.LittleEndian.AppendUint32(buf, byteRate)
	buf = binary.LittleEndian.AppendUint16(buf, 2)
	buf = binary.LittleEndian.AppendUint16(buf, 16)

	buf = append(buf, []byte("data")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataLen))
	buf = append(buf, data...)

	return buf
}

func TestDecodeBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("audio-bytes"))

	decoded, err := DecodeBase64(encoded)
	if err != nil {
		t.Fatalf("DecodeBase64() failed: %v", err)
	}
	if string(decoded) != "audio-bytes" {
		t.Errorf("Unexpected decoded bytes: %s", decoded)
	}
}

func TestDecodeBase64_Empty(t *testing.T) {
	if _, err := DecodeBase64(""); err == nil {
		t.Error("Expected error for empty payload")
	}
}

func TestDecodeBase64_Invalid(t *testing.T) {
	if _, err := DecodeBase64("not base64!!!"); err == nil {
		t.Error("Expected error for invalid payload")
	}
}

func TestEstimateDuration_WAV(t *testing.T) {
	// 16000 bytes/sec byte rate, 32000 bytes of data = 2 seconds
	wav := buildWAV(16000, 32000)

	d := EstimateDuration(wav, 0)
	if d != 2*time.Second {
		t.Errorf("Expected 2s, got %v", d)
	}
}

func TestEstimateDuration_NonWAVFallback(t *testing.T) {
	// 8000 bytes at 16000 bytes/sec = 0.5 seconds
	audio := make([]byte, 8000)

	d := EstimateDuration(audio, 16000)
	if d != 500*time.Millisecond {
		t.Errorf("Expected 500ms, got %v", d)
	}
}

func TestTimedPlayer_Play(t *testing.T) {
	player := &TimedPlayer{ByteRate: 16000}

	start := time.Now()
	err := player.Play(context.Background(), make([]byte, 160)) // 10ms of audio
	if err != nil {
		t.Fatalf("Play() failed: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Expected Play to block for the estimated duration")
	}
}

func TestTimedPlayer_ContextCancelled(t *testing.T) {
	player := &TimedPlayer{ByteRate: 1} // absurdly slow so playback would block

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := player.Play(ctx, make([]byte, 100000))
	if err == nil {
		t.Error("Expected context error when playback is cancelled")
	}
}

func TestNopPlayer(t *testing.T) {
	if err := (NopPlayer{}).Play(context.Background(), []byte("x")); err != nil {
		t.Errorf("NopPlayer.Play() failed: %v", err)
	}
}
