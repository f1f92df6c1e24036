package stt

import "context"

// Transcriber is the speech-to-text collaborator contract
type Transcriber interface {
	// Transcribe converts recorded audio into text. Failures propagate:
	// a turn cannot proceed without a transcript.
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
