package tts

import "context"

// Synthesizer is the text-to-speech collaborator contract, used when the
// chat backend does not inline audio in its completion responses.
type Synthesizer interface {
	// Synthesize converts text to audio bytes in the given voice
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}
