package speechkit

import (
	"context"

	"github.com/yandex-cloud/go-genproto/yandex/cloud/ai/tts/v3"
)

// Handle wraps a single synthesis stream.
type Handle struct {
	stream tts.Synthesizer_UtteranceSynthesisClient
	cancel context.CancelFunc
}

// Recv returns the next PCM chunk; io.EOF marks the end of the
// utterance. Responses without audio are returned as empty slices.
func (h *Handle) Recv() ([]byte, error) {
	resp, err := h.stream.Recv()
	if err != nil {
		return nil, err
	}

	chunk := resp.GetAudioChunk()
	if chunk == nil {
		return nil, nil
	}

	return chunk.GetData(), nil
}

func (h *Handle) Close() error {
	h.cancel()
	return nil
}
