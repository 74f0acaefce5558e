package speechkit

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"vetbuddy/app/config"

	"github.com/samber/do"
	"github.com/yandex-cloud/go-genproto/yandex/cloud/ai/tts/v3"
	ycsdk "github.com/yandex-cloud/go-sdk"
	"github.com/yandex-cloud/go-sdk/iamkey"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
)

const (
	endpoint   = "tts.api.cloud.yandex.net:443"
	sampleRate = 22050
)

var _ do.Shutdownable = (*Client)(nil)

// Client synthesizes speech through Yandex SpeechKit TTS v3 and plays
// the PCM stream through a local ffplay process.
type Client struct {
	cfg   *config.Config
	sdk   *ycsdk.SDK
	conn  *grpc.ClientConn
	synth tts.SynthesizerClient
}

func NewClient(di *do.Injector) (*Client, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	keyBytes, err := os.ReadFile(cfg.Speech.SpeechKit.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("could not read service account key: %w", err)
	}

	var key iamkey.Key
	if err = json.Unmarshal(keyBytes, &key); err != nil {
		return nil, fmt.Errorf("could not parse service account key: %w", err)
	}

	creds, err := ycsdk.ServiceAccountKey(&key)
	if err != nil {
		return nil, fmt.Errorf("could not create service account key: %w", err)
	}

	sdk, err := ycsdk.Build(ctx, ycsdk.Config{
		Credentials: creds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Yandex SDK: %w", err)
	}

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{})))
	if err != nil {
		return nil, fmt.Errorf("failed to dial synthesizer: %w", err)
	}

	return &Client{
		cfg:   cfg,
		sdk:   sdk,
		conn:  conn,
		synth: tts.NewSynthesizerClient(conn),
	}, nil
}

// Speak synthesizes text and blocks until playback finishes or ctx is
// cancelled.
func (c *Client) Speak(ctx context.Context, text string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	token, err := c.sdk.CreateIAMToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to create IAM token: %w", err)
	}

	ctx = metadata.AppendToOutgoingContext(ctx,
		"authorization", "Bearer "+token.GetIamToken(),
		"x-folder-id", c.cfg.Speech.SpeechKit.FolderID,
	)

	stream, err := c.synth.UtteranceSynthesis(ctx, c.buildRequest(text))
	if err != nil {
		return fmt.Errorf("failed to start synthesis: %w", err)
	}

	handle := &Handle{
		stream: stream,
		cancel: cancel,
	}
	defer handle.Close()

	player, err := NewPlayer(ctx)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}

	if err = player.Start(); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}
	defer player.Stop()

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer player.CloseInput()

		for {
			data, err := handle.Recv()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("Recv: %w", err)
			}

			if len(data) == 0 {
				continue
			}

			if err = player.Write(data); err != nil {
				return fmt.Errorf("failed to write audio: %w", err)
			}
		}
	})

	g.Go(func() error {
		return player.Wait()
	})

	if err = g.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		return err
	}

	return nil
}

func (c *Client) buildRequest(text string) *tts.UtteranceSynthesisRequest {
	var audioSpec tts.AudioFormatOptions
	audioSpec.SetRawAudio(&tts.RawAudio{
		AudioEncoding:   tts.RawAudio_LINEAR16_PCM,
		SampleRateHertz: sampleRate,
	})

	var voiceHint tts.Hints
	voiceHint.SetVoice(c.cfg.Speech.SpeechKit.Voice)

	var speedHint tts.Hints
	speedHint.SetSpeed(c.cfg.Speech.SpeechKit.Rate)

	var req tts.UtteranceSynthesisRequest
	req.SetText(text)
	req.OutputAudioSpec = &audioSpec
	req.Hints = []*tts.Hints{&voiceHint, &speedHint}

	return &req
}

func (c *Client) Shutdown() error {
	return c.conn.Close()
}
