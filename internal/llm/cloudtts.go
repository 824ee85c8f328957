package llm

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
)

const cloudSpeechSampleRate = 24000

// CloudSpeech implements Synthesizer with Google Cloud Text-to-Speech.
// Credentials come from GOOGLE_APPLICATION_CREDENTIALS.
type CloudSpeech struct {
	client   *texttospeech.Client
	language string
	voice    string
}

// NewCloudSpeech creates a Cloud Text-to-Speech client.
func NewCloudSpeech(ctx context.Context, cfg SpeechConfig) (*CloudSpeech, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create text-to-speech client: %w", err)
	}
	lang := cfg.LanguageCode
	if lang == "" {
		lang = "es-ES"
	}
	return &CloudSpeech{client: client, language: lang, voice: cfg.Voice}, nil
}

// ModelID names the voice, or the language when no voice is pinned.
func (c *CloudSpeech) ModelID() string {
	if c.voice != "" {
		return "cloud-tts/" + c.voice
	}
	return "cloud-tts/" + c.language
}

// Synthesize requests LINEAR16 audio. The service returns it with a WAV
// header already attached.
func (c *CloudSpeech) Synthesize(ctx context.Context, req SpeechRequest) (*SpeechResponse, error) {
	voice := req.Voice
	if voice == "" {
		voice = c.voice
	}

	resp, err := c.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: req.Text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: c.language,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_FEMALE,
			Name:         voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: cloudSpeechSampleRate,
		},
	})
	if err != nil {
		return nil, &ErrProviderUnavailable{Err: err}
	}
	if len(resp.AudioContent) == 0 {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("empty audio from text-to-speech")}
	}

	return &SpeechResponse{
		Audio:      resp.AudioContent,
		MIMEType:   "audio/wav",
		SampleRate: cloudSpeechSampleRate,
		Model:      c.ModelID(),
	}, nil
}

// Close releases the underlying gRPC connection.
func (c *CloudSpeech) Close() error {
	return c.client.Close()
}
