package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

var geminiModels = map[string]string{
	"gemini-flash": "gemini-3-flash-preview",
	"gemini-pro":   "gemini-3-pro-preview",
	"gemini-tts":   "gemini-2.5-flash-preview-tts",
}

// Gemini TTS output is 16-bit mono PCM at this rate.
const geminiSpeechSampleRate = 24000

const defaultGeminiVoice = "Kore"

// GeminiProvider generates text with Gemini. It is the only provider
// that accepts audio attachments, which the speech evaluator relies on.
type GeminiProvider struct {
	client   *genai.Client
	model    string
	ttsModel string
	voice    string
}

// NewGeminiProvider creates a Gemini API client for cfg.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	p := &GeminiProvider{
		client:   client,
		model:    resolveModel(cfg.Model, geminiModels),
		ttsModel: resolveModel(orDefault(cfg.TTSModel, "gemini-tts"), geminiModels),
		voice:    orDefault(cfg.Voice, defaultGeminiVoice),
	}
	return p, nil
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	result, err := p.client.Models.GenerateContent(ctx, p.model, geminiContents(req.Messages), geminiConfig(req))
	if err != nil {
		return nil, mapGeminiError(err)
	}

	resp := &Response{
		Content: json.RawMessage(result.Text()),
		Usage:   geminiUsage(result.UsageMetadata),
		Model:   p.model,
	}
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		resp.StopReason = "max_tokens"
	} else {
		resp.StopReason = "end"
	}
	return finish(req, resp)
}

// geminiConfig carries the request options. The JSON Schema is passed
// through as is; Gemini accepts the same subset the validator checks.
func geminiConfig(req Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = req.Schema.Definition
	}
	return config
}

// geminiContents puts each message's audio ahead of its text, so the
// prompt reads as instructions about the clip.
func geminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		parts := make([]*genai.Part, 0, len(m.Attachments)+1)
		for _, a := range m.Attachments {
			parts = append(parts, genai.NewPartFromBytes(a.Data, a.MIMEType))
		}
		if m.Content != "" {
			parts = append(parts, genai.NewPartFromText(m.Content))
		}
		out = append(out, genai.NewContentFromParts(parts, role))
	}
	return out
}

func geminiUsage(u *genai.GenerateContentResponseUsageMetadata) Usage {
	if u == nil {
		return Usage{}
	}
	return Usage{
		InputTokens:  int(u.PromptTokenCount),
		OutputTokens: int(u.CandidatesTokenCount),
		TotalTokens:  int(u.TotalTokenCount),
	}
}

// Speech returns a Synthesizer view of p that reports the TTS model.
func (p *GeminiProvider) Speech() Synthesizer {
	return geminiSpeech{p}
}

type geminiSpeech struct{ p *GeminiProvider }

func (s geminiSpeech) ModelID() string { return s.p.ttsModel }

func (s geminiSpeech) Synthesize(ctx context.Context, req SpeechRequest) (*SpeechResponse, error) {
	return s.p.Synthesize(ctx, req)
}

// Synthesize speaks req.Text with a prebuilt voice, the configured one
// unless req names another.
func (p *GeminiProvider) Synthesize(ctx context.Context, req SpeechRequest) (*SpeechResponse, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: orDefault(req.Voice, p.voice)},
			},
		},
	}

	result, err := p.client.Models.GenerateContent(ctx, p.ttsModel, genai.Text(req.Text), config)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	blob := firstInlineData(result)
	if blob == nil || len(blob.Data) == 0 {
		return nil, &ErrInvalidResponse{Err: errors.New("no audio in Gemini response")}
	}
	return &SpeechResponse{
		Audio:      blob.Data,
		MIMEType:   blob.MIMEType,
		SampleRate: geminiSpeechSampleRate,
		Model:      p.ttsModel,
		Usage:      geminiUsage(result.UsageMetadata),
	}, nil
}

func firstInlineData(result *genai.GenerateContentResponse) *genai.Blob {
	for _, c := range result.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if part != nil && part.InlineData != nil {
				return part.InlineData
			}
		}
	}
	return nil
}

func mapGeminiError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err)
	}
	return &ErrProviderUnavailable{Err: err}
}

// orDefault returns v, or def when v is empty.
func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
