package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-3-flash-preview"},
		{"gemini-pro", "gemini-3-pro-preview"},
		{"gemini-tts", "gemini-2.5-flash-preview-tts"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestGeminiConfig(t *testing.T) {
	schema := speechVerdictSchema()
	config := geminiConfig(Request{
		System:      "You grade Nalibo pronunciation.",
		Temperature: 0.2,
		MaxTokens:   300,
		Schema:      schema,
	})

	if config.MaxOutputTokens != 300 {
		t.Fatalf("max tokens = %d", config.MaxOutputTokens)
	}
	if config.Temperature == nil || *config.Temperature != float32(0.2) {
		t.Fatalf("temperature = %v", config.Temperature)
	}
	if config.SystemInstruction == nil || config.SystemInstruction.Parts[0].Text != "You grade Nalibo pronunciation." {
		t.Fatalf("system instruction = %+v", config.SystemInstruction)
	}
	if config.ResponseMIMEType != "application/json" {
		t.Fatalf("mime type = %q", config.ResponseMIMEType)
	}
	def, ok := config.ResponseJsonSchema.(map[string]any)
	if !ok || def["type"] != "object" {
		t.Fatalf("schema not passed through: %#v", config.ResponseJsonSchema)
	}
}

func TestGeminiConfig_FreeText(t *testing.T) {
	config := geminiConfig(Request{MaxTokens: 50})
	if config.Temperature != nil || config.SystemInstruction != nil {
		t.Fatal("unset options should stay nil")
	}
	if config.ResponseMIMEType != "" || config.ResponseJsonSchema != nil {
		t.Fatal("free text request should not ask for JSON")
	}
}

func TestGeminiContents(t *testing.T) {
	contents := geminiContents([]Message{
		{Role: RoleAssistant, Content: "Say Li tames Nalibone."},
		{
			Role:        RoleUser,
			Content:     "Target: Li tames Nalibone",
			Attachments: []Attachment{{MIMEType: "audio/wav", Data: []byte("RIFF")}},
		},
	})

	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if contents[0].Role != "model" {
		t.Fatalf("assistant should map to model, got %q", contents[0].Role)
	}
	user := contents[1]
	if len(user.Parts) != 2 {
		t.Fatalf("expected audio + text parts, got %d", len(user.Parts))
	}
	if user.Parts[0].InlineData == nil || user.Parts[0].InlineData.MIMEType != "audio/wav" {
		t.Fatalf("first part should be inline audio, got %+v", user.Parts[0])
	}
	if user.Parts[1].Text != "Target: Li tames Nalibone" {
		t.Fatalf("unexpected text part: %q", user.Parts[1].Text)
	}
}

func TestFirstInlineData(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []*genai.Part{
				{Text: "ignored"},
				{InlineData: &genai.Blob{MIMEType: "audio/L16;rate=24000", Data: []byte{1, 2, 3, 4}}},
			}}},
		},
	}
	blob := firstInlineData(resp)
	if blob == nil || len(blob.Data) != 4 {
		t.Fatalf("expected 4-byte blob, got %+v", blob)
	}

	if firstInlineData(&genai.GenerateContentResponse{}) != nil {
		t.Fatal("expected nil for empty response")
	}
}

func TestGeminiSpeechModelID(t *testing.T) {
	p := &GeminiProvider{model: "gemini-3-flash-preview", ttsModel: "gemini-2.5-flash-preview-tts"}
	if p.ModelID() != "gemini-3-flash-preview" {
		t.Fatalf("text model = %q", p.ModelID())
	}
	if p.Speech().ModelID() != "gemini-2.5-flash-preview-tts" {
		t.Fatalf("speech model = %q", p.Speech().ModelID())
	}
}
