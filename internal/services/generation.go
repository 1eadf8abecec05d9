package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cybro8/TestOps-HealthCare-Project/internal/models"
	"github.com/sashabaranov/go-openai"
)

// docContentLimit caps how much extracted document text is sent upstream.
const docContentLimit = 20000

var greetings = map[string]bool{
	"hi":             true,
	"hello":          true,
	"hey":            true,
	"what are you":   true,
	"who are you":    true,
	"what do you do": true,
}

const introMessage = "Hi! I am a test case generator for healthcare applications. " +
	"Upload requirements (PDF, DOCX, or Markdown), and I'll generate structured test cases."

const restrictedMessage = "I am a test case generator for healthcare applications. " +
	"I cannot answer questions outside this domain."

// GenerationService produces structured test cases from free-form prompts
// via the OpenAI chat completions API.
type GenerationService struct {
	client *openai.Client
	model  string
}

func NewGenerationService(apiKey string) *GenerationService {
	return &GenerationService{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4oMini,
	}
}

// LocalReply answers greetings and off-domain prompts without an upstream
// call. The second return value reports whether a local reply applies.
func LocalReply(prompt string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(prompt))

	if greetings[normalized] {
		return introMessage, true
	}

	if !strings.Contains(normalized, "test case") && !strings.Contains(normalized, "healthcare") {
		return restrictedMessage, true
	}

	return "", false
}

// Generate sends the prompt, optionally grounded on extracted document text
// and the project's current test cases, and returns the raw response text.
func (s *GenerationService) Generate(ctx context.Context, prompt string, docContent string, testCases []models.TestCase) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(docContent, testCases),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})

	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generation returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func systemPrompt(docContent string, testCases []models.TestCase) string {
	var builder strings.Builder

	builder.WriteString("You are an AI specialized in generating structured test cases for healthcare applications.\n")
	builder.WriteString("Generate test cases in the following format exactly:\n\n")
	builder.WriteString("Test Case ID:\nDescription:\nSteps:\nExpected Result:\nPriority:\n")

	if docContent != "" {
		if len(docContent) > docContentLimit {
			cut := docContentLimit
			// Back off so the cut never splits a multi-byte rune.
			for cut > 0 && !utf8.RuneStart(docContent[cut]) {
				cut--
			}
			docContent = docContent[:cut]
		}

		builder.WriteString("\nUse the following document content to create test cases:\n\n")
		builder.WriteString(docContent)
		builder.WriteString("\n")
	}

	if len(testCases) > 0 {
		builder.WriteString("\nThe project currently has these test cases:\n")

		for _, testCase := range testCases {
			var payload map[string]interface{}

			if err := json.Unmarshal(testCase.Payload, &payload); err != nil {
				continue
			}

			builder.WriteString(fmt.Sprintf("- [%d] %s\n", testCase.ID, payloadString(payload, "title")))
		}
	}

	return builder.String()
}
