package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gottmail/toneguard/internal/core"
	"github.com/gottmail/toneguard/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient is an implementation of the LLMClient interface using OpenAI
type OpenAIClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// ToxicityAnalysisResponse represents the structured response from the LLM
type ToxicityAnalysisResponse struct {
	ToxicityScore float64 `json:"toxicity_score"`
	Horsemen      []struct {
		Pattern    string  `json:"pattern"`
		Confidence float64 `json:"confidence"`
		Severity   string  `json:"severity"`
	} `json:"horsemen"`
	Reasoning string `json:"reasoning"`
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	return &OpenAIClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat:  toxicityPromptFormat,
	}
}

const toxicityPromptFormat = `You are a communication health analyzer. Assess the following email for the four harmful interpersonal patterns: criticism, contempt, defensiveness, and stonewalling.
Respond with a JSON object containing:
- toxicity_score: number between 0 and 1 (overall intensity of harmful communication)
- horsemen: array of objects, one per detected pattern, each with "pattern" (criticism|contempt|defensiveness|stonewalling), "confidence" (0 to 1) and "severity" (low|medium|high|critical)
- reasoning: string (brief explanation naming the patterns, without quoting the email)

Email:
From: %s
To: %s
Subject: %s
Body:
%s

Respond only with the JSON object and nothing else.`

// AnalyzeMessage assesses a message for harmful communication patterns
func (c *OpenAIClient) AnalyzeMessage(ctx context.Context, msg *core.EphemeralMessage) (*core.AnalysisResult, error) {
	prompt := fmt.Sprintf(c.promptFormat,
		msg.Sender,
		formatRecipients(msg.Recipients),
		msg.Subject,
		c.textProcessor.ProcessText(msg.BodyText, c.maxBodySize))

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a communication health analyzer. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: "json_object",
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	parsed, err := parseToxicityResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return buildResult(parsed, c.modelName), nil
}

func formatRecipients(recipients []string) string {
	if len(recipients) == 0 {
		return ""
	}
	to := recipients[0]
	if len(recipients) > 1 {
		to += fmt.Sprintf(" and %d others", len(recipients)-1)
	}
	return to
}

// parseToxicityResponse decodes the model's JSON, tolerating surrounding
// prose by extracting the outermost object.
func parseToxicityResponse(responseText string) (*ToxicityAnalysisResponse, error) {
	var parsed ToxicityAnalysisResponse
	if err := json.Unmarshal([]byte(responseText), &parsed); err == nil {
		return &parsed, nil
	}

	jsonStart := -1
	jsonEnd := -1
	for i := 0; i < len(responseText); i++ {
		if responseText[i] == '{' {
			jsonStart = i
			break
		}
	}
	for i := len(responseText) - 1; i >= 0; i-- {
		if responseText[i] == '}' {
			jsonEnd = i + 1
			break
		}
	}
	if jsonStart < 0 || jsonEnd <= jsonStart {
		return nil, fmt.Errorf("failed to extract JSON from LLM response")
	}

	if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
	}
	return &parsed, nil
}

func buildResult(parsed *ToxicityAnalysisResponse, modelName string) *core.AnalysisResult {
	horsemen := make([]core.HorsemanDetection, 0, len(parsed.Horsemen))
	for _, h := range parsed.Horsemen {
		horsemen = append(horsemen, core.HorsemanDetection{
			Pattern:    core.Horseman(h.Pattern),
			Confidence: h.Confidence,
			Severity:   h.Severity,
		})
	}

	return &core.AnalysisResult{
		ToxicityScore: parsed.ToxicityScore,
		ThreatLevel:   core.ThreatLevelForScore(parsed.ToxicityScore),
		Horsemen:      horsemen,
		Reasoning:     parsed.Reasoning,
		Source:        core.SourceAI,
		AnalyzedAt:    time.Now(),
		ModelUsed:     modelName,
	}
}
