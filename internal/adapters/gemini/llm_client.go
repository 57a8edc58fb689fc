package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/gottmail/toneguard/internal/core"
	"github.com/gottmail/toneguard/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiClient is an implementation of the LLMClient interface using Google Gemini
type GeminiClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
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

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `You are a communication health analyzer. Assess the following email for the four harmful interpersonal patterns: criticism, contempt, defensiveness, and stonewalling.
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

Respond only with the JSON object and nothing else.`,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// AnalyzeMessage assesses a message for harmful communication patterns
func (c *GeminiClient) AnalyzeMessage(ctx context.Context, msg *core.EphemeralMessage) (*core.AnalysisResult, error) {
	to := ""
	if len(msg.Recipients) > 0 {
		to = msg.Recipients[0]
		if len(msg.Recipients) > 1 {
			to += fmt.Sprintf(" and %d others", len(msg.Recipients)-1)
		}
	}

	processedBody := c.textProcessor.ProcessText(msg.BodyText, c.maxBodySize)
	prompt := fmt.Sprintf(c.promptFormat, msg.Sender, to, msg.Subject, processedBody)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var responseText string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText += string(text)
		}
	}

	parsed, err := parseToxicityResponse(responseText)
	if err != nil {
		return nil, err
	}

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
		ModelUsed:     c.modelName,
	}, nil
}

// parseToxicityResponse decodes the model's JSON, tolerating surrounding
// prose (including markdown fences) by extracting the outermost object.
func parseToxicityResponse(responseText string) (*ToxicityAnalysisResponse, error) {
	var parsed ToxicityAnalysisResponse
	if err := json.Unmarshal([]byte(responseText), &parsed); err == nil {
		return &parsed, nil
	}

	jsonStart := strings.Index(responseText, "{")
	jsonEnd := strings.LastIndex(responseText, "}")
	if jsonStart < 0 || jsonEnd < jsonStart {
		return nil, fmt.Errorf("failed to extract JSON from LLM response")
	}

	if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
	}
	return &parsed, nil
}
