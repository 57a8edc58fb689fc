package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/gottmail/toneguard/internal/core"
	"github.com/gottmail/toneguard/internal/utils"
	"go.uber.org/zap"
)

// BedrockClient is an implementation of the LLMClient interface using Amazon Bedrock
type BedrockClient struct {
	client        *bedrockruntime.Client
	modelID       string
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

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *BedrockClient {
	return &BedrockClient{
		client:        client,
		modelID:       modelID,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
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
	}
}

func (c *BedrockClient) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.")
}

func (c *BedrockClient) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}

// AnalyzeMessage assesses a message for harmful communication patterns
func (c *BedrockClient) AnalyzeMessage(ctx context.Context, msg *core.EphemeralMessage) (*core.AnalysisResult, error) {
	to := ""
	if len(msg.Recipients) > 0 {
		to = msg.Recipients[0]
		if len(msg.Recipients) > 1 {
			to += fmt.Sprintf(" and %d others", len(msg.Recipients)-1)
		}
	}

	processedBody := c.textProcessor.ProcessText(msg.BodyText, c.maxBodySize)
	prompt := fmt.Sprintf(c.promptFormat, msg.Sender, to, msg.Subject, processedBody)

	var payload []byte
	var err error

	if c.isAnthropicModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               fmt.Sprintf("\n\nHuman: %s\n\nAssistant:", prompt),
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	} else if c.isAmazonTitanModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	} else {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	responseText, err := c.extractResponseText(output.Body)
	if err != nil {
		return nil, err
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
		ModelUsed:     c.modelID,
	}, nil
}

// extractResponseText pulls the generated text out of the model-specific
// response envelope.
func (c *BedrockClient) extractResponseText(body []byte) (string, error) {
	if c.isAnthropicModel() {
		var resp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse Anthropic response: %w", err)
		}
		return resp.Completion, nil
	}

	if c.isAmazonTitanModel() {
		var resp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse Titan response: %w", err)
		}
		if len(resp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return resp.Results[0].OutputText, nil
	}

	var resp struct {
		Completion string `json:"completion"`
		Text       string `json:"text"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse model response: %w", err)
	}
	if resp.Completion != "" {
		return resp.Completion, nil
	}
	return resp.Text, nil
}

// parseToxicityResponse decodes the model's JSON, tolerating surrounding
// prose by extracting the outermost object.
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
