// intellichat/services/genai/client.go
package genai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"intellichat/intellichat/config"
	"intellichat/intellichat/types"
	"intellichat/intellichat/utils/httputils"
	"intellichat/intellichat/utils/logging"

	"go.uber.org/zap"
)

// Wire types for the generative language REST API.

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type wirePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents       []content       `json:"contents"`
	SafetySettings []safetySetting `json:"safetySettings,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type generateResponse struct {
	Candidates     []candidate    `json:"candidates"`
	PromptFeedback promptFeedback `json:"promptFeedback"`
}

// defaultSafetySettings mirror the vision call's fixed moderation policy:
// harassment and hate speech blocked at the low-and-above threshold.
func defaultSafetySettings() []safetySetting {
	return []safetySetting{
		{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_LOW_AND_ABOVE"},
		{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_LOW_AND_ABOVE"},
	}
}

// Client talks to the hosted generative API. Both model clients are built
// once at startup and handed to the session layer; there are no lazily
// memoized globals.
type Client struct {
	baseURL     string
	apiKey      string
	textModel   string
	visionModel string
	http        *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.GenAIBaseURL, "/"),
		apiKey:      cfg.GenAIAPIKey,
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
		http:        &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{"x-goog-api-key": c.apiKey}
}

// contentFromMessage converts a conversation message to its wire form.
func contentFromMessage(msg types.Message) content {
	out := content{Role: string(msg.Role)}
	for _, p := range msg.Parts {
		if p.Image != nil {
			out.Parts = append(out.Parts, wirePart{
				InlineData: &inlineData{MIMEType: p.Image.MIMEType, Data: p.Image.Data},
			})
			continue
		}
		out.Parts = append(out.Parts, wirePart{Text: p.Text})
	}
	return out
}

func responseText(resp generateResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback.BlockReason != "" {
			return "", &InvocationError{
				Kind:        KindBlocked,
				Description: "prompt blocked: " + resp.PromptFeedback.BlockReason,
			}
		}
		return "", &InvocationError{Kind: KindEmptyResponse, Description: "no candidates returned"}
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		// A candidate with no text is how the service reports a terminated
		// reply; the finish reason says why.
		switch reason := resp.Candidates[0].FinishReason; reason {
		case "SAFETY", "RECITATION":
			return "", &InvocationError{Kind: KindBlocked, Description: "response blocked: " + reason}
		default:
			return "", &InvocationError{Kind: KindEmptyResponse, Description: "candidate contained no text"}
		}
	}
	return sb.String(), nil
}

// GenerateContent performs a blocking, non-streaming generation call.
func (c *Client) GenerateContent(ctx context.Context, model string, contents []content, safety []safetySetting) (string, error) {
	defer logging.LogDuration(ctx, "genai_generate_content")()

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	var resp generateResponse
	if err := httputils.PostJSON(ctx, c.http, url, c.headers(), generateRequest{Contents: contents, SafetySettings: safety}, &resp); err != nil {
		return "", wrapTransport(err)
	}
	return responseText(resp)
}

// StreamGenerateContent performs a streaming generation call but blocks
// until the stream is fully consumed, returning the aggregated text. When
// fn is non-nil it is invoked with each text chunk as it arrives. The ctx
// is the cancellation/timeout hook for the whole call.
func (c *Client) StreamGenerateContent(ctx context.Context, model string, contents []content, safety []safetySetting, fn func(chunk string)) (string, error) {
	defer logging.LogDuration(ctx, "genai_stream_generate_content")()

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, model)
	body, err := httputils.PostStream(ctx, c.http, url, c.headers(), generateRequest{Contents: contents, SafetySettings: safety})
	if err != nil {
		return "", wrapTransport(err)
	}
	defer body.Close()

	var sb strings.Builder
	sawChunk := false
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return "", wrapTransport(ctx.Err())
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}
		var chunk generateResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			logging.ErrorLogger.Error("genai stream decode error", zap.Error(err))
			return "", &InvocationError{Kind: KindTransport, Description: "stream decode: " + err.Error()}
		}
		if chunk.PromptFeedback.BlockReason != "" {
			return "", &InvocationError{
				Kind:        KindBlocked,
				Description: "prompt blocked: " + chunk.PromptFeedback.BlockReason,
			}
		}
		if len(chunk.Candidates) == 0 {
			continue
		}
		for _, p := range chunk.Candidates[0].Content.Parts {
			if p.Text == "" {
				continue
			}
			sawChunk = true
			sb.WriteString(p.Text)
			if fn != nil {
				fn(p.Text)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", wrapTransport(err)
	}
	if !sawChunk {
		return "", &InvocationError{Kind: KindEmptyResponse, Description: "stream produced no content"}
	}
	return sb.String(), nil
}
