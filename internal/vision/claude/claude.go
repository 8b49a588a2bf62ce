// Package claude analyzes photos with the Anthropic Messages API.
package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/stockroomhq/stockroom/internal/vision"
)

type ClaudeAnalyzer struct {
	client *anthropic.Client
	model  anthropic.Model
}

func NewClaudeAnalyzer(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeAnalyzer {
	return &ClaudeAnalyzer{
		client: anthropic.NewClient(apiKey, opts...),
		model:  anthropic.Model(model),
	}
}

func (a *ClaudeAnalyzer) Analyze(ctx context.Context, r io.Reader, mimeType string) (*vision.ScanResult, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	resp, err := a.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: a.model,
		// 1024 tokens covers a densely stocked shelf with headroom for
		// verbose models.
		MaxTokens: 1024,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewImageMessageContent(
						anthropic.NewMessageContentSource(
							anthropic.MessagesContentSourceTypeBase64,
							normaliseMIME(mimeType),
							base64.StdEncoding.EncodeToString(imageData),
						),
					),
					anthropic.NewTextMessageContent(vision.ScanPrompt),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	var responseText string
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText {
			responseText = block.GetText()
			break
		}
	}

	return &vision.ScanResult{
		Items:       vision.ParseResponse(responseText),
		RawResponse: responseText,
	}, nil
}

// normaliseMIME maps browser MIME types to the values the Anthropic API accepts.
// The API accepts only jpeg, png, gif, and webp; unknown types are coerced to
// jpeg as the most universally supported lossy fallback.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
