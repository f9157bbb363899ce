package genai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// SystemInstruction is the persona the assistant answers with. Configured
// once per client; the remote session context is created lazily on the first
// message, there is no standalone open call on the wire.
const SystemInstruction = "You are 'Weaver', a creative AI assistant for artists using the AI Background Weaver tool. " +
	"Your goal is to help them brainstorm ideas, refine their prompts, and think outside the box. " +
	"Be encouraging, imaginative, and concise. Your responses should be formatted with markdown."

// ChatTurn is one prior message handed back to the API as context.
type ChatTurn struct {
	Role string // "user" or "model"
	Text string
}

// StreamMessage opens a streaming exchange for one user message and invokes
// emit for each text fragment in arrival order. The stream is finite and not
// restartable; emit returning an error stops consumption and is reported
// back unchanged so a closing session can cancel cleanly.
func (c *Client) StreamMessage(ctx context.Context, history []ChatTurn, message string, emit func(fragment string) error) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("message is empty")
	}

	if c.apiKey == "" {
		return c.syntheticReply(ctx, message, emit)
	}

	contents := make([]geminiContent, 0, len(history)+1)
	for _, turn := range history {
		role := turn.Role
		if role == "" {
			role = "user"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: turn.Text}},
		})
	}
	contents = append(contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: message}},
	})

	payload := geminiGenerateContentRequest{
		Contents:          contents,
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: SystemInstruction}}},
		GenerationConfig:  &geminiGenerationConfig{Temperature: 0.7},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, url.PathEscape(c.chatModel))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}
		var chunk geminiGenerateContentResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.Warn().Err(err).Msg("genai: skipping malformed stream chunk")
			continue
		}
		for _, candidate := range chunk.Candidates {
			for _, part := range candidate.Content.Parts {
				if part.Text == "" {
					continue
				}
				if err := emit(part.Text); err != nil {
					return err
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}
