// Package oracle adapts remote vision models to ports.ThreatOracle.
package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash"

	defaultMaxResponseBytes = 4 * 1024 * 1024
)

var ErrMissingAPIKey = errors.New("oracle API key is not configured")

const systemInstruction = `You are a cybersecurity guardian AI.

Your job:
1. ANALYZE the screenshot for security threats
2. If you detect a threat, call the open_cyberpet_popup function to alert the user
3. If no threat, just respond with your analysis in JSON

Look for:
- Phishing emails (suspicious sender, urgent language, fake URLs)
- Fake login pages (URL mismatch with expected site)
- Suspicious popups or malware warnings
- Dangerous file downloads
- Forms collecting sensitive data on HTTP sites

Be cautious but not overly sensitive - only flag CLEAR threats.`

const analysisPrompt = `Analyze this screenshot for cybersecurity threats.

If you detect a threat:
1. Call the open_cyberpet_popup function with the threat details
2. Also provide analysis in JSON format

If no threat:
1. Just respond with JSON showing no threat detected

JSON format:
{
    "threat_detected": true/false,
    "threat_type": "phishing_email" | "fake_login" | "suspicious_popup" | null,
    "confidence": 0-100,
    "explanation": "technical explanation",
    "user_friendly_message": "simple warning"
}`

var _ ports.ThreatOracle = (*GeminiOracle)(nil)

// GeminiOracle calls the Gemini generateContent REST endpoint.
type GeminiOracle struct {
	baseURL          string
	apiKey           string
	model            string
	client           *http.Client
	maxResponseBytes int64
}

// NewGemini creates a Gemini oracle. Empty baseURL and model select defaults.
func NewGemini(baseURL, apiKey, model string, timeout time.Duration) *GeminiOracle {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiOracle{
		baseURL:          baseURL,
		apiKey:           apiKey,
		model:            model,
		maxResponseBytes: defaultMaxResponseBytes,
		client:           &http.Client{Timeout: timeout},
	}
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	Tools             []geminiTool    `json:"tools,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text         string              `json:"text,omitempty"`
	InlineData   *geminiInlineData   `json:"inlineData,omitempty"`
	FunctionCall *geminiFunctionCall `json:"functionCall,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations"`
}

type geminiFunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

var popupDeclaration = geminiFunctionDeclaration{
	Name:        domain.ActionOpenPopup,
	Description: "Opens the CyberPet security alert popup application when a threat is detected",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"threat_type": map[string]any{"type": "string", "description": "Type of threat detected"},
			"severity":    map[string]any{"type": "integer", "description": "Severity level 0-100"},
		},
		"required": []string{"threat_type", "severity"},
	},
}

// Analyze sends the screenshot and maps the first candidate's parts into
// an OracleResponse.
func (g *GeminiOracle) Analyze(ctx context.Context, screenshot []byte) (domain.OracleResponse, error) {
	if g.apiKey == "" {
		return domain.OracleResponse{}, ErrMissingAPIKey
	}

	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}},
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: analysisPrompt},
				{InlineData: &geminiInlineData{MimeType: "image/png", Data: base64.StdEncoding.EncodeToString(screenshot)}},
			},
		}},
		Tools: []geminiTool{{FunctionDeclarations: []geminiFunctionDeclaration{popupDeclaration}}},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return domain.OracleResponse{}, fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.OracleResponse{}, fmt.Errorf("create gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return domain.OracleResponse{}, fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, g.maxResponseBytes+1))
	if err != nil {
		return domain.OracleResponse{}, fmt.Errorf("read gemini response: %w", err)
	}
	if int64(len(respBody)) > g.maxResponseBytes {
		return domain.OracleResponse{}, fmt.Errorf("gemini response exceeded limit (%d bytes)", g.maxResponseBytes)
	}

	if resp.StatusCode >= 400 {
		var errBody geminiErrorResponse
		if err := json.Unmarshal(respBody, &errBody); err != nil || errBody.Error.Message == "" {
			return domain.OracleResponse{}, fmt.Errorf("gemini error status %d", resp.StatusCode)
		}
		return domain.OracleResponse{}, fmt.Errorf("gemini error: %s (status=%s)", errBody.Error.Message, errBody.Error.Status)
	}

	var gResp geminiResponse
	if err := json.Unmarshal(respBody, &gResp); err != nil {
		return domain.OracleResponse{}, fmt.Errorf("decode gemini response: %w", err)
	}

	return toOracleResponse(gResp), nil
}

func toOracleResponse(r geminiResponse) domain.OracleResponse {
	var out domain.OracleResponse
	if len(r.Candidates) == 0 {
		return out
	}
	for _, part := range r.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			out.Actions = append(out.Actions, domain.InvokedAction{
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		}
		if part.Text != "" {
			out.Text = append(out.Text, part.Text)
		}
	}
	return out
}
