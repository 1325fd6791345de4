package legalai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const systemPromptTemplate = `You are the LexTrack Multi-Agent Legal Orchestrator for Indian Law (BNS/BNSS/BSA).
Your intelligence is partitioned into 7 specialized "Edge" Agents.

AGENT PROTOCOLS:
1. RESEARCH: Cross-reference repealed IPC/CrPC with BNS/BNSS. Verify citation validity.
2. ANALYSIS: Risk-score every clause. Flag one-sided terms.
3. PROCEDURE: Verify Jurisdiction vs location. Calculate deadlines.
4. COMPLIANCE: Predict financial penalties for non-compliance.
5. SCRIBE: Check for factual contradictions and missing evidence.
6. SELF-DOUBT: If confidence < 60%%, suggest advocate escalation.
7. SCHEDULER: Identify hearing gaps and trigger critical reviews.

The user is a %s.

RESPONSE ARCHITECTURE (JSON MANDATORY):
{
  "agent_type": "one of the 7 types",
  "answer": "Markdown formatted legal response...",
  "safety_metrics": {
    "riskScore": 0-100,
    "confidence": 0-100,
    "repealCheck": "passed|failed|n/a",
    "jurisdictionStatus": "verified|unverified",
    "penaltyPrediction": "string or null",
    "evidenceGaps": ["list of missing info"],
    "decision": "CONFIDENT|CAUTION|REFUSAL|ESCALATE"
  }
}`

type GeminiProvider struct {
	BaseURL      string
	APIKey       string
	ChatModel    string // orchestrator queries
	FlashModel   string // document suggestion and research
	HistoryLimit int
	Client       *http.Client
}

func NewGeminiProvider(baseURL, apiKey, chatModel, flashModel string, historyLimit int) *GeminiProvider {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if historyLimit <= 0 {
		historyLimit = 8
	}
	return &GeminiProvider{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		ChatModel:    chatModel,
		FlashModel:   flashModel,
		HistoryLimit: historyLimit,
		Client:       &http.Client{Timeout: 90 * time.Second},
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
	Tools             []geminiTool            `json:"tools,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web *struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *GeminiProvider) generate(ctx context.Context, model string, req geminiRequest) (*geminiResponse, error) {
	if p.Client == nil {
		return nil, errors.New("gemini: http client is nil")
	}
	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.BaseURL, model, p.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gemini: status %d", resp.StatusCode)
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if decoded.Error != nil {
		return nil, errors.New(decoded.Error.Message)
	}
	return &decoded, nil
}

func (r *geminiResponse) text() string {
	var b strings.Builder
	for _, cand := range r.Candidates {
		for _, part := range cand.Content.Parts {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func (p *GeminiProvider) AnalyzeQuery(ctx context.Context, query string, history []HistoryMessage, role string, attachments []Attachment) (Analysis, error) {
	if len(history) > p.HistoryLimit {
		history = history[len(history)-p.HistoryLimit:]
	}

	contents := make([]geminiContent, 0, len(history)+1)
	for _, msg := range history {
		if msg.Role == "assistant" {
			// assistant turns are replayed in the response wire format
			wrapped, _ := json.Marshal(map[string]string{"answer": msg.Content})
			contents = append(contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: string(wrapped)}}})
			continue
		}
		contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: msg.Content}}})
	}

	current := []geminiPart{{Text: query}}
	for _, file := range attachments {
		current = append(current, geminiPart{InlineData: &geminiInlineData{
			MIMEType: file.MIMEType,
			Data:     stripDataURL(file.Data),
		}})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: current})

	temp := 0.1
	resp, err := p.generate(ctx, p.ChatModel, geminiRequest{
		Contents:          contents,
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: fmt.Sprintf(systemPromptTemplate, role)}}},
		GenerationConfig:  &geminiGenerationConfig{ResponseMIMEType: "application/json", Temperature: &temp},
	})
	if err != nil {
		return Analysis{}, err
	}

	var out Analysis
	if err := json.Unmarshal([]byte(resp.text()), &out); err != nil {
		return Analysis{}, fmt.Errorf("gemini: decode analysis: %w", err)
	}
	return out, nil
}

func (p *GeminiProvider) SuggestRequiredDocuments(ctx context.Context, caseType, description string) ([]string, error) {
	prompt := fmt.Sprintf(
		`Act as an expert Indian Legal Scribe. Based on the case type %q and description %q, identify all mandatory legal documents required for filing and evidence under BNSS/BSA rules. Return a JSON object with a 'documents' array of strings.`,
		caseType, description)

	resp, err := p.generate(ctx, p.FlashModel, geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenerationConfig{ResponseMIMEType: "application/json"},
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Documents []string `json:"documents"`
	}
	if err := json.Unmarshal([]byte(resp.text()), &out); err != nil {
		return nil, fmt.Errorf("gemini: decode documents: %w", err)
	}
	return out.Documents, nil
}

func (p *GeminiProvider) ResearchCase(ctx context.Context, title, description string) (Research, error) {
	prompt := fmt.Sprintf(`Perform a deep search on Indian legal databases for the case: %q. Context: %q. Focus on finding:
1. Relevant BNS/BNSS/BSA sections.
2. Recent (last 2 years) High Court or Supreme Court precedents.
3. Strategic key points for the upcoming hearing.
Provide a detailed analysis with bullet points.`, title, description)

	resp, err := p.generate(ctx, p.FlashModel, geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		Tools:    []geminiTool{{GoogleSearch: &struct{}{}}},
	})
	if err != nil {
		return Research{}, err
	}

	sources := []Source{}
	for _, cand := range resp.Candidates {
		if cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Web != nil {
				sources = append(sources, Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
			}
		}
	}

	text := resp.text()
	points := extractPoints(text)
	if len(points) == 0 {
		fallbackText := text
		if fallbackText == "" {
			fallbackText = "No insights found."
		}
		points = []string{fallbackText}
	}
	return Research{Points: points, Sources: sources}, nil
}

var (
	bulletLine  = regexp.MustCompile(`^(\*|-|\d+\.)\s*`)
	bulletStrip = regexp.MustCompile(`^[*\-\d.\s]+`)
)

// extractPoints keeps only bullet/numbered lines, with markers stripped.
func extractPoints(text string) []string {
	var points []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !bulletLine.MatchString(trimmed) {
			continue
		}
		if p := strings.TrimSpace(bulletStrip.ReplaceAllString(trimmed, "")); p != "" {
			points = append(points, p)
		}
	}
	return points
}

// stripDataURL drops a "data:<mime>;base64," prefix when present.
func stripDataURL(data string) string {
	if i := strings.Index(data, ","); i >= 0 && strings.HasPrefix(data, "data:") {
		return data[i+1:]
	}
	return data
}
