package legalai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func newGeminiServer(t *testing.T, handler func(model string, req geminiRequest) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// path: /models/<model>:generateContent
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/models/"), ":")
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handler(parts[0], req))
	}))
}

func textResponse(text string) any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
}

func TestGemini_AnalyzeQuery(t *testing.T) {
	payload := `{"agent_type":"research","answer":"Section 103 BNS applies.","safety_metrics":{"riskScore":20,"confidence":88,"decision":"CONFIDENT"}}`

	var gotModel string
	var gotReq geminiRequest
	srv := newGeminiServer(t, func(model string, req geminiRequest) any {
		gotModel = model
		gotReq = req
		return textResponse(payload)
	})
	defer srv.Close()

	p := NewGeminiProvider(srv.URL, "test-key", "chat-model", "flash-model", 2)
	history := []HistoryMessage{
		{Role: "user", Content: "older, should be trimmed"},
		{Role: "user", Content: "what is the penalty?"},
		{Role: "assistant", Content: "It depends on the section."},
	}

	res, err := p.AnalyzeQuery(context.Background(), "and for repeat offenders?", history, "advocate", nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if gotModel != "chat-model" {
		t.Fatalf("wrong model: %q", gotModel)
	}
	if res.AgentType != "research" || res.Safety == nil || res.Safety.Decision != "CONFIDENT" {
		t.Fatalf("unexpected analysis: %+v", res)
	}

	// 2 history turns (limit) + the current query
	if len(gotReq.Contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(gotReq.Contents))
	}
	if gotReq.Contents[1].Role != "model" {
		t.Fatalf("assistant turn should map to model role, got %q", gotReq.Contents[1].Role)
	}
	if gotReq.SystemInstruction == nil || !strings.Contains(gotReq.SystemInstruction.Parts[0].Text, "advocate") {
		t.Fatalf("system instruction missing role")
	}
}

func TestGemini_AnalyzeQuery_Attachments(t *testing.T) {
	var gotReq geminiRequest
	srv := newGeminiServer(t, func(_ string, req geminiRequest) any {
		gotReq = req
		return textResponse(`{"agent_type":"scribe","answer":"ok"}`)
	})
	defer srv.Close()

	p := NewGeminiProvider(srv.URL, "k", "chat", "flash", 8)
	_, err := p.AnalyzeQuery(context.Background(), "review this", nil, "client", []Attachment{
		{Name: "deed.pdf", MIMEType: "application/pdf", Data: "data:application/pdf;base64,QUJD"},
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	parts := gotReq.Contents[len(gotReq.Contents)-1].Parts
	if len(parts) != 2 || parts[1].InlineData == nil {
		t.Fatalf("attachment not carried: %+v", parts)
	}
	if parts[1].InlineData.Data != "QUJD" {
		t.Fatalf("data URL prefix not stripped: %q", parts[1].InlineData.Data)
	}
}

func TestGemini_SuggestRequiredDocuments(t *testing.T) {
	srv := newGeminiServer(t, func(model string, _ geminiRequest) any {
		if model != "flash-model" {
			t.Errorf("wrong model: %q", model)
		}
		return textResponse(`{"documents":["FIR Copy","Charge Sheet"]}`)
	})
	defer srv.Close()

	p := NewGeminiProvider(srv.URL, "k", "chat-model", "flash-model", 8)
	docs, err := p.SuggestRequiredDocuments(context.Background(), "Criminal", "assault case")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if !reflect.DeepEqual(docs, []string{"FIR Copy", "Charge Sheet"}) {
		t.Fatalf("unexpected documents: %v", docs)
	}
}

func TestGemini_ResearchCase_ParsesBullets(t *testing.T) {
	srv := newGeminiServer(t, func(_ string, req geminiRequest) any {
		if len(req.Tools) == 0 || req.Tools[0].GoogleSearch == nil {
			t.Errorf("research call must request search grounding")
		}
		return textResponse("Summary line.\n* Section 103 BNS is relevant\n- Check recent SC precedent\n3. File before the deadline\nplain trailing line")
	})
	defer srv.Close()

	p := NewGeminiProvider(srv.URL, "k", "chat", "flash", 8)
	res, err := p.ResearchCase(context.Background(), "State v. Doe", "desc")
	if err != nil {
		t.Fatalf("research: %v", err)
	}
	want := []string{
		"Section 103 BNS is relevant",
		"Check recent SC precedent",
		"File before the deadline",
	}
	if !reflect.DeepEqual(res.Points, want) {
		t.Fatalf("unexpected points: %v", res.Points)
	}
}

func TestGemini_TransportErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewGeminiProvider(srv.URL, "k", "chat", "flash", 8)
	if _, err := p.SuggestRequiredDocuments(context.Background(), "Civil", "x"); err == nil {
		t.Fatalf("expected error from 500 response")
	}
}
