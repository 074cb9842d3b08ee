package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vninvoice/internal/pdf"
)

func testPages() []pdf.PageImage {
	return []pdf.PageImage{
		{Number: 1, PNG: []byte("png-bytes-page-1"), Width: 1654, Height: 2339},
	}
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClientWithConfig(ClientConfig{
		APIKey:  "test-key",
		BaseURL: serverURL + "/v1",
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

func completionResponse(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func TestNewClientWithConfigRequiresAPIKey(t *testing.T) {
	_, err := NewClientWithConfig(ClientConfig{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestExtractInvoiceSuccess(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++

		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("Expected chat completions path, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Expected Authorization header")
		}

		var req struct {
			Messages []struct {
				Content []struct {
					Type     string `json:"type"`
					Text     string `json:"text"`
					ImageURL struct {
						URL string `json:"url"`
					} `json:"image_url"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if len(req.Messages) != 1 {
			t.Fatalf("Expected 1 message, got %d", len(req.Messages))
		}
		// One text part with the instruction, one image part per page.
		parts := req.Messages[0].Content
		if len(parts) != 2 {
			t.Fatalf("Expected 2 content parts, got %d", len(parts))
		}
		if parts[0].Type != "text" || parts[0].Text == "" {
			t.Error("Expected first part to carry the instruction text")
		}
		if parts[1].Type != "image_url" || !strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,") {
			t.Errorf("Expected base64 PNG data URL, got %q", parts[1].ImageURL.URL)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionResponse("```json\n" + validResponse + "\n```"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	raw, err := client.ExtractInvoice(context.Background(), testPages())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(raw.Header["invoice_number"]) != `"00012345"` {
		t.Errorf("Expected parsed invoice number, got %s", raw.Header["invoice_number"])
	}
	if requests != 1 {
		t.Errorf("Expected exactly 1 request, got %d", requests)
	}
}

func TestExtractInvoiceErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrAuthFailed},
		{"forbidden", http.StatusForbidden, ErrAuthFailed},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusInternalServerError, ErrServiceUnavailable},
		{"bad gateway", http.StatusBadGateway, ErrServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{
						"message": "upstream failure",
						"type":    "api_error",
					},
				})
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			_, err := client.ExtractInvoice(context.Background(), testPages())
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}

			var serviceErr *ServiceError
			if !errors.As(err, &serviceErr) {
				t.Fatalf("Expected *ServiceError, got %T", err)
			}
			if serviceErr.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, serviceErr.StatusCode)
			}
			// A failed call is never silently retried.
			if requests != 1 {
				t.Errorf("Expected exactly 1 request, got %d", requests)
			}
		})
	}
}

func TestExtractInvoiceUnparseableResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionResponse("I could not read this document."))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ExtractInvoice(context.Background(), testPages())
	if !errors.Is(err, ErrParseFailed) {
		t.Fatalf("Expected ErrParseFailed, got %v", err)
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected *ParseError, got %T", err)
	}
	if !strings.Contains(parseErr.Raw, "could not read") {
		t.Errorf("Expected raw response text on the error, got %q", parseErr.Raw)
	}
}

func TestExtractInvoiceEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionResponse(""))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ExtractInvoice(context.Background(), testPages())
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestExtractInvoiceNoPages(t *testing.T) {
	client := newTestClient(t, "http://localhost:1")
	if _, err := client.ExtractInvoice(context.Background(), nil); err == nil {
		t.Error("Expected error for empty page list")
	}
}

func TestExtractInvoiceContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(t, server.URL)
	_, err := client.ExtractInvoice(ctx, testPages())
	if !errors.Is(err, ErrContextCanceled) {
		t.Errorf("Expected ErrContextCanceled, got %v", err)
	}
}
