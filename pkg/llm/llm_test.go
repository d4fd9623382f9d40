package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mnemohq/mnemo/pkg/llm"
)

var _ = Describe("NewCaller", func() {
	It("returns error for unsupported provider", func() {
		_, err := llm.NewCaller(llm.CallerConfig{Provider: "watson", APIKey: "k"})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unsupported provider"))
	})

	It("falls back to ollama when no key is available", func() {
		// No APIKey, no env vars set for this fake provider name path.
		caller, err := llm.NewCaller(llm.CallerConfig{Provider: "openai", BaseURL: "http://localhost:1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(caller).NotTo(BeNil())
	})

	Describe("openai caller", func() {
		It("posts to /v1/chat/completions and returns the first choice", func() {
			var gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/v1/chat/completions"))
				gotAuth = r.Header.Get("Authorization")
				json.NewEncoder(w).Encode(map[string]any{
					"choices": []map[string]any{
						{"message": map[string]any{"content": "hello back"}},
					},
				})
			}))
			defer srv.Close()

			caller, err := llm.NewCaller(llm.CallerConfig{
				Provider: "openai",
				Model:    "gpt-4o-mini",
				APIKey:   "sk-test",
				BaseURL:  srv.URL,
			})
			Expect(err).NotTo(HaveOccurred())

			out, err := caller(context.Background(), "hi")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("hello back"))
			Expect(gotAuth).To(Equal("Bearer sk-test"))
		})

		It("surfaces non-200 responses as errors", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			}))
			defer srv.Close()

			caller, err := llm.NewCaller(llm.CallerConfig{Provider: "openai", APIKey: "k", BaseURL: srv.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = caller(context.Background(), "hi")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("429"))
		})
	})

	Describe("anthropic caller", func() {
		It("posts to /v1/messages with version header", func() {
			var gotVersion, gotKey string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/v1/messages"))
				gotVersion = r.Header.Get("anthropic-version")
				gotKey = r.Header.Get("x-api-key")
				json.NewEncoder(w).Encode(map[string]any{
					"content": []map[string]any{
						{"type": "text", "text": "claude says hi"},
					},
				})
			}))
			defer srv.Close()

			caller, err := llm.NewCaller(llm.CallerConfig{
				Provider: "anthropic",
				APIKey:   "sk-ant",
				BaseURL:  srv.URL,
			})
			Expect(err).NotTo(HaveOccurred())

			out, err := caller(context.Background(), "hi")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("claude says hi"))
			Expect(gotVersion).To(Equal("2023-06-01"))
			Expect(gotKey).To(Equal("sk-ant"))
		})
	})

	Describe("ollama caller", func() {
		It("posts to /api/chat and returns message content", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/chat"))
				json.NewEncoder(w).Encode(map[string]any{
					"message": map[string]any{"content": "local response"},
					"done":    true,
				})
			}))
			defer srv.Close()

			caller, err := llm.NewCaller(llm.CallerConfig{Provider: "ollama", Model: "llama3.2", BaseURL: srv.URL})
			Expect(err).NotTo(HaveOccurred())

			out, err := caller(context.Background(), "hi")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("local response"))
		})

		It("returns error when the server is unreachable", func() {
			caller, err := llm.NewCaller(llm.CallerConfig{Provider: "ollama", BaseURL: "http://127.0.0.1:1"})
			Expect(err).NotTo(HaveOccurred())

			_, err = caller(context.Background(), "hi")
			Expect(err).To(HaveOccurred())
		})
	})
})
