package recall_test

import (
	"context"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mnemohq/mnemo/pkg/config"
	"github.com/mnemohq/mnemo/pkg/memory"
	"github.com/mnemohq/mnemo/pkg/recall"
	"github.com/mnemohq/mnemo/pkg/topics"
	testutils "github.com/mnemohq/mnemo/pkg/utils/test"
)

var _ = Describe("Assembler", func() {
	var (
		ctx    context.Context
		driver *testutils.MockMemoryDriver
		cfg    config.RecallConfig
	)

	newAssembler := func() *recall.Assembler {
		return recall.NewAssembler(driver, nil, cfg, nil)
	}

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewMockMemoryDriver()
		cfg = config.RecallConfig{
			MinScore:    0.4,
			Limit:       5,
			InputBudget: 6400,
			TopicBudget: 8000,
			IndexBudget: 1500,
		}
	})

	Describe("ShouldSkip", func() {
		DescribeTable("skipped inputs",
			func(input string) {
				Expect(newAssembler().ShouldSkip(input)).To(BeTrue())
			},
			Entry("blank", "   \n\t "),
			Entry("empty", ""),
			Entry("short", "fix the bug"),
			Entry("slash command", "/compact and then carry on please"),
			Entry("greeting", "thank you"),
			Entry("greeting with punctuation", "Good morning!"),
		)

		It("allows a substantive input", func() {
			a := newAssembler()
			Expect(a.ShouldSkip("why does the session reaper leak goroutines under load?")).To(BeFalse())
		})

		It("skips an input identical to the immediately preceding one", func() {
			a := newAssembler()
			input := "why does the session reaper leak goroutines under load?"
			Expect(a.ShouldSkip(input)).To(BeFalse())
			Expect(a.ShouldSkip(input)).To(BeTrue())
		})

		It("only memoizes a single entry", func() {
			a := newAssembler()
			first := "why does the session reaper leak goroutines under load?"
			second := "what backoff policy does the retry loop use for timeouts?"
			Expect(a.ShouldSkip(first)).To(BeFalse())
			Expect(a.ShouldSkip(second)).To(BeFalse())
			Expect(a.ShouldSkip(first)).To(BeFalse())
		})
	})

	Describe("Turn", func() {
		input := "how did we decide to handle schema migrations in the store?"

		It("renders qualifying memories inside a recall block", func() {
			driver.SearchResults = []memory.Result{
				{ID: "m1", Title: "migrations", Content: "migrations run at driver init", Tags: []string{"architecture"}, Score: 0.9},
				{ID: "m2", Title: "pooling", Content: "connection pool capped at four", Score: 0.6},
			}

			block := newAssembler().Turn(ctx, input, "")
			Expect(block).To(HavePrefix("<memory_recall>"))
			Expect(block).To(HaveSuffix("</memory_recall>"))
			Expect(block).To(ContainSubstring("migrations run at driver init"))
			Expect(block).To(ContainSubstring("[architecture]"))
			Expect(block).To(ContainSubstring("connection pool capped at four"))
		})

		It("filters out memories below the minimum score", func() {
			driver.SearchResults = []memory.Result{
				{ID: "m1", Title: "keep", Content: "high scoring memory content here", Score: 0.8},
				{ID: "m2", Title: "drop", Content: "low scoring memory content here", Score: 0.3},
			}

			block := newAssembler().Turn(ctx, input, "")
			Expect(block).To(ContainSubstring("high scoring"))
			Expect(block).NotTo(ContainSubstring("low scoring"))
		})

		It("returns nothing when no memory clears the minimum score", func() {
			driver.SearchResults = []memory.Result{
				{ID: "m1", Title: "drop", Content: "low scoring memory content here", Score: 0.1},
			}
			Expect(newAssembler().Turn(ctx, input, "")).To(BeEmpty())
		})

		It("returns nothing on an empty store", func() {
			Expect(newAssembler().Turn(ctx, input, "")).To(BeEmpty())
		})

		It("returns nothing when the search fails", func() {
			driver.FailSearch = true
			Expect(newAssembler().Turn(ctx, input, "")).To(BeEmpty())
		})

		It("does not query the store for skipped inputs", func() {
			Expect(newAssembler().Turn(ctx, "/status", "")).To(BeEmpty())
			Expect(driver.SearchQueries).To(BeEmpty())
		})

		It("stops at the first entry that would exceed the budget", func() {
			cfg.InputBudget = 90
			driver.SearchResults = []memory.Result{
				{ID: "m1", Title: "first", Content: strings.Repeat("a", 50), Score: 0.9},
				{ID: "m2", Title: "second", Content: strings.Repeat("b", 50), Score: 0.8},
				{ID: "m3", Title: "third", Content: strings.Repeat("c", 10), Score: 0.7},
			}

			block := newAssembler().Turn(ctx, input, "")
			Expect(block).To(ContainSubstring(strings.Repeat("a", 50)))
			Expect(block).NotTo(ContainSubstring(strings.Repeat("b", 50)))
			Expect(block).NotTo(ContainSubstring(strings.Repeat("c", 10)))
		})
	})

	Describe("SessionStart", func() {
		var (
			tmpDir string
			store  *topics.Store
		)

		BeforeEach(func() {
			var err error
			tmpDir, err = os.MkdirTemp("", "recall-test-*")
			Expect(err).NotTo(HaveOccurred())
			store = topics.NewStore(tmpDir)
		})

		AfterEach(func() {
			os.RemoveAll(tmpDir)
		})

		It("includes topic files and store memories", func() {
			Expect(store.Write(topics.Topic{
				Filename: "acme-widgets-auth.md",
				Title:    "Auth notes",
				Updated:  "2026-08-30",
				Body:     "token validation happens in middleware",
			})).To(Succeed())
			driver.SearchResults = []memory.Result{
				{ID: "m1", Title: "retries", Content: "retry with jittered backoff", Score: 0.8},
			}

			a := recall.NewAssembler(driver, store, cfg, nil)
			block := a.SessionStart(ctx, "acme/widgets", "acme-widgets", "project-1")
			Expect(block).To(HavePrefix("<memory_context>"))
			Expect(block).To(HaveSuffix("</memory_context>"))
			Expect(block).To(ContainSubstring("Auth notes"))
			Expect(block).To(ContainSubstring("token validation happens in middleware"))
			Expect(block).To(ContainSubstring("retry with jittered backoff"))
		})

		It("lists overflowing topics as an index of titles", func() {
			cfg.TopicBudget = 120
			Expect(store.Write(topics.Topic{
				Filename: "acme-widgets-new.md",
				Title:    "Newest",
				Updated:  "2026-08-30",
				Body:     strings.Repeat("fresh material ", 6),
			})).To(Succeed())
			Expect(store.Write(topics.Topic{
				Filename: "acme-widgets-old.md",
				Title:    "Oldest",
				Updated:  "2026-01-01",
				Body:     strings.Repeat("stale material ", 6),
			})).To(Succeed())

			a := recall.NewAssembler(driver, store, cfg, nil)
			block := a.SessionStart(ctx, "acme/widgets", "acme-widgets", "")
			Expect(block).To(ContainSubstring("Newest"))
			Expect(block).To(ContainSubstring("Other topics"))
			Expect(block).To(ContainSubstring("- Oldest (acme-widgets-old.md)"))
			Expect(block).NotTo(ContainSubstring("stale material"))
		})

		It("returns nothing when there are no topics and no memories", func() {
			a := recall.NewAssembler(driver, store, cfg, nil)
			Expect(a.SessionStart(ctx, "acme/widgets", "acme-widgets", "")).To(BeEmpty())
		})

		It("still renders topics when the store search fails", func() {
			driver.FailSearch = true
			Expect(store.Write(topics.Topic{
				Filename: "acme-widgets-auth.md",
				Title:    "Auth notes",
				Updated:  "2026-08-30",
				Body:     "token validation happens in middleware",
			})).To(Succeed())

			a := recall.NewAssembler(driver, store, cfg, nil)
			block := a.SessionStart(ctx, "acme/widgets", "acme-widgets", "")
			Expect(block).To(ContainSubstring("token validation"))
		})
	})
})
