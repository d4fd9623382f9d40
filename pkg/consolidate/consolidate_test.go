package consolidate_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mnemohq/mnemo/pkg/config"
	"github.com/mnemohq/mnemo/pkg/consolidate"
	"github.com/mnemohq/mnemo/pkg/extract"
	"github.com/mnemohq/mnemo/pkg/memory"
	"github.com/mnemohq/mnemo/pkg/queue"
	"github.com/mnemohq/mnemo/pkg/score"
	testutils "github.com/mnemohq/mnemo/pkg/utils/test"
)

var _ = Describe("Pipeline", func() {
	var (
		ctx       context.Context
		driver    *testutils.MockMemoryDriver
		extractor *testutils.MockCaller
		scorer    *testutils.MockCaller
		dotDir    string
		q         *queue.Manager
		cfg       config.ConsolidateConfig
	)

	// Long enough to clear the minimum input size and ground every
	// candidate the mock extractor returns.
	sessionText := `I fixed the startup crash by adding a null check in parseConfig before
dereferencing the options pointer. We chose postgres over sqlite because of
concurrent writers hitting the store. Also worth noting: the deploy script
always fails when the registry cache is stale, so clear the registry cache
before every deploy run.`

	newPipeline := func() *consolidate.Pipeline {
		return consolidate.NewPipeline(
			driver,
			extract.NewModelExtractor(extractor.Func(), nil),
			score.NewScorer(scorer.Func(), nil),
			q,
			cfg,
			dotDir,
			nil,
		)
	}

	input := func(userText string) consolidate.Input {
		return consolidate.Input{
			SessionID:   "sess-1",
			ProjectName: "acme/widgets",
			RepoName:    "widgets",
			UserText:    userText,
		}
	}

	pendingFiles := func() []string {
		matches, err := filepath.Glob(filepath.Join(dotDir, "pending", "*.json"))
		Expect(err).NotTo(HaveOccurred())
		return matches
	}

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewMockMemoryDriver()
		extractor = testutils.NewMockCaller(`[]`)
		scorer = testutils.NewMockCaller("0.5")

		var err error
		dotDir, err = os.MkdirTemp("", "consolidate-test-*")
		Expect(err).NotTo(HaveOccurred())
		q = queue.NewManager(dotDir)

		cfg = config.ConsolidateConfig{
			AutoSaveThreshold:  0.65,
			DiscardThreshold:   0.35,
			DuplicateThreshold: 0.85,
			LinkThreshold:      0.5,
			MaxLinks:           3,
		}
	})

	AfterEach(func() {
		os.RemoveAll(dotDir)
	})

	It("saves a high-confidence candidate scoped to the project", func() {
		extractor.Responses = []string{`[{"type":"solution","content":"adding a null check in parseConfig before dereferencing the options pointer"}]`}
		scorer.Responses = []string{"0.9"}

		report := newPipeline().Run(ctx, input(sessionText))
		Expect(report.Saved).To(Equal(1))
		Expect(report.Failures).To(BeZero())

		Expect(driver.StoredRecords).To(HaveLen(1))
		rec := driver.StoredRecords[0]
		Expect(rec.Content).To(ContainSubstring("null check in parseConfig"))
		Expect(rec.Tags).To(ConsistOf("solution"))
		Expect(rec.ProjectIDs).To(ConsistOf("project-1"))
		Expect(rec.Importance).To(Equal(9))
	})

	It("routes candidates by confidence threshold", func() {
		extractor.Responses = []string{`[
			{"type":"solution","content":"adding a null check in parseConfig before dereferencing the options pointer"},
			{"type":"decision","content":"we chose postgres over sqlite because of concurrent writers"},
			{"type":"failure","content":"the deploy script always fails when the registry cache is stale"}
		]`}
		scorer.Responses = []string{"0.9", "0.5", "0.1"}

		report := newPipeline().Run(ctx, input(sessionText))
		Expect(report.Extracted).To(Equal(3))
		Expect(report.Saved).To(Equal(1))
		Expect(report.Review).To(Equal(1))
		Expect(report.Discarded).To(Equal(1))
		Expect(driver.StoredRecords).To(HaveLen(1))
	})

	It("writes borderline candidates to a single pending batch file", func() {
		extractor.Responses = []string{`[{"type":"decision","content":"we chose postgres over sqlite because of concurrent writers"}]`}
		scorer.Responses = []string{"0.5"}

		newPipeline().Run(ctx, input(sessionText))

		files := pendingFiles()
		Expect(files).To(HaveLen(1))

		data, err := os.ReadFile(files[0])
		Expect(err).NotTo(HaveOccurred())
		var items []map[string]any
		Expect(json.Unmarshal(data, &items)).To(Succeed())
		Expect(items).To(HaveLen(1))
		Expect(items[0]["content"]).To(ContainSubstring("postgres over sqlite"))
		Expect(items[0]["reason"]).To(ContainSubstring("below auto-save"))
	})

	It("skips near-duplicates instead of storing them", func() {
		extractor.Responses = []string{`[{"type":"solution","content":"adding a null check in parseConfig before dereferencing the options pointer"}]`}
		scorer.Responses = []string{"0.9"}
		driver.Duplicate = true

		report := newPipeline().Run(ctx, input(sessionText))
		Expect(report.Duplicates).To(Equal(1))
		Expect(report.Saved).To(BeZero())
		Expect(driver.StoredRecords).To(BeEmpty())
	})

	It("links a saved record to nearby existing records", func() {
		extractor.Responses = []string{`[{"type":"solution","content":"adding a null check in parseConfig before dereferencing the options pointer"}]`}
		scorer.Responses = []string{"0.9"}
		driver.SearchResults = []memory.Result{
			{ID: "rel-1", Score: 0.9},
			{ID: "rel-2", Score: 0.2},
			{ID: "rel-3", Score: 0.8},
		}

		newPipeline().Run(ctx, input(sessionText))

		Expect(driver.Links).To(HaveLen(1))
		for _, related := range driver.Links {
			Expect(related).To(ConsistOf("rel-1", "rel-3"))
		}
	})

	It("processes queued candidates even when the session text is short", func() {
		Expect(q.Enqueue("sess-1", "acme/widgets", []extract.Candidate{{
			Category: extract.CategorySolution,
			Content:  "adding retry backoff to the flaky integration suite",
			Source:   extract.SourcePattern,
		}})).To(Succeed())
		scorer.Responses = []string{"0.9"}

		report := newPipeline().Run(ctx, input("short"))
		Expect(report.Drained).To(Equal(1))
		Expect(report.Saved).To(Equal(1))
		Expect(driver.StoredRecords).To(HaveLen(1))

		// Consumption is destructive.
		entries, err := q.Drain("sess-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("drops queued candidates the model already re-extracted", func() {
		content := "adding a null check in parseConfig before dereferencing the options pointer"
		Expect(q.Enqueue("sess-1", "acme/widgets", []extract.Candidate{{
			Category: extract.CategorySolution,
			Content:  content,
			Source:   extract.SourcePattern,
		}})).To(Succeed())
		extractor.Responses = []string{`[{"type":"solution","content":"` + content + `"}]`}
		scorer.Responses = []string{"0.9"}

		report := newPipeline().Run(ctx, input(sessionText))
		Expect(report.Extracted).To(Equal(1))
		Expect(report.Drained).To(BeZero())
		Expect(driver.StoredRecords).To(HaveLen(1))
	})

	It("is a no-op for short text with nothing queued", func() {
		report := newPipeline().Run(ctx, input("short"))
		Expect(report.Skipped).To(BeTrue())
		Expect(report.Saved).To(BeZero())
		Expect(extractor.Prompts).To(BeEmpty())
		Expect(scorer.Prompts).To(BeEmpty())
	})

	It("keeps processing after a storage failure", func() {
		extractor.Responses = []string{`[
			{"type":"solution","content":"adding a null check in parseConfig before dereferencing the options pointer"},
			{"type":"decision","content":"we chose postgres over sqlite because of concurrent writers"}
		]`}
		scorer.Responses = []string{"0.9", "0.9"}
		driver.FailStore = true

		report := newPipeline().Run(ctx, input(sessionText))
		Expect(report.Failures).To(Equal(2))
		Expect(report.Saved).To(BeZero())
		// Both candidates were still scored.
		Expect(scorer.Prompts).To(HaveLen(2))
	})

	It("uses the neutral confidence when scoring fails", func() {
		extractor.Responses = []string{`[{"type":"decision","content":"we chose postgres over sqlite because of concurrent writers"}]`}
		scorer.Fail = true

		report := newPipeline().Run(ctx, input(sessionText))
		Expect(report.Review).To(Equal(1))
		Expect(report.Saved).To(BeZero())
		Expect(report.Discarded).To(BeZero())
	})

	It("preserves the queue when the deadline fired", func() {
		Expect(q.Enqueue("sess-1", "acme/widgets", []extract.Candidate{{
			Category: extract.CategorySolution,
			Content:  "adding retry backoff to the flaky integration suite",
			Source:   extract.SourcePattern,
		}})).To(Succeed())
		scorer.Responses = []string{"0.9"}

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		newPipeline().Run(cancelled, input("short"))

		entries, err := q.Drain("sess-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})

	It("clears the queue regardless of scoring outcome", func() {
		Expect(q.Enqueue("sess-1", "acme/widgets", []extract.Candidate{
			{Category: extract.CategoryLearning, Content: "the registry cache must be cleared before every deploy", Source: extract.SourcePattern},
			{Category: extract.CategorySolution, Content: "adding retry backoff to the flaky integration suite", Source: extract.SourcePattern},
			{Category: extract.CategoryFailure, Content: "the deploy script always fails when the cache is stale", Source: extract.SourcePattern},
		})).To(Succeed())
		scorer.Responses = []string{"0.9", "0.5", "0.1"}

		report := newPipeline().Run(ctx, input("short"))
		Expect(report.Drained).To(Equal(3))
		Expect(report.Saved + report.Review + report.Discarded).To(Equal(3))

		entries, err := q.Drain("sess-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})
})
