package score_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mnemohq/mnemo/pkg/extract"
	"github.com/mnemohq/mnemo/pkg/llm"
	"github.com/mnemohq/mnemo/pkg/score"
)

func fixedResponse(resp string) llm.CallFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		return resp, nil
	}
}

var candidate = extract.Candidate{
	Category: extract.CategorySolution,
	Content:  "adding a null check in parseConfig before dereferencing",
	Source:   extract.SourcePattern,
}

var _ = Describe("Scorer", func() {
	It("parses a bare numeric response", func() {
		s := score.NewScorer(fixedResponse("0.82"), nil)
		out := s.Score(context.Background(), candidate)
		Expect(out.Confidence).To(Equal(0.82))
	})

	It("parses a number embedded in prose", func() {
		s := score.NewScorer(fixedResponse("I would rate this 0.7 out of 1."), nil)
		out := s.Score(context.Background(), candidate)
		Expect(out.Confidence).To(Equal(0.7))
	})

	It("clamps out-of-range scores", func() {
		s := score.NewScorer(fixedResponse("42"), nil)
		Expect(s.Score(context.Background(), candidate).Confidence).To(Equal(1.0))

		s = score.NewScorer(fixedResponse("-3"), nil)
		Expect(s.Score(context.Background(), candidate).Confidence).To(Equal(0.0))
	})

	It("returns neutral on call failure", func() {
		s := score.NewScorer(func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("timeout")
		}, nil)
		Expect(s.Score(context.Background(), candidate).Confidence).To(Equal(score.Neutral))
	})

	It("returns neutral for garbage responses", func() {
		s := score.NewScorer(fixedResponse("no idea, sorry"), nil)
		Expect(s.Score(context.Background(), candidate).Confidence).To(Equal(score.Neutral))
	})

	It("includes the candidate content and category in the prompt", func() {
		var gotPrompt string
		s := score.NewScorer(func(ctx context.Context, prompt string) (string, error) {
			gotPrompt = prompt
			return "0.5", nil
		}, nil)

		s.Score(context.Background(), candidate)
		Expect(gotPrompt).To(ContainSubstring("parseConfig"))
		Expect(gotPrompt).To(ContainSubstring("solution"))
	})

	It("truncates very long content in the prompt", func() {
		long := extract.Candidate{
			Category: extract.CategoryLearning,
			Content:  strings.Repeat("verbose explanation ", 30),
			Source:   extract.SourceModel,
		}

		var gotPrompt string
		s := score.NewScorer(func(ctx context.Context, prompt string) (string, error) {
			gotPrompt = prompt
			return "0.5", nil
		}, nil)

		s.Score(context.Background(), long)
		Expect(len(gotPrompt)).To(BeNumerically("<", 600))
	})
})

var _ = Describe("ParseConfidence", func() {
	It("finds the first number", func() {
		v, ok := score.ParseConfidence("score: 0.3, maybe 0.9")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(0.3))
	})

	It("reports failure when no number exists", func() {
		_, ok := score.ParseConfidence("none")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Derive", func() {
	It("buckets importance on a 1-10 scale", func() {
		Expect(score.Derive(candidate, 0.65).Importance).To(Equal(7))
		Expect(score.Derive(candidate, 0.0).Importance).To(Equal(1))
		Expect(score.Derive(candidate, 1.0).Importance).To(Equal(10))
	})

	It("tags with the category and extracts keywords", func() {
		out := score.Derive(candidate, 0.8)
		Expect(out.Tags).To(ConsistOf("solution"))
		Expect(out.Keywords).To(ContainElement("parseconfig"))
		Expect(out.Keywords).NotTo(ContainElement("a"))
	})

	It("truncates the title", func() {
		long := extract.Candidate{Category: extract.CategoryLearning, Content: strings.Repeat("x", 200)}
		out := score.Derive(long, 0.5)
		Expect(len(out.Title)).To(BeNumerically("<=", 63))
	})

	It("clamps confidence", func() {
		Expect(score.Derive(candidate, 7).Confidence).To(Equal(1.0))
	})
})
