package extract_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mnemohq/mnemo/pkg/extract"
)

var _ = Describe("Patterns", func() {
	It("extracts a solution from a fixed-by statement", func() {
		out := extract.Patterns("I fixed this by adding a null check in parseConfig.")

		Expect(out).To(HaveLen(1))
		Expect(out[0].Category).To(Equal(extract.CategorySolution))
		Expect(out[0].Content).To(Equal("adding a null check in parseConfig"))
		Expect(out[0].Source).To(Equal(extract.SourcePattern))
	})

	It("extracts a decision", func() {
		out := extract.Patterns("After some discussion we decided to use sqlite for the local cache layer.")

		Expect(out).To(HaveLen(1))
		Expect(out[0].Category).To(Equal(extract.CategoryDecision))
		Expect(out[0].Content).To(ContainSubstring("use sqlite for the local cache layer"))
	})

	It("extracts a failure cause", func() {
		out := extract.Patterns("The deploy failed because the migration ran before the schema lock was released.")

		Expect(out).To(HaveLen(1))
		Expect(out[0].Category).To(Equal(extract.CategoryFailure))
	})

	It("joins multiple captured groups", func() {
		out := extract.Patterns("We chose viper for configuration because it layers flags over env vars cleanly.")

		Expect(out).To(HaveLen(1))
		Expect(out[0].Category).To(Equal(extract.CategoryDecision))
		Expect(out[0].Content).To(ContainSubstring("viper for configuration"))
		Expect(out[0].Content).To(ContainSubstring("it layers flags over env vars cleanly"))
	})

	It("drops matches shorter than the minimum content length", func() {
		out := extract.Patterns("I fixed this by luck.")
		Expect(out).To(BeEmpty())
	})

	It("drops runaway matches longer than the maximum content length", func() {
		out := extract.Patterns("I fixed this by " + strings.Repeat("padding the buffer ", 40) + "somehow")
		Expect(out).To(BeEmpty())
	})

	It("deduplicates identical content within one call", func() {
		text := "I fixed this by adding a null check in parseConfig. Again: I fixed this by adding a null check in parseConfig."
		out := extract.Patterns(text)
		Expect(out).To(HaveLen(1))
	})

	It("caps output at five candidates in scan order", func() {
		var sb strings.Builder
		for i := 0; i < 8; i++ {
			sb.WriteString("We decided to use approach number ")
			sb.WriteString(strings.Repeat("x", i+1))
			sb.WriteString(" for the storage layer.\n")
		}

		out := extract.Patterns(sb.String())
		Expect(out).To(HaveLen(5))
		Expect(out[0].Content).To(ContainSubstring("number x "))
	})

	It("orders candidates by position in the text", func() {
		text := "The bug was caused by a stale cache entry in the resolver. " +
			"Later we decided to use a write-through cache for all lookups."

		out := extract.Patterns(text)
		Expect(len(out)).To(BeNumerically(">=", 2))
		Expect(out[0].Category).To(Equal(extract.CategoryFailure))
		Expect(out[1].Category).To(Equal(extract.CategoryDecision))
	})

	It("returns nil for empty input", func() {
		Expect(extract.Patterns("")).To(BeNil())
	})
})
