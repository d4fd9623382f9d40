package project_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mnemohq/mnemo/pkg/project"
)

var _ = Describe("ParseRemoteURL", func() {
	It("parses SSH remotes", func() {
		Expect(project.ParseRemoteURL("git@github.com:acme/widgets.git")).To(Equal("acme/widgets"))
	})

	It("parses HTTPS remotes", func() {
		Expect(project.ParseRemoteURL("https://github.com/acme/widgets.git")).To(Equal("acme/widgets"))
	})

	It("parses HTTPS remotes without .git suffix", func() {
		Expect(project.ParseRemoteURL("https://github.com/acme/widgets")).To(Equal("acme/widgets"))
	})

	It("parses ssh:// remotes", func() {
		Expect(project.ParseRemoteURL("ssh://git@github.com/acme/widgets.git")).To(Equal("acme/widgets"))
	})

	It("takes the last two path segments for nested groups", func() {
		Expect(project.ParseRemoteURL("https://gitlab.com/org/team/widgets.git")).To(Equal("team/widgets"))
	})

	It("returns empty for a bare host", func() {
		Expect(project.ParseRemoteURL("https://github.com")).To(BeEmpty())
	})

	It("returns empty for empty input", func() {
		Expect(project.ParseRemoteURL("")).To(BeEmpty())
		Expect(project.ParseRemoteURL("   ")).To(BeEmpty())
	})
})

var _ = Describe("Slugify", func() {
	It("lowercases and hyphenates", func() {
		Expect(project.Slugify("acme/widgets")).To(Equal("acme-widgets"))
		Expect(project.Slugify("My Cool_Repo")).To(Equal("my-cool-repo"))
	})

	It("collapses runs of separators", func() {
		Expect(project.Slugify("a//b..c")).To(Equal("a-b-c"))
	})

	It("trims leading and trailing hyphens", func() {
		Expect(project.Slugify("/acme/")).To(Equal("acme"))
	})
})

var _ = Describe("Detect", func() {
	It("always returns a non-empty project", func() {
		p := project.Detect()
		Expect(p.Name).NotTo(BeEmpty())
		Expect(p.Slug).NotTo(BeEmpty())
	})
})
