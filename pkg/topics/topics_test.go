package topics_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mnemohq/mnemo/pkg/topics"
)

var _ = Describe("Parse", func() {
	raw := `title:: Auth middleware decisions
tags:: auth, middleware
type:: architecture
source-repo:: acme/widgets
importance:: 7
created:: 2026-08-01
updated:: 2026-08-30

The auth middleware validates tokens before any handler runs.
Session refresh happens out of band.`

	It("parses frontmatter and body", func() {
		t := topics.Parse(raw)
		Expect(t.Title).To(Equal("Auth middleware decisions"))
		Expect(t.Tags).To(Equal([]string{"auth", "middleware"}))
		Expect(t.Type).To(Equal("architecture"))
		Expect(t.SourceRepo).To(Equal("acme/widgets"))
		Expect(t.Importance).To(Equal(7))
		Expect(t.Created).To(Equal("2026-08-01"))
		Expect(t.Updated).To(Equal("2026-08-30"))
		Expect(t.Body).To(HavePrefix("The auth middleware validates"))
	})

	It("treats content without frontmatter as all body", func() {
		t := topics.Parse("just some notes\nwith no keys")
		Expect(t.Title).To(BeEmpty())
		Expect(t.Body).To(Equal("just some notes\nwith no keys"))
	})

	It("ignores unknown keys", func() {
		t := topics.Parse("title:: x\ncolor:: blue\n\nbody text")
		Expect(t.Title).To(Equal("x"))
		Expect(t.Body).To(Equal("body text"))
	})

	It("round-trips through Render", func() {
		t := topics.Parse(raw)
		again := topics.Parse(t.Render())
		again.Filename = t.Filename
		Expect(again).To(Equal(t))
	})
})

var _ = Describe("EnsurePrefix", func() {
	It("prepends the slug when missing", func() {
		Expect(topics.EnsurePrefix("auth-notes.md", "acme-widgets")).To(Equal("acme-widgets-auth-notes.md"))
	})

	It("leaves an existing prefix alone", func() {
		Expect(topics.EnsurePrefix("acme-widgets-auth-notes.md", "acme-widgets")).To(Equal("acme-widgets-auth-notes.md"))
	})

	It("normalizes the extension", func() {
		Expect(topics.EnsurePrefix("auth-notes", "acme-widgets")).To(Equal("acme-widgets-auth-notes.md"))
	})
})

var _ = Describe("Store", func() {
	var (
		tmpDir string
		store  *topics.Store
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "topics-test-*")
		Expect(err).NotTo(HaveOccurred())
		store = topics.NewStore(tmpDir)
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("writes and reads a topic back", func() {
		t := topics.Topic{
			Filename: "acme-widgets-auth.md",
			Title:    "Auth notes",
			Tags:     []string{"auth"},
			Created:  "2026-08-01",
			Body:     "token validation happens in middleware",
		}
		Expect(store.Write(t)).To(Succeed())

		got, err := store.Read("acme-widgets-auth.md")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Title).To(Equal("Auth notes"))
		Expect(got.Body).To(Equal("token validation happens in middleware"))
	})

	It("lists only topics with the project prefix, newest first", func() {
		Expect(store.Write(topics.Topic{Filename: "acme-widgets-old.md", Title: "old", Updated: "2026-01-01", Body: "b"})).To(Succeed())
		Expect(store.Write(topics.Topic{Filename: "acme-widgets-new.md", Title: "new", Updated: "2026-08-01", Body: "b"})).To(Succeed())
		Expect(store.Write(topics.Topic{Filename: "other-project-x.md", Title: "x", Updated: "2026-09-01", Body: "b"})).To(Succeed())

		ts, err := store.List("acme-widgets")
		Expect(err).NotTo(HaveOccurred())
		Expect(ts).To(HaveLen(2))
		Expect(ts[0].Title).To(Equal("new"))
		Expect(ts[1].Title).To(Equal("old"))
	})

	It("lists nothing for a missing directory", func() {
		empty := topics.NewStore(tmpDir + "/nope")
		ts, err := empty.List("")
		Expect(err).NotTo(HaveOccurred())
		Expect(ts).To(BeEmpty())
	})

	It("Exists reflects the filesystem", func() {
		Expect(store.Exists("acme-widgets-auth.md")).To(BeFalse())
		Expect(store.Write(topics.Topic{Filename: "acme-widgets-auth.md", Body: "b"})).To(Succeed())
		Expect(store.Exists("acme-widgets-auth.md")).To(BeTrue())
	})

	It("replaces content wholesale on rewrite", func() {
		Expect(store.Write(topics.Topic{Filename: "acme-widgets-auth.md", Title: "v1", Body: "first"})).To(Succeed())
		Expect(store.Write(topics.Topic{Filename: "acme-widgets-auth.md", Title: "v2", Body: "second"})).To(Succeed())

		got, err := store.Read("acme-widgets-auth.md")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Title).To(Equal("v2"))
		Expect(got.Body).To(Equal("second"))
	})

	It("rejects a topic without a filename", func() {
		Expect(store.Write(topics.Topic{Body: "b"})).NotTo(Succeed())
	})
})
