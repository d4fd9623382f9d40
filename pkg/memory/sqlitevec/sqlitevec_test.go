package sqlitevec_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mnemohq/mnemo/pkg/memory"
	"github.com/mnemohq/mnemo/pkg/memory/sqlitevec"
	testutils "github.com/mnemohq/mnemo/pkg/utils/test"
)

var _ = Describe("Driver", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
	)

	newDriver := func() *sqlitevec.Driver {
		d, err := sqlitevec.New(sqlitevec.Config{
			DBPath:     ":memory:",
			Dimensions: 8,
		}, embedder, nil)
		Expect(err).NotTo(HaveOccurred())
		return d
	}

	record := memory.Record{
		Title:      "null check in parseConfig",
		Content:    "adding a null check in parseConfig before dereferencing the options pointer",
		Tags:       []string{"solution"},
		Keywords:   []string{"parseconfig", "null"},
		Importance: 7,
	}

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder(8)
	})

	Describe("New", func() {
		It("should return an error when DBPath is empty", func() {
			_, err := sqlitevec.New(sqlitevec.Config{Dimensions: 8}, embedder, nil)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("should error when dimensions are not specified", func() {
			_, err := sqlitevec.New(sqlitevec.Config{DBPath: ":memory:"}, embedder, nil)
			Expect(err).To(HaveOccurred())
		})

		It("should error when the embedder is missing", func() {
			_, err := sqlitevec.New(sqlitevec.Config{DBPath: ":memory:", Dimensions: 8}, nil, nil)
			Expect(err).To(HaveOccurred())
		})

		It("should create a driver with an in-memory database", func() {
			d := newDriver()
			Expect(d.Close()).To(Succeed())
		})
	})

	Describe("EnsureProject", func() {
		It("creates a project on first use and returns the same id after", func() {
			d := newDriver()
			defer d.Close()

			id1, err := d.EnsureProject(ctx, "acme/widgets", "widgets")
			Expect(err).NotTo(HaveOccurred())
			Expect(id1).NotTo(BeEmpty())

			id2, err := d.EnsureProject(ctx, "acme/widgets", "widgets")
			Expect(err).NotTo(HaveOccurred())
			Expect(id2).To(Equal(id1))
		})

		It("gives distinct ids to distinct projects", func() {
			d := newDriver()
			defer d.Close()

			id1, err := d.EnsureProject(ctx, "acme/widgets", "")
			Expect(err).NotTo(HaveOccurred())
			id2, err := d.EnsureProject(ctx, "acme/gadgets", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(id1).NotTo(Equal(id2))
		})
	})

	Describe("Store and Search", func() {
		It("finds a stored record by its own content", func() {
			d := newDriver()
			defer d.Close()

			id, err := d.Store(ctx, record)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).NotTo(BeEmpty())

			results, err := d.Search(ctx, record.Content, 5, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).NotTo(BeEmpty())
			Expect(results[0].ID).To(Equal(id))
			Expect(results[0].Title).To(Equal(record.Title))
			Expect(results[0].Tags).To(ConsistOf("solution"))
			// Identical content embeds to distance zero.
			Expect(results[0].Score).To(BeNumerically("~", 1.0, 1e-6))
		})

		It("scopes search to a project", func() {
			d := newDriver()
			defer d.Close()

			pid, err := d.EnsureProject(ctx, "acme/widgets", "")
			Expect(err).NotTo(HaveOccurred())

			scoped := record
			scoped.ProjectIDs = []string{pid}
			scopedID, err := d.Store(ctx, scoped)
			Expect(err).NotTo(HaveOccurred())

			other := record
			other.Title = "unscoped"
			other.Content = "a completely different note about release tagging ceremonies"
			_, err = d.Store(ctx, other)
			Expect(err).NotTo(HaveOccurred())

			results, err := d.Search(ctx, record.Content, 5, pid)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal(scopedID))
		})

		It("respects the result limit", func() {
			d := newDriver()
			defer d.Close()

			for _, content := range []string{
				"first distinct stored memory about database migrations",
				"second distinct stored memory about connection pooling",
				"third distinct stored memory about retry backoff policies",
			} {
				rec := record
				rec.Title = content[:20]
				rec.Content = content
				_, err := d.Store(ctx, rec)
				Expect(err).NotTo(HaveOccurred())
			}

			results, err := d.Search(ctx, "stored memory", 2, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("returns empty results on an empty store", func() {
			d := newDriver()
			defer d.Close()

			results, err := d.Search(ctx, "anything at all", 5, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})
	})

	Describe("CheckDuplicate", func() {
		It("reports a duplicate for identical content", func() {
			d := newDriver()
			defer d.Close()

			_, err := d.Store(ctx, record)
			Expect(err).NotTo(HaveOccurred())

			dup, err := d.CheckDuplicate(ctx, record.Content, 0.85, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(dup).To(BeTrue())
		})

		It("reports no duplicate on an empty store", func() {
			d := newDriver()
			defer d.Close()

			dup, err := d.CheckDuplicate(ctx, record.Content, 0.85, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(dup).To(BeFalse())
		})
	})

	Describe("Link", func() {
		It("links records and ignores duplicates and self-links", func() {
			d := newDriver()
			defer d.Close()

			id1, err := d.Store(ctx, record)
			Expect(err).NotTo(HaveOccurred())

			rec2 := record
			rec2.Title = "related"
			rec2.Content = "a related note about guarding config parsing against nil inputs"
			id2, err := d.Store(ctx, rec2)
			Expect(err).NotTo(HaveOccurred())

			Expect(d.Link(ctx, id1, []string{id2, id2, id1})).To(Succeed())
			Expect(d.Link(ctx, id1, nil)).To(Succeed())
		})
	})

	Describe("Interface compliance", func() {
		It("implements memory.Driver", func() {
			var _ memory.Driver = (*sqlitevec.Driver)(nil)
		})
	})
})
