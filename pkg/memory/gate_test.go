package memory_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/memory"
	"github.com/neehanthreddym/ragbot/pkg/memory/ledger"
	"github.com/neehanthreddym/ragbot/pkg/memory/ledger/inmemory"
	testutils "github.com/neehanthreddym/ragbot/pkg/utils/test"
)

var _ = Describe("Gate", func() {
	var (
		ctx       context.Context
		completer *testutils.MockCompleter
		user      *inmemory.Store
		company   *inmemory.Store
		gate      *memory.Gate
	)

	BeforeEach(func() {
		ctx = context.Background()
		completer = testutils.NewMockCompleter()
		user = inmemory.NewStore()
		company = inmemory.NewStore()
		gate = memory.NewGate(completer, user, company, zap.NewNop())
	})

	Describe("Process", func() {
		It("saves facts at confidence 0.70", func() {
			completer.Default = `{"should_save": true, "user_facts": ["user works in sales"], "company_facts": [], "confidence": 0.70}`

			outcome := gate.Process(ctx, "I work in sales", "Nice to meet you.")

			Expect(outcome.Updated()).To(BeTrue())
			Expect(outcome.Saved[ledger.ScopeUser]).To(Equal([]string{"user works in sales"}))

			entries, err := user.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})

		It("does not save at confidence 0.69", func() {
			completer.Default = `{"should_save": true, "user_facts": ["user works in sales"], "company_facts": [], "confidence": 0.69}`

			outcome := gate.Process(ctx, "I work in sales", "Nice to meet you.")

			Expect(outcome.Updated()).To(BeFalse())

			entries, err := user.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("does not save when should_save is false", func() {
			completer.Default = `{"should_save": false, "user_facts": ["something"], "company_facts": [], "confidence": 0.99}`

			outcome := gate.Process(ctx, "hello", "hi")

			Expect(outcome.Updated()).To(BeFalse())
		})

		It("routes facts to their own ledgers only", func() {
			completer.Default = `{"should_save": true, "user_facts": ["user leads the data team"], "company_facts": [], "confidence": 0.9}`

			outcome := gate.Process(ctx, "I lead the data team", "Got it.")

			Expect(outcome.Saved[ledger.ScopeUser]).To(HaveLen(1))
			Expect(outcome.Saved[ledger.ScopeCompany]).To(BeEmpty())

			companyEntries, err := company.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(companyEntries).To(BeEmpty())
		})

		It("stores a repeated fact only once", func() {
			completer.Default = `{"should_save": true, "user_facts": ["user works in sales"], "company_facts": [], "confidence": 0.9}`

			gate.Process(ctx, "I work in sales", "Noted.")
			gate.Process(ctx, "As I said, I work in sales", "Yes, you mentioned that.")

			entries, err := user.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})

		It("treats substring matches as duplicates in both directions, ignoring case", func() {
			_, err := user.Append(ctx, "User works in the Sales department")
			Expect(err).NotTo(HaveOccurred())

			completer.Default = `{"should_save": true, "user_facts": ["user works in the sales"], "company_facts": [], "confidence": 0.9}`

			outcome := gate.Process(ctx, "I work in sales", "Noted.")

			Expect(outcome.Updated()).To(BeFalse())

			entries, err := user.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})

		It("tolerates code fences around the JSON", func() {
			completer.Default = "```json\n{\"should_save\": true, \"user_facts\": [\"user prefers slack\"], \"company_facts\": [], \"confidence\": 0.8}\n```"

			outcome := gate.Process(ctx, "ping me on slack", "Will do.")

			Expect(outcome.Updated()).To(BeTrue())
		})

		It("is a silent no-op when the extraction call fails", func() {
			completer.Err = errors.New("model down")

			outcome := gate.Process(ctx, "I work in sales", "Noted.")

			Expect(outcome.Updated()).To(BeFalse())
			Expect(outcome.WriteErrors).To(BeEmpty())
		})

		It("is a silent no-op on unparseable output", func() {
			completer.Default = "I would save these facts: works in sales"

			outcome := gate.Process(ctx, "I work in sales", "Noted.")

			Expect(outcome.Updated()).To(BeFalse())
			Expect(outcome.WriteErrors).To(BeEmpty())
		})

		It("reports ledger write failures without dropping other facts", func() {
			failing := &failingStore{}
			gate = memory.NewGate(completer, failing, company, zap.NewNop())

			completer.Default = `{"should_save": true, "user_facts": ["user works in sales"], "company_facts": ["company uses jira"], "confidence": 0.9}`

			outcome := gate.Process(ctx, "I work in sales and we use jira", "Noted.")

			Expect(outcome.WriteErrors).NotTo(BeEmpty())
			Expect(outcome.Saved[ledger.ScopeCompany]).To(Equal([]string{"company uses jira"}))
		})

		It("honors a custom threshold", func() {
			gate = memory.NewGate(completer, user, company, zap.NewNop(), memory.WithThreshold(0.5))
			completer.Default = `{"should_save": true, "user_facts": ["user works in sales"], "company_facts": [], "confidence": 0.6}`

			outcome := gate.Process(ctx, "I work in sales", "Noted.")

			Expect(outcome.Updated()).To(BeTrue())
		})
	})
})

var _ = Describe("ParseDecision", func() {
	It("decodes a plain JSON decision", func() {
		d, err := memory.ParseDecision(`{"should_save": true, "user_facts": ["a"], "company_facts": ["b"], "confidence": 0.75}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.ShouldSave).To(BeTrue())
		Expect(d.UserFacts).To(Equal([]string{"a"}))
		Expect(d.CompanyFacts).To(Equal([]string{"b"}))
		Expect(d.Confidence).To(BeNumerically("==", 0.75))
	})

	It("fails on non-JSON output", func() {
		_, err := memory.ParseDecision("definitely not json")
		Expect(err).To(MatchError(memory.ErrDecision))
	})
})

// failingStore fails every append and read.
type failingStore struct{}

func (f *failingStore) Read(_ context.Context) ([]ledger.Entry, error) {
	return nil, errors.New("read failed")
}

func (f *failingStore) Append(_ context.Context, _ string) (ledger.Entry, error) {
	return ledger.Entry{}, errors.New("append failed")
}

func (f *failingStore) Close() error {
	return nil
}
