package eventstream_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/neehanthreddym/ragbot/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("builds a v1 event with a fresh ID and timestamp", func() {
		event := eventstream.NewTurnCompletedEvent(
			eventstream.EventSource{Service: "ragbot", Provider: "ollama"},
			eventstream.TurnMeta{Route: "document_search", Citations: 2, MemoryUpdated: true},
		)

		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal(eventstream.EventTypeTurnCompleted))
		Expect(event.EventID).NotTo(BeEmpty())
		Expect(event.EmittedAt).NotTo(BeZero())
	})

	It("marshals with expected top-level keys", func() {
		event := eventstream.NewTurnCompletedEvent(
			eventstream.EventSource{Service: "ragbot", Provider: "ollama", Model: "llama3.2"},
			eventstream.TurnMeta{Route: "general", DurationMs: 1200},
		)

		data, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]any
		Expect(json.Unmarshal(data, &decoded)).To(Succeed())
		Expect(decoded).To(HaveKey("schema_version"))
		Expect(decoded).To(HaveKey("event_type"))
		Expect(decoded).To(HaveKey("event_id"))
		Expect(decoded).To(HaveKey("emitted_at"))
		Expect(decoded).To(HaveKey("source"))
		Expect(decoded).To(HaveKey("turn"))

		turn := decoded["turn"].(map[string]any)
		Expect(turn["route"]).To(Equal("general"))
		Expect(turn["duration_ms"]).To(BeNumerically("==", 1200))
	})
})
