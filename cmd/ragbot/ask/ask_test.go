package askcmder_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	askcmder "github.com/neehanthreddym/ragbot/cmd/ragbot/ask"
)

var _ = Describe("NewAskCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := askcmder.NewAskCmd()
		Expect(cmd.Use).To(Equal("ask <question>"))
	})

	It("has --api-target flag with default value", func() {
		cmd := askcmder.NewAskCmd()
		flag := cmd.Flags().Lookup("api-target")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("a"))
		Expect(flag.DefValue).To(Equal("http://localhost:8081"))
	})

	It("requires exactly one argument", func() {
		cmd := askcmder.NewAskCmd()
		Expect(cmd.Args(cmd, []string{})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"q1", "q2"})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"one question"})).NotTo(HaveOccurred())
	})
})

var _ = Describe("RunTurn", func() {
	It("posts the query and decodes the turn response", func() {
		var gotPath, gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			var body map[string]string
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			gotQuery = body["query"]

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"answer": "Refunds are processed within 14 days [policy.md, 2].",
				"citations": [{"source": "policy.md", "locator": "2", "snippet": "within 14 days"}],
				"route": "qa",
				"memory_updated": true
			}`))
		}))
		defer server.Close()

		result, err := askcmder.RunTurn(context.Background(), server.URL, "What is the refund policy?")
		Expect(err).NotTo(HaveOccurred())

		Expect(gotPath).To(Equal("/turn"))
		Expect(gotQuery).To(Equal("What is the refund policy?"))

		Expect(result.Answer).To(ContainSubstring("14 days"))
		Expect(result.Citations).To(HaveLen(1))
		Expect(result.Citations[0].Source).To(Equal("policy.md"))
		Expect(result.Citations[0].Locator).To(Equal("2"))
		Expect(result.Route).To(Equal("qa"))
		Expect(result.MemoryUpdated).To(BeTrue())
	})

	It("tolerates a trailing slash in the API target", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/turn"))
			_, _ = w.Write([]byte(`{"answer": "ok", "route": "chitchat"}`))
		}))
		defer server.Close()

		_, err := askcmder.RunTurn(context.Background(), server.URL+"/", "hi")
		Expect(err).NotTo(HaveOccurred())
	})

	It("surfaces server errors with the status and body", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "query is required", http.StatusBadRequest)
		}))
		defer server.Close()

		_, err := askcmder.RunTurn(context.Background(), server.URL, "")
		Expect(err).To(MatchError(ContainSubstring("server returned 400")))
		Expect(err).To(MatchError(ContainSubstring("query is required")))
	})

	It("fails when the server is unreachable", func() {
		_, err := askcmder.RunTurn(context.Background(), "http://127.0.0.1:1", "hi")
		Expect(err).To(MatchError(ContainSubstring("sending request")))
	})
})
