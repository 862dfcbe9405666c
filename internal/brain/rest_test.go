package brain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testProvider(t *testing.T, handler http.HandlerFunc) *RESTProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRESTProvider(srv.URL, "test-key")
}

func TestAsk_Success(t *testing.T) {
	var gotReq chatReq
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)

		page := 2
		score := 0.87
		conf := 0.9
		_ = json.NewEncoder(w).Encode(chatResp{
			Answer: "Section 128 limits speed...",
			Citations: []Citation{
				{Filename: "Highway Traffic Act.pdf", Page: &page, Score: &score},
			},
			ChunksUsed: 4,
			Confidence: &conf,
		})
	})

	ans, err := p.Ask(context.Background(), Question{
		Message:  "What is the speed limit?",
		Language: "en",
		Country:  "CA",
		Province: "ON",
		TopK:     5,
	})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if ans.Text != "Section 128 limits speed..." {
		t.Fatalf("answer = %q", ans.Text)
	}
	if len(ans.Citations) != 1 || ans.Citations[0].Filename != "Highway Traffic Act.pdf" {
		t.Fatalf("citations = %+v", ans.Citations)
	}
	if ans.ChunksUsed != 4 {
		t.Fatalf("chunks_used = %d", ans.ChunksUsed)
	}
	if ans.Confidence == nil || *ans.Confidence != 0.9 {
		t.Fatalf("confidence = %v", ans.Confidence)
	}

	if gotReq.Message != "What is the speed limit?" || gotReq.Province != "ON" || gotReq.TopK != 5 {
		t.Fatalf("request body = %+v", gotReq)
	}
}

func TestAsk_ErrorBody(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResp{Error: "index not ready"})
	})

	_, err := p.Ask(context.Background(), Question{Message: "hi"})
	if err == nil || err.Error() != "index not ready" {
		t.Fatalf("err = %v", err)
	}
}

func TestAsk_FastAPIDetail(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(chatResp{Detail: "field required"})
	})

	_, err := p.Ask(context.Background(), Question{Message: "hi"})
	if err == nil || err.Error() != "field required" {
		t.Fatalf("err = %v", err)
	}
}

func TestAsk_EmptyAnswerRejected(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResp{Answer: "   "})
	})

	if _, err := p.Ask(context.Background(), Question{Message: "hi"}); err == nil {
		t.Fatalf("expected error for blank answer")
	}
}

func TestAsk_Non2xxWithoutJSON(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	if _, err := p.Ask(context.Background(), Question{Message: "hi"}); err == nil {
		t.Fatalf("expected error for 502")
	}
}

func TestIngestDocument_Success(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("user_id"); got != "42" {
			t.Errorf("user_id = %q", got)
		}
		if got := r.FormValue("offence_number"); got != "HTA-128" {
			t.Errorf("offence_number = %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "act.pdf" {
			t.Errorf("filename = %q", hdr.Filename)
		}

		_ = json.NewEncoder(w).Encode(uploadResp{
			DocID:                 "doc-1",
			ChunksIndexed:         12,
			DetectedOffenceNumber: "HTA-128",
		})
	})

	res, err := p.IngestDocument(context.Background(), IngestRequest{
		Filename:      "act.pdf",
		Content:       []byte("%PDF-1.4"),
		UserID:        "42",
		OffenceNumber: "HTA-128",
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.DocID != "doc-1" || res.ChunksIndexed != 12 || res.DetectedOffenceNumber != "HTA-128" {
		t.Fatalf("result = %+v", res)
	}
}

func TestIngestDocument_MissingDocID(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(uploadResp{ChunksIndexed: 3})
	})

	_, err := p.IngestDocument(context.Background(), IngestRequest{
		Filename: "act.pdf",
		Content:  []byte("x"),
		UserID:   "1",
	})
	if err == nil {
		t.Fatalf("expected error for missing doc_id")
	}
}
