package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"RatePull/internal/sink"
)

func skandiaRateList(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`[
		{"id": "3;4,41", "text": "Ordinarie ränta (3 mån): 4,41%"},
		{"id": "12;4,05", "text": "Ordinarie ränta (1 år): 4,05%"}
	]`))
}

func skandiaDiscountBody(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{
		"AmortizePercentage": 2, "AmortizeAmount": 166,
		"Discount": 0.25, "Interest": 4.16, "BaseDicount": 0.1,
		"EffectiveInterestRate": 4.24, "YearlyDiscount": 250,
		"MonthlyDiscount": 20, "MonthlyInterestCost": 346,
		"MonthlyInterestTaxDeduction": 104,
		"AdditonalDiscounts": {"Volume": 0.15}
	}`))
}

func TestSkandiaRunPerPeriod(t *testing.T) {
	var posted []skandiaDiscountRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/interests/mortgage", func(w http.ResponseWriter, r *http.Request) {
		skandiaRateList(w)
	})
	mux.HandleFunc("/discounts", func(w http.ResponseWriter, r *http.Request) {
		var req skandiaDiscountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		posted = append(posted, req)
		skandiaDiscountBody(w)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	log := testLogger(t)
	ms := &memorySink{}
	tr := NewTransport("skandia", log, NopMetrics{})
	s := NewSkandia(srv.URL, srv.URL+"/discounts", tinyGrid(), []sink.Sink{ms}, tr, log, NopMetrics{})

	stats, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if stats.Requests != 2 || len(posted) != 2 {
		t.Fatalf("expected one post per period, got %+v", stats)
	}
	if posted[0].BindingPeriod != 3 || posted[1].BindingPeriod != 12 {
		t.Fatalf("binding periods %d, %d", posted[0].BindingPeriod, posted[1].BindingPeriod)
	}
	if posted[0].HousingInterest != 4.41 {
		t.Fatalf("comma decimal not parsed: %v", posted[0].HousingInterest)
	}
	if posted[0].LoanVolume != 100000 || posted[0].Price != 200000 {
		t.Fatalf("segment not mapped into payload: %+v", posted[0])
	}

	if len(ms.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(ms.records))
	}
	if ms.records[0].Period != "3" || ms.records[1].Period != "12" {
		t.Fatalf("periods %q, %q", ms.records[0].Period, ms.records[1].Period)
	}
	if ms.records[0].Extra["Discount"] != 0.25 || ms.records[0].Extra["housingInterest"] != 4.41 {
		t.Fatalf("response fields lost: %+v", ms.records[0].Extra)
	}
	if !ms.closed {
		t.Fatal("sink not closed")
	}
}

func TestSkandiaBlockAbortsRun(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/interests/mortgage", func(w http.ResponseWriter, r *http.Request) {
		skandiaRateList(w)
	})
	mux.HandleFunc("/discounts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("<html>" + skandiaBlockPhrase + "</html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	log := testLogger(t)
	ms := &memorySink{}
	tr := NewTransport("skandia", log, NopMetrics{})
	s := NewSkandia(srv.URL, srv.URL+"/discounts", tinyGrid(), []sink.Sink{ms}, tr, log, NopMetrics{})

	stats, err := s.Run(context.Background())
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
	if stats.Requests != 1 {
		t.Fatalf("run should abort on first blocked post, got %d requests", stats.Requests)
	}
	if len(ms.records) != 0 {
		t.Fatalf("no records expected, got %d", len(ms.records))
	}
}

func TestSkandiaRetriesFailedPostsOnce(t *testing.T) {
	var attempts atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/interests/mortgage", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": "3;4,41", "text": "Ordinarie ränta"}]`))
	})
	mux.HandleFunc("/discounts", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		skandiaDiscountBody(w)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	log := testLogger(t)
	ms := &memorySink{}
	tr := NewTransport("skandia", log, NopMetrics{})
	s := NewSkandia(srv.URL, srv.URL+"/discounts", tinyGrid(), []sink.Sink{ms}, tr, log, NopMetrics{})

	stats, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Retries != 1 || stats.Errors != 1 {
		t.Fatalf("expected one retried failure, got %+v", stats)
	}
	if len(ms.records) != 1 {
		t.Fatalf("retry pass should recover the record, got %d", len(ms.records))
	}
}

func TestSkandiaSkipsUnparseableRateEntries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/interests/mortgage", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": "rabatt", "text": "Kampanj"},
			{"id": "3;4,41", "text": "Ordinarie ränta"}
		]`))
	})
	mux.HandleFunc("/discounts", func(w http.ResponseWriter, r *http.Request) {
		skandiaDiscountBody(w)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	log := testLogger(t)
	ms := &memorySink{}
	tr := NewTransport("skandia", log, NopMetrics{})
	s := NewSkandia(srv.URL, srv.URL+"/discounts", tinyGrid(), []sink.Sink{ms}, tr, log, NopMetrics{})

	stats, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Segments != 1 || len(ms.records) != 1 {
		t.Fatalf("only the parseable period should expand, got %+v", stats)
	}
}
