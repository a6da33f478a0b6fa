package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "invoice_id,customer,amount,paid_at,status\n" +
	"Invoice100,Acme Co,1200,1 Jan 2024,Paid\n" +
	"Invoice101,Beta LLC,75.25,2/3/2024,Partially Paid\n" +
	"Invoice102,Acme Co,100,4 Feb 2024,Paid\n"

func newTestService(t *testing.T, csvContent string) *Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoices.csv")
	if csvContent != "" {
		require.NoError(t, os.WriteFile(path, []byte(csvContent), 0o644))
	}
	return NewService(path, &LLMClient{http: resty.New()})
}

func TestAnalyzeFreeRevenueTemplate(t *testing.T) {
	svc := newTestService(t, sampleCSV)

	res, err := svc.AnalyzeFree("what is the total revenue?", "")
	require.NoError(t, err)
	require.Equal(t, 3, res.InvoicesAnalyzed)
	require.Contains(t, res.Analysis, "Total Revenue Analysis")
	require.Contains(t, res.Analysis, "$1,375.25")
	require.Contains(t, res.Analysis, "Paid invoices: 2")
	require.Contains(t, res.Analysis, "Partially paid: 1")
}

func TestAnalyzeFreeCustomerRanking(t *testing.T) {
	svc := newTestService(t, sampleCSV)

	res, err := svc.AnalyzeFree("who are the top customers?", "")
	require.NoError(t, err)
	require.Contains(t, res.Analysis, "Customer Analysis")
	require.Contains(t, res.Analysis, "Total customers: 2")
	require.Contains(t, res.Analysis, "Acme Co: $1,300.00")
}

func TestAnalyzeFreeIsIdempotent(t *testing.T) {
	svc := newTestService(t, sampleCSV)

	first, err := svc.AnalyzeFree("invoice count", "")
	require.NoError(t, err)
	second, err := svc.AnalyzeFree("invoice count", "")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, svc.CacheSize())
	require.Equal(t, "free_", first.QueryHash[:5])
}

func TestAnalyzeFreeInlineCSV(t *testing.T) {
	svc := newTestService(t, "")

	res, err := svc.AnalyzeFree("payment status?", sampleCSV)
	require.NoError(t, err)
	require.Contains(t, res.Analysis, "Payment Status Analysis")
	require.Contains(t, res.Analysis, "Payment rate: 100.0%")
}

func TestAnalyzeFreeMissingData(t *testing.T) {
	svc := newTestService(t, "")

	_, err := svc.AnalyzeFree("anything", "")
	require.ErrorIs(t, err, ErrNoData)
}

func TestAnalyzeFreeRejectsHeaderlessCSV(t *testing.T) {
	svc := newTestService(t, "")

	_, err := svc.AnalyzeFree("anything", "just one line")
	require.ErrorIs(t, err, ErrBadCSV)
}

func TestInvoicesMissingFileIsEmpty(t *testing.T) {
	svc := newTestService(t, "")

	invoices, err := svc.Invoices()
	require.NoError(t, err)
	require.Empty(t, invoices)
}

func TestAnalyzeUsesLLMAndCaches(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"text":"Revenue looks healthy."}]}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "invoices.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	svc := NewService(path, &LLMClient{
		http:         resty.New(),
		anthropicKey: "test-key",
		anthropicURL: srv.URL,
	})

	res, err := svc.Analyze(context.Background(), "summarize revenue", "")
	require.NoError(t, err)
	require.Equal(t, "Revenue looks healthy.", res.Analysis)
	require.Equal(t, 3, res.InvoicesAnalyzed)
	require.Len(t, res.QueryHash, 8)

	again, err := svc.Analyze(context.Background(), "summarize revenue", "")
	require.NoError(t, err)
	require.Equal(t, res, again)
	require.Equal(t, 1, calls)
}

func TestAnalyzeFallsBackToOpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer oa-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"From OpenAI."}}]}`))
	}))
	defer srv.Close()

	client := &LLMClient{http: resty.New(), openaiKey: "oa-key", openaiURL: srv.URL}
	text, err := client.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "From OpenAI.", text)
}

func TestCompleteWithoutProviders(t *testing.T) {
	client := &LLMClient{http: resty.New()}
	_, err := client.Complete(context.Background(), "prompt")
	require.ErrorIs(t, err, ErrNoProvider)
}

func TestMoneyFormatting(t *testing.T) {
	cases := map[string]string{
		"0":         "0.00",
		"5":         "5.00",
		"1200":      "1,200.00",
		"1234567.5": "1,234,567.50",
		"-9876.54":  "-9,876.54",
	}
	for in, want := range cases {
		d, err := decimal.NewFromString(in)
		require.NoError(t, err)
		require.Equal(t, want, money(d), in)
	}
}
