// Package analysis answers natural-language questions about the scraped
// invoice set: deterministic local templates for free analysis, and an
// LLM-backed path for open-ended queries. Results are cached by a hash
// of (query, csv) for idempotency.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/Buffnet/Zoho-Books/internal/models"
	"github.com/Buffnet/Zoho-Books/internal/output"

	"github.com/shopspring/decimal"
)

var (
	ErrNoData = errors.New("no invoice data found")
	ErrBadCSV = errors.New("invalid csv data")
)

type Result struct {
	Analysis         string `json:"analysis"`
	InvoicesAnalyzed int    `json:"invoices_analyzed"`
	QueryHash        string `json:"query_hash"`
}

type Service struct {
	csvPath string
	llm     *LLMClient

	mu    sync.Mutex
	cache map[string]Result
}

func NewService(csvPath string, llm *LLMClient) *Service {
	return &Service{
		csvPath: csvPath,
		llm:     llm,
		cache:   map[string]Result{},
	}
}

// Invoices loads the scraped record set. A missing CSV is an empty set
// here, not an error; only analysis demands data.
func (s *Service) Invoices() ([]models.InvoiceRecord, error) {
	records, err := output.ReadFile(s.csvPath)
	if errors.Is(err, os.ErrNotExist) {
		return []models.InvoiceRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) CacheSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// Analyze runs an LLM-backed analysis of the invoice set.
func (s *Service) Analyze(ctx context.Context, query, inlineCSV string) (Result, error) {
	invoices, csvContent, err := s.loadSource(inlineCSV)
	if err != nil {
		return Result{}, err
	}

	key := cacheKey(query, csvContent)
	if cached, ok := s.lookup(key); ok {
		return cached, nil
	}

	analysisText, err := s.llm.Complete(ctx, buildPrompt(query, invoices))
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Analysis:         analysisText,
		InvoicesAnalyzed: len(invoices),
		QueryHash:        key[:8],
	}
	s.store(key, res)
	return res, nil
}

// AnalyzeFree runs the deterministic local analysis. No provider keys
// needed; free analyses live under their own cache namespace.
func (s *Service) AnalyzeFree(query, inlineCSV string) (Result, error) {
	invoices, csvContent, err := s.loadSource(inlineCSV)
	if err != nil {
		return Result{}, err
	}

	key := "free_" + cacheKey(query, csvContent)
	if cached, ok := s.lookup(key); ok {
		return cached, nil
	}

	res := Result{
		Analysis:         localAnalysis(query, invoices),
		InvoicesAnalyzed: len(invoices),
		QueryHash:        key[:8],
	}
	s.store(key, res)
	return res, nil
}

func (s *Service) loadSource(inlineCSV string) ([]models.InvoiceRecord, string, error) {
	if inlineCSV != "" {
		if len(strings.Split(strings.TrimSpace(inlineCSV), "\n")) < 2 {
			return nil, "", ErrBadCSV
		}
		records, err := output.Parse(inlineCSV)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrBadCSV, err)
		}
		return records, inlineCSV, nil
	}

	raw, err := os.ReadFile(s.csvPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNoData
	}
	if err != nil {
		return nil, "", err
	}
	records, err := output.Parse(string(raw))
	if err != nil {
		return nil, "", err
	}
	if len(records) == 0 {
		return nil, "", ErrNoData
	}
	return records, string(raw), nil
}

func (s *Service) lookup(key string) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.cache[key]
	return res, ok
}

func (s *Service) store(key string, res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = res
}

func cacheKey(query, csvContent string) string {
	sum := sha256.Sum256([]byte(query + ":" + csvContent))
	return hex.EncodeToString(sum[:])
}

// buildPrompt summarizes the first invoices for token efficiency and
// appends the user's query.
func buildPrompt(query string, invoices []models.InvoiceRecord) string {
	var b strings.Builder
	b.WriteString("Invoice Data Summary:\n")
	fmt.Fprintf(&b, "Total Invoices: %d\n\n", len(invoices))

	limit := len(invoices)
	if limit > 10 {
		limit = 10
	}
	for i := 0; i < limit; i++ {
		inv := invoices[i]
		fmt.Fprintf(&b, "%d. Invoice %s: %s, $%s, %s, Paid: %s\n",
			i+1, inv.InvoiceID, inv.Customer, inv.Amount, inv.Status, inv.PaidAt)
	}
	if len(invoices) > 10 {
		fmt.Fprintf(&b, "... and %d more invoices\n", len(invoices)-10)
	}

	fmt.Fprintf(&b, "\nUser Query: %s\n\n", query)
	b.WriteString("Please analyze the invoice data and provide a concise response to the user's query. ")
	b.WriteString("Focus on key insights, patterns, and specific numbers where relevant.")
	return b.String()
}

// localAnalysis picks a summary template by query keywords and fills it
// with computed statistics.
func localAnalysis(query string, invoices []models.InvoiceRecord) string {
	total := len(invoices)
	totalAmount := decimal.Zero
	paidCount, partialCount := 0, 0
	byCustomer := map[string]decimal.Decimal{}

	for _, inv := range invoices {
		if d, err := decimal.NewFromString(inv.Amount); err == nil {
			totalAmount = totalAmount.Add(d)
			byCustomer[inv.Customer] = byCustomer[inv.Customer].Add(d)
		} else if _, seen := byCustomer[inv.Customer]; !seen {
			byCustomer[inv.Customer] = decimal.Zero
		}
		switch strings.ToLower(inv.Status) {
		case "paid":
			paidCount++
		case "partially paid":
			partialCount++
		}
	}

	average := decimal.Zero
	if total > 0 {
		average = totalAmount.Div(decimal.NewFromInt(int64(total)))
	}

	q := strings.ToLower(query)
	switch {
	case containsAny(q, "total", "revenue", "amount", "sum"):
		return fmt.Sprintf(
			"Total Revenue Analysis:\n- Total invoices: %d\n- Total amount: $%s\n- Paid invoices: %d\n- Partially paid: %d\n- Average per invoice: $%s",
			total, money(totalAmount), paidCount, partialCount, money(average),
		)
	case containsAny(q, "customer", "client", "who"):
		type ranked struct {
			name  string
			total decimal.Decimal
		}
		ranking := make([]ranked, 0, len(byCustomer))
		for name, amount := range byCustomer {
			ranking = append(ranking, ranked{name, amount})
		}
		sort.Slice(ranking, func(i, j int) bool {
			if ranking[i].total.Equal(ranking[j].total) {
				return ranking[i].name < ranking[j].name
			}
			return ranking[i].total.GreaterThan(ranking[j].total)
		})

		var b strings.Builder
		fmt.Fprintf(&b, "Customer Analysis:\n- Total customers: %d\n- Top customers by revenue:\n", len(byCustomer))
		for i, r := range ranking {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "  • %s: $%s\n", r.name, money(r.total))
		}
		return b.String()
	case containsAny(q, "status", "paid", "payment"):
		rate := 0.0
		if total > 0 {
			rate = float64(paidCount+partialCount) / float64(total) * 100
		}
		return fmt.Sprintf(
			"Payment Status Analysis:\n- Fully paid: %d invoices\n- Partially paid: %d invoices\n- Payment rate: %.1f%%\n- Total collected: $%s",
			paidCount, partialCount, rate, money(totalAmount),
		)
	case containsAny(q, "count", "how many", "number"):
		perCustomer := 0.0
		if len(byCustomer) > 0 {
			perCustomer = float64(total) / float64(len(byCustomer))
		}
		return fmt.Sprintf(
			"Invoice Count Analysis:\n- Total invoices: %d\n- Unique customers: %d\n- Fully paid: %d\n- Partially paid: %d\n- Average per customer: %.1f invoices",
			total, len(byCustomer), paidCount, partialCount, perCustomer,
		)
	default:
		return fmt.Sprintf(
			"Invoice Overview:\n- Total invoices: %d\n- Total revenue: $%s\n- Customers: %d\n- Paid: %d, Partial: %d\n- Average invoice: $%s",
			total, money(totalAmount), len(byCustomer), paidCount, partialCount, money(average),
		)
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// money renders a decimal as a human amount with thousands separators
// and two decimal places.
func money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ",") + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
