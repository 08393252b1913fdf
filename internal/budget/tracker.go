package budget

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/armatrix/taskagent/llm"
)

// MaxDecimal is a sentinel value representing an effectively unlimited remaining budget.
var MaxDecimal = decimal.New(1, 18) // 1e18

// BudgetTracker tracks cumulative token usage and cost across the model
// queries of one run. Agents create a fresh tracker per run, so a cap applies
// to each run (each Client query) on its own and is never shared with
// delegated children. It is safe for concurrent use.
type BudgetTracker struct {
	maxBudget  decimal.Decimal // 0 = unlimited
	totalCost  decimal.Decimal
	totalUsage llm.Usage
	pricing    map[string]ModelPricing
	mu         sync.Mutex
}

// NewBudgetTracker creates a new tracker. maxBudget of 0 means unlimited.
func NewBudgetTracker(maxBudget decimal.Decimal, pricing map[string]ModelPricing) *BudgetTracker {
	return &BudgetTracker{
		maxBudget: maxBudget,
		totalCost: decimal.Zero,
		pricing:   pricing,
	}
}

// RecordUsage records token usage for a single query and updates the cumulative cost.
func (b *BudgetTracker) RecordUsage(model string, usage llm.Usage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalUsage = b.totalUsage.Add(usage)

	pricing, ok := Lookup(b.pricing, model)
	if !ok {
		return // unknown model: tokens counted, no cost added
	}

	totalInput := int(usage.InputTokens + usage.CacheReadInputTokens + usage.CacheCreationInputTokens)
	inputCost := pricing.CostForInput(int(usage.InputTokens), int(usage.CacheReadInputTokens), int(usage.CacheCreationInputTokens), totalInput)
	outputCost := pricing.CostForOutput(int(usage.OutputTokens), totalInput)

	b.totalCost = b.totalCost.Add(inputCost).Add(outputCost)
}

// TotalCost returns the cumulative cost across all recorded usage.
func (b *BudgetTracker) TotalCost() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalCost
}

// TotalUsage returns the cumulative token usage across all recorded queries.
func (b *BudgetTracker) TotalUsage() llm.Usage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalUsage
}

// Remaining returns the remaining budget. If maxBudget is 0 (unlimited), returns MaxDecimal.
func (b *BudgetTracker) Remaining() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxBudget.IsZero() {
		return MaxDecimal
	}
	return b.maxBudget.Sub(b.totalCost)
}

// Exhausted returns true if the total cost has reached or exceeded maxBudget.
// Always returns false if maxBudget is 0 (unlimited).
func (b *BudgetTracker) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxBudget.IsZero() {
		return false
	}
	return b.totalCost.GreaterThanOrEqual(b.maxBudget)
}
