package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/log"
	"github.com/spendlens/spendlens/pkg/models"
)

const defaultModel = "claude-sonnet-4-5-20250929"

// Refiner asks a model to re-categorize the transactions the rule table
// could not place. It is strictly best-effort: any failure leaves the
// keyword assignment untouched.
type Refiner struct {
	client anthropic.Client
	model  string
	logger *log.Logger
}

// NewRefiner returns nil when no API key is configured, which callers
// treat as refinement disabled.
func NewRefiner(apiKey, model string, logger *log.Logger) *Refiner {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = defaultModel
	}
	return &Refiner{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger,
	}
}

type refineDecision struct {
	Index      int    `json:"index"`
	CategoryID string `json:"category"`
}

type refineResponse struct {
	Decisions []refineDecision `json:"decisions"`
}

// Refine returns a map of transaction index to suggested category ID for
// the given transactions. Only IDs present in the taxonomy are returned;
// anything else from the model is discarded.
func (r *Refiner) Refine(ctx context.Context, txns []models.Transaction, categories []models.Category) (map[int]string, error) {
	if len(txns) == 0 {
		return nil, nil
	}

	valid := make(map[string]bool, len(categories))
	ids := make([]string, 0, len(categories))
	for _, c := range categories {
		valid[c.ID] = true
		ids = append(ids, c.ID)
	}

	prompt := r.buildPrompt(txns, ids)
	message, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic call failed: %w", err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	// The model may wrap the JSON in a markdown fence; extract the object.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var resp refineResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	out := make(map[int]string, len(resp.Decisions))
	for _, d := range resp.Decisions {
		if d.Index < 0 || d.Index >= len(txns) {
			continue
		}
		if !valid[d.CategoryID] {
			r.logger.Debug("model suggested unknown category, dropping", "category", d.CategoryID)
			continue
		}
		out[d.Index] = d.CategoryID
	}
	return out, nil
}

func (r *Refiner) buildPrompt(txns []models.Transaction, categoryIDs []string) string {
	var b strings.Builder
	b.WriteString("You categorize credit-card transactions. Available category ids:\n")
	b.WriteString(strings.Join(categoryIDs, ", "))
	b.WriteString("\n\nFor each transaction below, pick the single best category id.\n")
	b.WriteString("Respond with only a JSON object of the form\n")
	b.WriteString(`{"decisions": [{"index": 0, "category": "groceries"}]}` + "\n\nTransactions:\n")
	for i, t := range txns {
		fmt.Fprintf(&b, "%d. %s | %s | %.2f\n", i, t.Date.Format("2006-01-02"), t.Description, t.Amount)
	}
	return b.String()
}
