package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/KAFKA2306/expense2/internal/domain"
)

func TestNewEngine_ValidRules(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Convenience Stores"
    pattern: "セブン-イレブン"
    match_type: "contains"
    priority: 100
    category: "食費 / コンビニ"
`
	engine, err := NewEngine([]byte(rulesYAML))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	if len(engine.rules) != 1 {
		t.Fatalf("NewEngine() rules count = %d, want 1", len(engine.rules))
	}

	rule := engine.rules[0]
	if rule.Name != "Convenience Stores" {
		t.Errorf("rule.Name = %s, want Convenience Stores", rule.Name)
	}
	if rule.Priority != 100 {
		t.Errorf("rule.Priority = %d, want 100", rule.Priority)
	}
	if rule.Category != "食費 / コンビニ" {
		t.Errorf("rule.Category = %s, want 食費 / コンビニ", rule.Category)
	}
	if rule.Source != "" {
		t.Errorf("rule.Source = %s, want empty", rule.Source)
	}
}

func TestNewEngine_EmptyCategory(t *testing.T) {
	rulesYAML := `
rules:
  - name: "No Category"
    pattern: "TEST"
    match_type: "contains"
    priority: 100
    category: ""
`
	_, err := NewEngine([]byte(rulesYAML))
	if err == nil {
		t.Error("NewEngine() expected error for empty category")
	}
}

func TestNewEngine_InvalidPriority(t *testing.T) {
	tests := []struct {
		name     string
		priority int
	}{
		{"negative priority", -1},
		{"priority too high", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rulesYAML := fmt.Sprintf(`
rules:
  - name: "Invalid Priority"
    pattern: "TEST"
    match_type: "contains"
    priority: %d
    category: "食費"
`, tt.priority)
			_, err := NewEngine([]byte(rulesYAML))
			if err == nil {
				t.Errorf("NewEngine() expected error for %s", tt.name)
			}
		})
	}
}

func TestNewEngine_InvalidMatchType(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Invalid Match Type"
    pattern: "TEST"
    match_type: "regex"
    priority: 100
    category: "食費"
`
	_, err := NewEngine([]byte(rulesYAML))
	if err == nil {
		t.Error("NewEngine() expected error for invalid match_type")
	}
}

func TestNewEngine_EmptyName(t *testing.T) {
	rulesYAML := `
rules:
  - name: ""
    pattern: "TEST"
    match_type: "contains"
    priority: 100
    category: "食費"
`
	_, err := NewEngine([]byte(rulesYAML))
	if err == nil {
		t.Error("NewEngine() expected error for empty name")
	}
}

func TestNewEngine_DuplicateNames(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Groceries"
    pattern: "スーパー"
    match_type: "contains"
    priority: 100
    category: "食費"
  - name: "Groceries"
    pattern: "マーケット"
    match_type: "contains"
    priority: 200
    category: "食費"
`
	_, err := NewEngine([]byte(rulesYAML))
	if err == nil {
		t.Error("NewEngine() expected error for duplicate rule names")
	}
}

func TestNewEngine_EmptyPattern(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Empty Pattern"
    pattern: ""
    match_type: "contains"
    priority: 100
    category: "食費"
`
	_, err := NewEngine([]byte(rulesYAML))
	if err == nil {
		t.Error("NewEngine() expected error for empty pattern")
	}
}

func TestNewEngine_PrioritySorting(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Low Priority"
    pattern: "LOW"
    match_type: "contains"
    priority: 100
    category: "食費"
  - name: "High Priority"
    pattern: "HIGH"
    match_type: "contains"
    priority: 900
    category: "収入"
  - name: "Medium Priority"
    pattern: "MED"
    match_type: "contains"
    priority: 500
    category: "日用品"
`
	engine, err := NewEngine([]byte(rulesYAML))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	if len(engine.rules) != 3 {
		t.Fatalf("NewEngine() rules count = %d, want 3", len(engine.rules))
	}

	if engine.rules[0].Name != "High Priority" {
		t.Errorf("rules[0].Name = %s, want High Priority", engine.rules[0].Name)
	}
	if engine.rules[1].Name != "Medium Priority" {
		t.Errorf("rules[1].Name = %s, want Medium Priority", engine.rules[1].Name)
	}
	if engine.rules[2].Name != "Low Priority" {
		t.Errorf("rules[2].Name = %s, want Low Priority", engine.rules[2].Name)
	}
}

func TestNewEngine_InvalidYAML(t *testing.T) {
	invalidYAML := `
rules:
  - name: "Invalid"
    invalid_field: [this is not proper YAML structure
`
	_, err := NewEngine([]byte(invalidYAML))
	if err == nil {
		t.Error("NewEngine() expected error for invalid YAML")
	}
}

func TestNewRule(t *testing.T) {
	rule, err := NewRule("payroll", "給与", MatchTypeExact, 200, "収入 / 給与", "Bank A")
	if err != nil {
		t.Fatalf("NewRule() error = %v", err)
	}
	if rule.Source != "Bank A" {
		t.Errorf("rule.Source = %s, want Bank A", rule.Source)
	}

	tests := []struct {
		name      string
		pattern   string
		matchType MatchType
		priority  int
		category  string
	}{
		{"empty pattern", "  ", MatchTypeContains, 100, "食費"},
		{"empty category", "TEST", MatchTypeContains, 100, " "},
		{"bad match type", "TEST", MatchType("glob"), 100, "食費"},
		{"negative priority", "TEST", MatchTypeContains, -5, "食費"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRule(tt.name, tt.pattern, tt.matchType, tt.priority, tt.category, ""); err == nil {
				t.Error("NewRule() expected error")
			}
		})
	}

	if _, err := NewRule("", "TEST", MatchTypeContains, 100, "食費", ""); err == nil {
		t.Error("NewRule() expected error for empty name")
	}
}

func TestMatch_Contains(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Amazon"
    pattern: "Amazon"
    match_type: "contains"
    priority: 100
    category: "日用品 / 通販"
`
	engine, err := NewEngine([]byte(rulesYAML))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	tests := []struct {
		name        string
		description string
		wantMatch   bool
	}{
		{"exact match", "Amazon", true},
		{"case insensitive", "AMAZON", true},
		{"substring", "Amazon.co.jp マーケットプレイス", true},
		{"no match", "楽天市場", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, matched := engine.Match(tt.description)
			if matched != tt.wantMatch {
				t.Errorf("Match(%q) matched = %v, want %v", tt.description, matched, tt.wantMatch)
			}
			if matched && result.Category != "日用品 / 通販" {
				t.Errorf("Match(%q) category = %s", tt.description, result.Category)
			}
		})
	}
}

func TestMatch_Exact(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Payroll"
    pattern: "給与"
    match_type: "exact"
    priority: 100
    category: "収入 / 給与"
    source: "Bank A"
`
	engine, err := NewEngine([]byte(rulesYAML))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	tests := []struct {
		name        string
		description string
		wantMatch   bool
	}{
		{"exact match", "給与", true},
		{"with whitespace", "  給与  ", true},
		{"substring is not exact", "給与振込", false},
		{"no match", "賞与", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, matched := engine.Match(tt.description)
			if matched != tt.wantMatch {
				t.Errorf("Match(%q) matched = %v, want %v", tt.description, matched, tt.wantMatch)
			}
			if matched && result.Source != "Bank A" {
				t.Errorf("Match(%q) source = %s, want Bank A", tt.description, result.Source)
			}
		})
	}
}

func TestMatch_FirstMatchWins(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Low Priority"
    pattern: "タクシー"
    match_type: "contains"
    priority: 100
    category: "交際費"
  - name: "High Priority"
    pattern: "タクシー"
    match_type: "contains"
    priority: 900
    category: "交通費"
`
	engine, err := NewEngine([]byte(rulesYAML))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	result, matched := engine.Match("日本交通タクシー")
	if !matched {
		t.Fatal("Match() expected match")
	}
	if result.Category != "交通費" {
		t.Errorf("Match() category = %s, want 交通費", result.Category)
	}
	if result.RuleName != "High Priority" {
		t.Errorf("Match() ruleName = %s, want High Priority", result.RuleName)
	}
}

func TestMatch_NoMatch(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Specific Rule"
    pattern: "セブン-イレブン"
    match_type: "contains"
    priority: 100
    category: "食費"
`
	engine, err := NewEngine([]byte(rulesYAML))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	result, matched := engine.Match("ローソン")
	if matched {
		t.Error("Match() expected no match")
	}
	if result != nil {
		t.Error("Match() result should be nil when no match")
	}
}

func TestLoadEmbedded(t *testing.T) {
	engine, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}

	// The shipped default set is empty so overrides stay opt-in.
	if got := len(engine.GetRules()); got != 0 {
		t.Errorf("LoadEmbedded() rules count = %d, want 0", got)
	}
	if _, matched := engine.Match("セブン-イレブン"); matched {
		t.Error("Match() on empty embedded rules should not match")
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	rulesFile := filepath.Join(tmpDir, "custom_rules.yaml")

	rulesYAML := `
rules:
  - name: "Custom Rule"
    pattern: "スターバックス"
    match_type: "contains"
    priority: 100
    category: "食費 / カフェ"
`
	if err := os.WriteFile(rulesFile, []byte(rulesYAML), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	engine, err := LoadFromFile(rulesFile)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	result, matched := engine.Match("スターバックス 渋谷店")
	if !matched {
		t.Fatal("Match() expected match")
	}
	if result.Category != "食費 / カフェ" {
		t.Errorf("Match() category = %s, want 食費 / カフェ", result.Category)
	}
}

func TestLoadFromFile_NotExists(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/rules.yaml")
	if err == nil {
		t.Error("LoadFromFile() expected error for non-existent file")
	}
}

func TestGetRules(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Test Rule"
    pattern: "TEST"
    match_type: "contains"
    priority: 100
    category: "食費"
`
	engine, err := NewEngine([]byte(rulesYAML))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	rules := engine.GetRules()
	if len(rules) != 1 {
		t.Fatalf("GetRules() count = %d, want 1", len(rules))
	}

	// Verify it's a copy (modifying returned slice doesn't affect engine)
	rules[0].Name = "Modified"
	originalRules := engine.GetRules()
	if originalRules[0].Name == "Modified" {
		t.Error("GetRules() returned a slice sharing the engine's backing array")
	}
}

func TestApply(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Cafe"
    pattern: "スターバックス"
    match_type: "contains"
    priority: 100
    category: "食費 / カフェ"
  - name: "Payroll"
    pattern: "給与"
    match_type: "exact"
    priority: 200
    category: "収入 / 給与"
    source: "Bank A"
`
	engine, err := NewEngine([]byte(rulesYAML))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	date := time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		{
			Date:        date,
			Description: "スターバックス 渋谷店",
			Amount:      decimal.RequireFromString("-580"),
			Category:    domain.CategoryUncategorized,
			Source:      "Bank B",
			Currency:    domain.CurrencyJPY,
		},
		{
			Date:        date,
			Description: "給与",
			Amount:      decimal.RequireFromString("250000"),
			Category:    domain.CategoryUncategorized,
			Source:      domain.SourceUnset,
			Currency:    domain.CurrencyJPY,
		},
		{
			Date:        date,
			Description: "ATM出金",
			Amount:      decimal.RequireFromString("-10000"),
			Category:    domain.CategoryTransfer,
			Source:      "Bank B",
			Currency:    domain.CurrencyJPY,
			IsTransfer:  true,
		},
	}

	got := engine.Apply(txs)

	if got[0].Category != "食費 / カフェ" {
		t.Errorf("txs[0].Category = %s, want 食費 / カフェ", got[0].Category)
	}
	if got[0].Source != "Bank B" {
		t.Errorf("txs[0].Source = %s, want Bank B (rule has no source)", got[0].Source)
	}

	if got[1].Category != "収入 / 給与" {
		t.Errorf("txs[1].Category = %s, want 収入 / 給与", got[1].Category)
	}
	if got[1].Source != "Bank A" {
		t.Errorf("txs[1].Source = %s, want Bank A", got[1].Source)
	}

	if got[2].Category != domain.CategoryTransfer {
		t.Errorf("txs[2].Category = %s, want unchanged", got[2].Category)
	}
	if !got[2].IsTransfer {
		t.Error("txs[2].IsTransfer should stay true")
	}
}
