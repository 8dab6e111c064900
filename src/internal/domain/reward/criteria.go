package reward

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// CriteriaVersion 目前的條件格式版本
const CriteriaVersion = 1

// PredicateKind 解鎖條件種類（封閉列舉）
type PredicateKind string

const (
	PredicateTransactionCount        PredicateKind = "transaction_count"
	PredicatePurchasesMinimum        PredicateKind = "purchases_minimum"
	PredicatePointsMinimum           PredicateKind = "points_minimum"
	PredicatePointsEarned            PredicateKind = "points_earned"
	PredicateSingleTransactionAmount PredicateKind = "single_transaction_amount"
	PredicateTotalSpending           PredicateKind = "total_spending"
	PredicateSpendingMinimum         PredicateKind = "spending_minimum"
)

// badgeOnly 只對徽章有效的條件
var badgeOnly = map[PredicateKind]bool{
	PredicatePurchasesMinimum: true,
	PredicateSpendingMinimum:  true,
}

// IsKnown 是否為版本 1 已知的條件種類
func (k PredicateKind) IsKnown() bool {
	switch k {
	case PredicateTransactionCount, PredicatePurchasesMinimum, PredicatePointsMinimum,
		PredicatePointsEarned, PredicateSingleTransactionAmount, PredicateTotalSpending,
		PredicateSpendingMinimum:
		return true
	}
	return false
}

// AllowedFor 條件種類是否適用於該定義種類
func (k PredicateKind) AllowedFor(kind Kind) bool {
	if !k.IsKnown() {
		return false
	}
	if kind == KindAchievement && badgeOnly[k] {
		return false
	}
	return true
}

// ===========================
// Predicate 值對象
// ===========================

// Predicate 單一條件：活動指標 >= Threshold
type Predicate struct {
	Kind      PredicateKind
	Threshold decimal.Decimal
}

// NewPredicate 建構條件（門檻不可為負）
func NewPredicate(kind PredicateKind, threshold decimal.Decimal) (Predicate, error) {
	if threshold.IsNegative() {
		return Predicate{}, ErrInvalidCriteria.WithContext(
			"kind", string(kind),
			"threshold", threshold.String(),
		)
	}
	return Predicate{Kind: kind, Threshold: threshold}, nil
}

// holds 條件是否成立；未知或不適用的條件一律不成立
func (p Predicate) holds(kind Kind, activity UserActivity) bool {
	if !p.Kind.AllowedFor(kind) {
		return false
	}
	current, ok := activity.metric(p.Kind)
	if !ok {
		return false
	}
	return current.GreaterThanOrEqual(p.Threshold)
}

// ===========================
// Criteria 值對象
// ===========================

// Criteria 一組以 AND 組合的條件
//
// 持久化格式為扁平 JSON 物件，例如 {"points_minimum": 25000, "purchases_minimum": 50}。
type Criteria struct {
	version    int
	predicates []Predicate
}

// NewCriteria 建構版本 1 的條件集合（依種類排序，保持輸出穩定）
func NewCriteria(predicates ...Predicate) Criteria {
	ps := make([]Predicate, len(predicates))
	copy(ps, predicates)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Kind < ps[j].Kind })
	return Criteria{version: CriteriaVersion, predicates: ps}
}

// CriteriaFromMap 從扁平的 kind → 門檻對應解析條件
//
// 未知種類會被保留（評估時 fail closed）；門檻必須為非負數字。
func CriteriaFromMap(version int, raw map[string]interface{}) (Criteria, error) {
	predicates := make([]Predicate, 0, len(raw))
	for key, value := range raw {
		threshold, err := toDecimal(value)
		if err != nil {
			return Criteria{}, ErrInvalidCriteria.WithContext(
				"kind", key,
				"value", fmt.Sprintf("%v", value),
				"parse_error", err.Error(),
			)
		}
		p, err := NewPredicate(PredicateKind(key), threshold)
		if err != nil {
			return Criteria{}, err
		}
		predicates = append(predicates, p)
	}

	c := NewCriteria(predicates...)
	if version > 0 {
		c.version = version
	}
	return c, nil
}

// Version 條件格式版本
func (c Criteria) Version() int {
	return c.version
}

// Predicates 返回條件副本
func (c Criteria) Predicates() []Predicate {
	out := make([]Predicate, len(c.predicates))
	copy(out, c.predicates)
	return out
}

// IsEmpty 是否沒有任何條件
func (c Criteria) IsEmpty() bool {
	return len(c.predicates) == 0
}

// Find 查找某種類的條件
func (c Criteria) Find(kind PredicateKind) (Predicate, bool) {
	for _, p := range c.predicates {
		if p.Kind == kind {
			return p, true
		}
	}
	return Predicate{}, false
}

// ToMap 轉為扁平對應（門檻以 JSON 數字輸出）
func (c Criteria) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(c.predicates))
	for _, p := range c.predicates {
		out[string(p.Kind)] = json.Number(p.Threshold.String())
	}
	return out
}

// ValidateFor 檢查所有條件都適用於該定義種類（建立定義時使用）
func (c Criteria) ValidateFor(kind Kind) error {
	if c.version != CriteriaVersion {
		return ErrInvalidCriteria.WithContext("version", c.version)
	}
	for _, p := range c.predicates {
		if !p.Kind.AllowedFor(kind) {
			return ErrInvalidCriteria.WithContext(
				"kind", string(p.Kind),
				"definition_kind", string(kind),
				"reason", "predicate not supported",
			)
		}
	}
	return nil
}

// satisfiedBy 所有條件皆成立
//
// 版本不符時 fail closed。空集合的意義由呼叫端（定義種類）決定。
func (c Criteria) satisfiedBy(kind Kind, activity UserActivity) bool {
	if c.version != CriteriaVersion {
		return false
	}
	for _, p := range c.predicates {
		if !p.holds(kind, activity) {
			return false
		}
	}
	return true
}

func toDecimal(value interface{}) (decimal.Decimal, error) {
	switch v := value.(type) {
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(v)
	case decimal.Decimal:
		return v, nil
	}
	return decimal.Zero, fmt.Errorf("unsupported threshold type %T", value)
}
