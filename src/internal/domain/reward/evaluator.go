package reward

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ===========================
// Rule Evaluator（純函數）
// ===========================

// dominantPredicates 進度計算時依序採用的主要條件
var dominantPredicates = map[Kind][]PredicateKind{
	KindAchievement: {PredicateTransactionCount, PredicatePointsMinimum, PredicateSingleTransactionAmount},
	KindBadge:       {PredicatePointsMinimum, PredicatePurchasesMinimum},
}

// UnlockedSet 用戶已解鎖的定義集合
type UnlockedSet map[DefinitionID]struct{}

// NewUnlockedSet 由解鎖紀錄建立集合
func NewUnlockedSet(records []*UnlockRecord) UnlockedSet {
	set := make(UnlockedSet, len(records))
	for _, r := range records {
		set[r.DefinitionID()] = struct{}{}
	}
	return set
}

// Contains 是否已解鎖
func (s UnlockedSet) Contains(id DefinitionID) bool {
	_, ok := s[id]
	return ok
}

// NewlySatisfied 返回新滿足的定義
//
// 只考慮 kind 相符、啟用且尚未解鎖的定義。
// 徽章依 tier 由低到高排列，所有滿足的等級都會返回。
func NewlySatisfied(kind Kind, definitions []*Definition, unlocked UnlockedSet, activity UserActivity) []*Definition {
	candidates := make([]*Definition, 0, len(definitions))
	for _, d := range definitions {
		if d.Kind() != kind || !d.IsActive() || unlocked.Contains(d.ID()) {
			continue
		}
		candidates = append(candidates, d)
	}

	if kind == KindBadge {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Tier() < candidates[j].Tier()
		})
	}

	satisfied := make([]*Definition, 0, len(candidates))
	for _, d := range candidates {
		if d.IsSatisfiedBy(activity) {
			satisfied = append(satisfied, d)
		}
	}
	return satisfied
}

// Progress 定義的完成百分比 [0, 100]
//
// min(100, round(current / required × 100))，以主要條件計算：
// - 已解鎖：100
// - 無主要條件：0
// - 門檻為 0：100
func Progress(definition *Definition, activity UserActivity, alreadyUnlocked bool) int {
	if alreadyUnlocked {
		return 100
	}

	if definition.Criteria().Version() != CriteriaVersion {
		return 0
	}
	predicate, ok := dominantPredicate(definition)
	if !ok {
		return 0
	}
	if predicate.Threshold.IsZero() {
		return 100
	}

	current, _ := activity.metric(predicate.Kind)
	pct := current.Mul(decimal.NewFromInt(100)).Div(predicate.Threshold).Round(0)
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		return 100
	}
	if pct.IsNegative() {
		return 0
	}
	return int(pct.IntPart())
}

func dominantPredicate(definition *Definition) (Predicate, bool) {
	for _, kind := range dominantPredicates[definition.Kind()] {
		if p, ok := definition.Criteria().Find(kind); ok {
			return p, true
		}
	}
	return Predicate{}, false
}
