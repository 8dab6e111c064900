package reward

import "github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"

// DefinitionMarker 是 DefinitionID 的標記類型
type DefinitionMarker struct{}

// DefinitionID 成就/徽章定義的唯一標識符
type DefinitionID = shared.EntityID[DefinitionMarker]

// NewDefinitionID 生成新的定義 ID（UUID v4）
func NewDefinitionID() DefinitionID {
	return shared.NewEntityID[DefinitionMarker]()
}

// DefinitionIDFromString 從字串解析定義 ID
func DefinitionIDFromString(s string) (DefinitionID, error) {
	return shared.EntityIDFromString[DefinitionMarker](s, ErrInvalidDefinitionID)
}

// Kind 定義種類
type Kind string

const (
	KindAchievement Kind = "achievement"
	KindBadge       Kind = "badge"
)

// IsValid 是否為已知種類
func (k Kind) IsValid() bool {
	return k == KindAchievement || k == KindBadge
}

// ParseKind 解析種類字串
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", ErrInvalidDefinition.WithContext("kind", s)
	}
	return k, nil
}
