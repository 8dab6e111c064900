// Package seed 從 YAML 載入成就與徽章定義目錄
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	appreward "github.com/jackyeh168/loyalty_rewards/src/internal/application/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalogue.yaml
var defaultCatalogue []byte

// Catalogue 定義目錄
type Catalogue struct {
	Version      int           `yaml:"version"`
	Achievements []Achievement `yaml:"achievements"`
	Badges       []Badge       `yaml:"badges"`
}

// Achievement 成就定義
type Achievement struct {
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Icon        string                 `yaml:"icon"`
	Criteria    map[string]interface{} `yaml:"criteria"`
	Inactive    bool                   `yaml:"inactive"`
}

// Badge 徽章定義
type Badge struct {
	Name         string                 `yaml:"name"`
	Description  string                 `yaml:"description"`
	Icon         string                 `yaml:"icon"`
	Tier         int                    `yaml:"tier"`
	Requirements map[string]interface{} `yaml:"requirements"`
	Inactive     bool                   `yaml:"inactive"`
}

// Default 內建預設目錄
func Default() (*Catalogue, error) {
	return Parse(defaultCatalogue)
}

// LoadFile 讀取 YAML 目錄檔
func LoadFile(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析 YAML；未知欄位視為錯誤
func Parse(data []byte) (*Catalogue, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Catalogue
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("seed: parse catalogue: %w", err)
	}
	if c.Version == 0 {
		c.Version = reward.CriteriaVersion
	}
	if c.Version != reward.CriteriaVersion {
		return nil, fmt.Errorf("seed: unsupported catalogue version %d", c.Version)
	}
	return &c, nil
}

// Result 套用結果
type Result struct {
	Created int
	Skipped int
}

// Apply 建立目錄中尚不存在的定義；同名定義略過（可重複執行）
func Apply(ctx context.Context, svc *appreward.DefinitionService, c *Catalogue, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var result Result

	record := func(name string, created *appreward.DefinitionResult, inactive bool, err error) error {
		if errors.Is(err, reward.ErrDefinitionAlreadyExists) {
			result.Skipped++
			logger.Debug("definition already present", zap.String("name", name))
			return nil
		}
		if err != nil {
			return fmt.Errorf("seed %q: %w", name, err)
		}
		result.Created++
		if inactive {
			if _, err := svc.SetActive(ctx, created.DefinitionID, false); err != nil {
				return fmt.Errorf("seed %q: deactivate: %w", name, err)
			}
		}
		return nil
	}

	for _, a := range c.Achievements {
		created, err := svc.CreateAchievement(ctx, appreward.CreateAchievementCommand{
			Name:        a.Name,
			Description: a.Description,
			Icon:        a.Icon,
			Criteria:    a.Criteria,
		})
		if err := record(a.Name, created, a.Inactive, err); err != nil {
			return result, err
		}
	}
	for _, b := range c.Badges {
		created, err := svc.CreateBadge(ctx, appreward.CreateBadgeCommand{
			Name:         b.Name,
			Description:  b.Description,
			Icon:         b.Icon,
			Tier:         b.Tier,
			Requirements: b.Requirements,
		})
		if err := record(b.Name, created, b.Inactive, err); err != nil {
			return result, err
		}
	}

	logger.Info("definition catalogue applied",
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
