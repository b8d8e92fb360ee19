package score

import (
	"carfit/internal/cluster"
	"carfit/internal/score/rule"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicy []byte

// PolicyError — ошибка загрузки политики оценки с указанием раздела, в котором она возникла.
type PolicyError struct {
	Section string
	Err     error
}

// Error возвращает текстовое описание ошибки.
func (e *PolicyError) Error() string {
	return "policy " + e.Section + ": " + e.Err.Error()
}

func (e *PolicyError) Unwrap() error {
	return e.Err
}

// Policy — настраиваемая часть оценки: мягкие и стилевые множители,
// ценовые полосы и таблица меток центроидов.
// Коэффициенты являются параметрами настройки, а не инвариантами ранжирования.
type Policy struct {
	Price  PriceBands          `yaml:"price"`
	Soft   Layer               `yaml:"soft"`
	Style  Layer               `yaml:"style"`
	Labels cluster.LabelPolicy `yaml:"labels"`
}

// Adjust вычисляет оба множителя для одного кандидата.
func (p *Policy) Adjust(f rule.Facts) Adjustment {
	soft, softRules := p.Soft.Multiplier(f)
	style, styleRules := p.Style.Multiplier(f)
	return Adjustment{
		Soft:       soft,
		Style:      style,
		SoftRules:  softRules,
		StyleRules: styleRules,
	}
}

// ParsePolicy разбирает YAML-описание политики и компилирует все CEL-правила.
// Отсутствующие разделы берутся из политики по умолчанию.
//
// В случае синтаксических ошибок в YAML или CEL-выражениях возвращается PolicyError.
func ParsePolicy(content []byte) (*Policy, error) {
	policy, err := parseDefault()
	if err != nil {
		return nil, err
	}

	var override Policy
	if err := yaml.Unmarshal(content, &override); err != nil {
		return nil, &PolicyError{Section: "yaml", Err: err}
	}
	if override.Price != (PriceBands{}) {
		policy.Price = override.Price
	}
	if len(override.Soft.Rules) > 0 || override.Soft.Min != 0 || override.Soft.Max != 0 {
		policy.Soft = override.Soft
	}
	if len(override.Style.Rules) > 0 || override.Style.Min != 0 || override.Style.Max != 0 {
		policy.Style = override.Style
	}
	if len(override.Labels) > 0 {
		policy.Labels = override.Labels
	}

	if err := policy.init(); err != nil {
		return nil, err
	}
	return policy, nil
}

// LoadPolicy читает политику из файла. Пустой путь означает политику по умолчанию.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy()
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return ParsePolicy(content)
}

// MergeRules дополняет слой section ("soft" или "style") правилами из YAML-файла.
// Правило с уже существующим именем заменяет прежнее, остальные добавляются в конец слоя.
func (p *Policy) MergeRules(section, file string) error {
	var layer *Layer
	switch section {
	case "soft":
		layer = &p.Soft
	case "style":
		layer = &p.Style
	default:
		return &PolicyError{Section: section, Err: errors.New("unknown layer")}
	}

	rules, err := rule.LoadFromFile(file, rule.NewVehicleEnv)
	if err != nil {
		return &PolicyError{Section: section, Err: fmt.Errorf("rules file %s: %w", file, err)}
	}

	merged := Layer{Min: layer.Min, Max: layer.Max, Rules: append([]rule.Rule(nil), layer.Rules...)}
	index := make(map[string]int, len(merged.Rules))
	for i, r := range merged.Rules {
		if r.Name != "" {
			index[r.Name] = i
		}
	}
	for _, r := range rules {
		if i, ok := index[r.Name]; ok && r.Name != "" {
			merged.Rules[i] = r
			continue
		}
		merged.Rules = append(merged.Rules, r)
	}
	if err := merged.Validate(); err != nil {
		return &PolicyError{Section: section, Err: err}
	}

	*layer = merged
	return nil
}

// DefaultPolicy возвращает встроенную политику.
func DefaultPolicy() (*Policy, error) {
	policy, err := parseDefault()
	if err != nil {
		return nil, err
	}
	if err := policy.init(); err != nil {
		return nil, err
	}
	return policy, nil
}

func parseDefault() (*Policy, error) {
	var policy Policy
	if err := yaml.Unmarshal(defaultPolicy, &policy); err != nil {
		return nil, &PolicyError{Section: "default", Err: err}
	}
	return &policy, nil
}

func (p *Policy) init() error {
	if err := p.Price.Validate(); err != nil {
		return &PolicyError{Section: "price", Err: err}
	}
	if err := p.Labels.Validate(); err != nil {
		return &PolicyError{Section: "labels", Err: err}
	}

	layers := []struct {
		name  string
		layer *Layer
	}{
		{"soft", &p.Soft},
		{"style", &p.Style},
	}
	for _, l := range layers {
		if err := l.layer.Validate(); err != nil {
			return &PolicyError{Section: l.name, Err: err}
		}
		if err := l.layer.Init(); err != nil {
			return &PolicyError{Section: l.name, Err: err}
		}
	}
	return nil
}
