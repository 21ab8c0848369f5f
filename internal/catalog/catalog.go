// Package catalog 加载只读的题库、模型注册表和评分标准
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ashwinyue/next-eval/internal/model"
)

// Reason 配置错误原因
type Reason string

const (
	ReasonMissing   Reason = "missing"
	ReasonMalformed Reason = "malformed"
	ReasonInvalid   Reason = "invalid"
)

// ConfigurationError 必需的静态数据文件缺失或无法解析
type ConfigurationError struct {
	File   string
	Reason Reason
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s is %s: %v", e.File, e.Reason, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsMissing 是否为文件缺失
func IsMissing(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce) && ce.Reason == ReasonMissing
}

// Data 启动时加载的静态数据
type Data struct {
	Catalog  *model.Catalog
	Registry *model.Registry
	Rubric   *model.Rubric
}

// Load 加载全部静态数据，题库和注册表必须存在，评分标准可选
func Load(questionsFile, modelsFile, rubricFile string) (*Data, error) {
	cat, err := LoadCatalog(questionsFile)
	if err != nil {
		return nil, err
	}
	reg, err := LoadRegistry(modelsFile)
	if err != nil {
		return nil, err
	}
	rubric, err := LoadRubric(rubricFile)
	if err != nil {
		return nil, err
	}
	return &Data{Catalog: cat, Registry: reg, Rubric: rubric}, nil
}

// LoadCatalog 加载题库并校验维度划分
func LoadCatalog(path string) (*model.Catalog, error) {
	var cat model.Catalog
	if err := readJSON(path, &cat); err != nil {
		return nil, err
	}
	if err := ValidateCatalog(&cat); err != nil {
		return nil, &ConfigurationError{File: path, Reason: ReasonInvalid, Err: err}
	}
	return &cat, nil
}

// LoadRegistry 加载模型注册表
func LoadRegistry(path string) (*model.Registry, error) {
	var reg model.Registry
	if err := readJSON(path, &reg); err != nil {
		return nil, err
	}
	if len(reg.Models) == 0 {
		return nil, &ConfigurationError{File: path, Reason: ReasonInvalid, Err: errors.New("registry has no models")}
	}
	seen := make(map[string]bool, len(reg.Models))
	for _, m := range reg.Models {
		if m.ID == "" {
			return nil, &ConfigurationError{File: path, Reason: ReasonInvalid, Err: errors.New("model without id")}
		}
		if seen[m.ID] {
			return nil, &ConfigurationError{File: path, Reason: ReasonInvalid, Err: fmt.Errorf("duplicate model id %q", m.ID)}
		}
		seen[m.ID] = true
	}
	return &reg, nil
}

// LoadRubric 加载评分标准，文件不存在时返回空标准
func LoadRubric(path string) (*model.Rubric, error) {
	var rubric model.Rubric
	if path == "" {
		return &rubric, nil
	}
	if err := readJSON(path, &rubric); err != nil {
		if IsMissing(err) {
			return &rubric, nil
		}
		return nil, err
	}
	return &rubric, nil
}

// ValidateCatalog 题库非空；题目 ID 唯一；每道题恰好属于一个维度
func ValidateCatalog(cat *model.Catalog) error {
	if len(cat.Questions) == 0 {
		return errors.New("catalog has no questions")
	}
	if len(cat.Meta.Dimensions) == 0 {
		return errors.New("catalog has no dimensions")
	}
	ids := make(map[int]bool, len(cat.Questions))
	for _, q := range cat.Questions {
		if ids[q.ID] {
			return fmt.Errorf("duplicate question id %d", q.ID)
		}
		ids[q.ID] = true
	}

	owner := make(map[int]model.DimensionID, len(cat.Questions))
	for _, d := range cat.Meta.Dimensions {
		for _, qid := range d.Questions {
			if !ids[qid] {
				return fmt.Errorf("dimension %s references unknown question %d", d.ID, qid)
			}
			if prev, ok := owner[qid]; ok {
				return fmt.Errorf("question %d belongs to both %s and %s", qid, prev, d.ID)
			}
			owner[qid] = d.ID
		}
	}

	for _, q := range cat.Questions {
		dim, ok := owner[q.ID]
		if !ok {
			return fmt.Errorf("question %d is not listed in any dimension", q.ID)
		}
		if q.Dimension != "" && q.Dimension != dim {
			return fmt.Errorf("question %d declares dimension %s but is listed under %s", q.ID, q.Dimension, dim)
		}
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ConfigurationError{File: path, Reason: ReasonMissing, Err: err}
		}
		return &ConfigurationError{File: path, Reason: ReasonMalformed, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &ConfigurationError{File: path, Reason: ReasonMalformed, Err: err}
	}
	return nil
}
