// Package model 提供模型相关的数据模型
package model

// Model 参评的大语言模型
type Model struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
	URL  string `json:"url"`
}

// Registry 模型注册表（models.json）
type Registry struct {
	Models []Model `json:"models"`
}

// Get 按 ID 查找模型
func (r *Registry) Get(id string) (*Model, bool) {
	for i := range r.Models {
		if r.Models[i].ID == id {
			return &r.Models[i], true
		}
	}
	return nil, false
}

// Has 模型是否已注册
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}
