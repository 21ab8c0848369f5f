package model

import "errors"

var (
	// ErrValidation 输入校验失败（空答案、分数越界、未知题目/模型）
	ErrValidation = errors.New("validation failed")
	// ErrRecordNotFound 指定 (question, model) 尚无答案，或题目/模型不存在
	ErrRecordNotFound = errors.New("record not found")
	// ErrMalformedStore 持久化文档存在但无法解析
	ErrMalformedStore = errors.New("malformed answer store")
)
