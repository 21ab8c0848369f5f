// Package handler 提供 HTTP 处理器
package handler

import (
	"github.com/ashwinyue/next-eval/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	System  *SystemHandler
	Catalog *CatalogHandler
	Answer  *AnswerHandler
	Report  *ReportHandler
	Export  *ExportHandler
	Admin   *AdminHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		System:  NewSystemHandler(svc),
		Catalog: NewCatalogHandler(svc.Evaluation),
		Answer:  NewAnswerHandler(svc.Evaluation),
		Report:  NewReportHandler(svc.Evaluation),
		Export:  NewExportHandler(svc.Evaluation),
		Admin:   NewAdminHandler(svc.Evaluation),
	}
}
