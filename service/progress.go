package service

import (
	"strings"

	"WenyanScene-server/logger"
	"WenyanScene-server/models"

	"gorm.io/gorm"
)

// Reporter 把单次流水线运行的进度写回情境记录。
// 写入失败只记录日志，不影响流水线继续执行。
type Reporter struct {
	db         *gorm.DB
	scenarioID string
	log        *logger.Logger
	current    int
}

func NewReporter(db *gorm.DB, scenarioID string, log *logger.Logger) *Reporter {
	return &Reporter{db: db, scenarioID: scenarioID, log: log}
}

// Report 写入进度与阶段描述，低于当前进度的写入会被忽略；stage 为空时只更新进度
func (r *Reporter) Report(progress int, stage string) {
	if progress < r.current {
		return
	}
	ok, err := models.UpdateScenarioProgress(r.db, r.scenarioID, progress, stage)
	if err != nil {
		r.log.Warn("update progress failed", "progress", progress, "stage", stage, "error", err)
		return
	}
	if ok {
		r.current = progress
	}
	r.log.Debug("progress", "progress", progress, "stage", stage)
}

// Current 最近一次成功写入的进度
func (r *Reporter) Current() int {
	return r.current
}

// Fail 将情境置为失败。写入失败状态本身出错时仅记录日志，调用方仍返回原始错误。
func (r *Reporter) Fail(cause error) {
	msg := "处理失败: " + strings.ToValidUTF8(cause.Error(), "\uFFFD")
	if err := models.MarkScenarioFailed(r.db, r.scenarioID, msg); err != nil {
		r.log.Error("mark scenario failed", "error", err, "cause", cause)
		return
	}
	r.current = 0
}
