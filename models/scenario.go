package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// 学习情境状态
const (
	ScenarioStatusProcessing = "processing" // 生成流水线执行中
	ScenarioStatusReady      = "ready"      // 内容已生成，可进入学习流程
	ScenarioStatusCompleted  = "completed"  // 用户已完成学习（由前端驱动，流水线不写入）
	ScenarioStatusFailed     = "failed"     // 生成失败
)

const (
	StageDone   = "处理完成！"
	StageFailed = "处理失败"
)

type Scenario struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID       string    `gorm:"type:varchar(64);index" json:"user_id"`
	Title        string    `json:"title"`
	OriginalText string    `gorm:"type:text" json:"original_text"`
	Status       string    `gorm:"type:varchar(32);index" json:"status"`
	Progress     int       `json:"progress"`
	Stage        string    `json:"stage"`
	ErrorMessage string    `gorm:"type:text" json:"error_message"`
	Poem         string    `json:"poem"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Scenario) TableName() string {
	return "learning_scenarios"
}

// PersistenceError 写入情境记录或内容失败
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

var ErrScenarioNotFound = errors.New("scenario not found")

func CreateScenario(db *gorm.DB, s *Scenario) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.Status == "" {
		s.Status = ScenarioStatusProcessing
	}
	if err := db.Create(s).Error; err != nil {
		return &PersistenceError{Op: "create scenario", Err: err}
	}
	return nil
}

func GetScenarioByID(db *gorm.DB, id string) (*Scenario, error) {
	var s Scenario
	if err := db.First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScenarioNotFound
		}
		return nil, err
	}
	return &s, nil
}

// UpdateScenarioProgress 写入进度与阶段描述。
// 只有处于 processing 且当前进度不高于新进度的记录会被更新，返回是否实际写入。
func UpdateScenarioProgress(db *gorm.DB, id string, progress int, stage string) (bool, error) {
	updates := map[string]interface{}{
		"progress":   progress,
		"updated_at": time.Now(),
	}
	if stage != "" {
		updates["stage"] = stage
	}
	res := db.Model(&Scenario{}).
		Where("id = ? AND status = ? AND progress <= ?", id, ScenarioStatusProcessing, progress).
		Updates(updates)
	if res.Error != nil {
		return false, &PersistenceError{Op: "update progress", Err: res.Error}
	}
	return res.RowsAffected > 0, nil
}

// MarkScenarioFailed 将情境置为失败并重置进度
func MarkScenarioFailed(db *gorm.DB, id string, message string) error {
	err := db.Model(&Scenario{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        ScenarioStatusFailed,
		"progress":      0,
		"stage":         StageFailed,
		"error_message": message,
		"updated_at":    time.Now(),
	}).Error
	if err != nil {
		return &PersistenceError{Op: "mark failed", Err: err}
	}
	return nil
}

// FinishScenario 在同一事务中写入生成内容并将情境置为 ready
func FinishScenario(db *gorm.DB, content *ScenarioContent, poem string) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := createScenarioContent(tx, content); err != nil {
			return err
		}
		return tx.Model(&Scenario{}).Where("id = ?", content.ScenarioID).Updates(map[string]interface{}{
			"status":     ScenarioStatusReady,
			"progress":   100,
			"stage":      StageDone,
			"poem":       poem,
			"updated_at": time.Now(),
		}).Error
	})
	if err != nil {
		return &PersistenceError{Op: "finish scenario", Err: err}
	}
	return nil
}
