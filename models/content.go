package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"WenyanScene-server/corpus"

	"gorm.io/gorm"
)

// ScenarioContent 情境生成完成后写入的内容，一个情境只写入一次
type ScenarioContent struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ScenarioID   string    `gorm:"type:varchar(64);uniqueIndex" json:"scenario_id"`
	ReadingGuide string    `gorm:"type:text" json:"reading_guide"`
	VideoPrompt  string    `gorm:"type:text" json:"video_prompt"`
	ImagePrompt  string    `gorm:"type:text" json:"image_prompt"`
	ImageURL     string    `gorm:"type:longtext" json:"image_url"`
	VideoURL     string    `gorm:"type:text" json:"video_url"`
	Sentences    Sentences `gorm:"type:json" json:"sentences"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ScenarioContent) TableName() string {
	return "scenario_content"
}

// Sentence 单句的翻译、注解、考点以及（重要句的）练习题
type Sentence struct {
	Sentence            string     `json:"sentence"`
	Translation         string     `json:"translation"`
	Annotation          string     `json:"annotation"`
	KeyPoints           string     `json:"keyPoints"`
	IsImportant         bool       `json:"isImportant"`
	PunctuationExercise string     `json:"punctuationExercise,omitempty"`
	Questions           []Question `json:"questions,omitempty"`
	ExamAnalysis        string     `json:"examAnalysis,omitempty"`

	// 仅在流水线运行期间使用，不落库
	DictionaryContext []corpus.DictionaryEntry `json:"-"`
	KaodianContext    []corpus.KaodianEntry    `json:"-"`
}

// Question 四选一选择题，Answer 为 A-D
type Question struct {
	Question string    `json:"question"`
	Options  [4]string `json:"options"`
	Answer   string    `json:"answer"`
}

// AnswerIndex 返回答案字母对应的选项下标，非法字母返回 -1
func (q Question) AnswerIndex() int {
	if len(q.Answer) != 1 || q.Answer[0] < 'A' || q.Answer[0] > 'D' {
		return -1
	}
	return int(q.Answer[0] - 'A')
}

type Sentences []Sentence

// 实现 driver.Valuer 接口: Go Struct -> JSON (存入数据库)
func (s Sentences) Value() (driver.Value, error) {
	if s == nil {
		s = Sentences{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// 实现 sql.Scanner 接口: JSON -> Go Struct (从数据库读取)
func (s *Sentences) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}
}

func createScenarioContent(db *gorm.DB, c *ScenarioContent) error {
	c.CreatedAt = time.Now()
	return db.Create(c).Error
}

func GetScenarioContent(db *gorm.DB, scenarioID string) (*ScenarioContent, error) {
	var c ScenarioContent
	if err := db.First(&c, "scenario_id = ?", scenarioID).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
