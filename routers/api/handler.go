package api

import (
	"time"

	"WenyanScene-server/corpus"
	"WenyanScene-server/logger"

	"gorm.io/gorm"
)

// Starter 触发情境生成流水线，立即返回
type Starter interface {
	StartPipeline(scenarioID, text string) error
}

// Corpus 词典与考点查询
type Corpus interface {
	LookupDictionary(word string) (*corpus.DictionaryEntry, error)
	LookupKaodian(word string) (*corpus.KaodianEntry, error)
}

// Handler 持有接口层依赖
type Handler struct {
	DB       *gorm.DB
	Pipeline Starter
	Corpus   Corpus
	Log      *logger.Logger

	// PushInterval websocket 轮询数据库的间隔
	PushInterval time.Duration
}
