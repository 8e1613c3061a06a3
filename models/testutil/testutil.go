package testutil

import (
	"fmt"
	"strings"
	"testing"

	"WenyanScene-server/logger"
	"WenyanScene-server/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB 打开一个仅供当前测试使用的内存 SQLite 数据库并完成建表
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("logger.New: %v", err)
	}
	return log
}

// Scenario 插入一条处理中的情境记录
func Scenario(tb testing.TB, db *gorm.DB, text string) *models.Scenario {
	tb.Helper()
	s := &models.Scenario{
		ID:           uuid.NewString(),
		UserID:       "user-1",
		Title:        "test",
		OriginalText: text,
		Status:       models.ScenarioStatusProcessing,
	}
	if err := models.CreateScenario(db, s); err != nil {
		tb.Fatalf("CreateScenario: %v", err)
	}
	return s
}
