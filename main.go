package main

import (
	"log"

	"WenyanScene-server/config"
	"WenyanScene-server/corpus"
	"WenyanScene-server/llm"
	"WenyanScene-server/logger"
	"WenyanScene-server/media"
	"WenyanScene-server/models"
	"WenyanScene-server/routers"
	"WenyanScene-server/routers/api"
	"WenyanScene-server/service"

	"github.com/hibiken/asynq"
)

func main() {
	config.InitConfig()
	cfg := config.AppConfig

	appLog, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer appLog.Sync()
	appLog.Info("server starting", "port", cfg.Server.Port)

	models.InitDB()
	appLog.Info("database initialized")

	lookup := corpus.New(cfg.Corpus.DictionaryPath, cfg.Corpus.KaodianPath)
	llmClient := llm.NewClient(cfg.LLM.Fast, cfg.LLM.Reasoning)
	mediaClient := media.NewClient(media.Config{
		APIKey:          cfg.Media.APIKey,
		ImageAPI:        cfg.Media.ImageAPI,
		ImageModel:      cfg.Media.ImageModel,
		ImageSize:       cfg.Media.ImageSize,
		VideoAPI:        cfg.Media.VideoAPI,
		VideoStatusAPI:  cfg.Media.VideoStatus,
		VideoModel:      cfg.Media.VideoModel,
		Resolution:      cfg.Media.Resolution,
		Duration:        cfg.Media.Duration,
		RequestTimeout:  cfg.Media.RequestTimeout,
		PollInterval:    cfg.Pipeline.PollInterval,
		MaxPollAttempts: cfg.Pipeline.MaxPollAttempts,
	}, appLog)

	// 未配置 MinIO 时直接保存服务商地址
	var mirror service.Mirror
	if cfg.MinIO.Endpoint != "" {
		m, err := service.NewMinioMirror(service.MinioConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		}, appLog)
		if err != nil {
			appLog.Fatal("minio init failed", "error", err)
		}
		mirror = m
		appLog.Info("minio initialized", "endpoint", cfg.MinIO.Endpoint)
	}

	orchestrator := service.NewOrchestrator(models.GormDB, llmClient, lookup, mediaClient, mirror, service.PipelineConfig{
		SystemPrompt: cfg.LLM.SystemPrompt,
		MaxAttempts:  cfg.Pipeline.MaxAttempts,
		BackoffStep:  cfg.Pipeline.BackoffStep,
	}, appLog)

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password}
	queue := service.NewQueue(redisOpt, cfg.Pipeline.TaskTimeout, appLog)
	defer queue.Close()
	appLog.Info("queue initialized", "redis", cfg.Redis.Addr)

	processor := service.NewProcessor(orchestrator, appLog)
	processor.StartProcessor(redisOpt, cfg.Pipeline.Concurrency)
	defer processor.Shutdown()

	r := routers.InitRouter(&api.Handler{
		DB:       models.GormDB,
		Pipeline: queue,
		Corpus:   lookup,
		Log:      appLog,
	})
	if err := r.Run(cfg.Server.Port); err != nil {
		appLog.Error("server stopped", "error", err)
	}
}
