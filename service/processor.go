package service

import (
	"context"
	"encoding/json"
	"fmt"

	"WenyanScene-server/logger"

	"github.com/hibiken/asynq"
)

// Runner 执行一次情境生成
type Runner interface {
	Run(ctx context.Context, scenarioID, text string) error
}

// Processor 消费队列中的情境生成任务
type Processor struct {
	runner Runner
	log    *logger.Logger
	srv    *asynq.Server
}

func NewProcessor(runner Runner, log *logger.Logger) *Processor {
	return &Processor{runner: runner, log: log}
}

// StartProcessor 启动任务消费者，concurrency 为同时运行的情境数
func (p *Processor) StartProcessor(opt asynq.RedisClientOpt, concurrency int) {
	p.srv = asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"default": 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeProcessScenario, p.HandleProcessScenario)

	p.log.Info("starting scenario processor", "concurrency", concurrency)
	go func() {
		if err := p.srv.Run(mux); err != nil {
			p.log.Fatal("could not run processor", "error", err)
		}
	}()
}

func (p *Processor) Shutdown() {
	if p.srv != nil {
		p.srv.Shutdown()
	}
}

// HandleProcessScenario 失败状态已由流水线写回情境记录，这里返回 SkipRetry 避免重复执行
func (p *Processor) HandleProcessScenario(ctx context.Context, t *asynq.Task) error {
	var payload ScenarioPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if payload.ScenarioID == "" {
		return fmt.Errorf("payload missing scenario_id: %w", asynq.SkipRetry)
	}

	p.log.Info("processing scenario", "scenario_id", payload.ScenarioID)
	if err := p.runner.Run(ctx, payload.ScenarioID, payload.Text); err != nil {
		return fmt.Errorf("scenario %s: %v: %w", payload.ScenarioID, err, asynq.SkipRetry)
	}
	return nil
}
