package service

import (
	"encoding/json"
	"fmt"
	"time"

	"WenyanScene-server/logger"

	"github.com/hibiken/asynq"
)

const (
	TypeProcessScenario = "scenario:process"
)

type ScenarioPayload struct {
	ScenarioID string `json:"scenario_id"`
	Text       string `json:"text"`
}

// Queue 把情境生成任务投递到 redis 队列，由 Processor 消费
type Queue struct {
	client  *asynq.Client
	timeout time.Duration
	log     *logger.Logger
}

func NewQueue(opt asynq.RedisClientOpt, taskTimeout time.Duration, log *logger.Logger) *Queue {
	return &Queue{
		client:  asynq.NewClient(opt),
		timeout: taskTimeout,
		log:     log,
	}
}

// NewScenarioTask 构造情境生成任务。流水线自行处理阶段内重试，队列层不再重试。
func NewScenarioTask(scenarioID, text string, timeout time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(ScenarioPayload{ScenarioID: scenarioID, Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal payload failed: %w", err)
	}
	return asynq.NewTask(TypeProcessScenario, payload,
		asynq.MaxRetry(0),
		asynq.Timeout(timeout),
		asynq.Retention(24*time.Hour),
	), nil
}

// StartPipeline 入队后立即返回，调用方通过情境记录轮询进度
func (q *Queue) StartPipeline(scenarioID, text string) error {
	task, err := NewScenarioTask(scenarioID, text, q.timeout)
	if err != nil {
		return err
	}
	info, err := q.client.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}
	q.log.Info("scenario enqueued", "scenario_id", scenarioID, "task_id", info.ID)
	return nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}
