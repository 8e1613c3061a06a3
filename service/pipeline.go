package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"WenyanScene-server/corpus"
	"WenyanScene-server/llm"
	"WenyanScene-server/logger"
	"WenyanScene-server/media"
	"WenyanScene-server/models"
	"WenyanScene-server/parser"

	"gorm.io/gorm"
)

// 进度节点
const (
	progressGuide         = 10
	progressSentences     = 25
	progressCorrection    = 40
	progressQuestions     = 55
	questionBand          = 15
	progressQuestionsDone = 70
	progressImage         = 80
	progressVideo         = 85
	videoBand             = 10
)

const (
	stageGuide          = "正在生成阅读指南..."
	stageSentences      = "正在生成分句注释..."
	stageCorrection     = "正在检查和修正内容..."
	stageQuestions      = "正在生成练习题目..."
	stageImage          = "正在生成配图..."
	stageVideo          = "正在生成视频..."
	stageQuestionFormat = "正在为重要句 %d/%d 生成题目..."
	stageVideoFormat    = "正在生成视频... (%d/%d)"
)

// Corpus 参考语料查询
type Corpus interface {
	LookupDictionary(word string) (*corpus.DictionaryEntry, error)
	LookupKaodian(word string) (*corpus.KaodianEntry, error)
}

// MediaGenerator 配图与视频生成
type MediaGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
	GenerateVideo(ctx context.Context, prompt string, onTick media.TickFunc) (string, error)
}

// Mirror 把服务商返回的远程资源转存到自有对象存储，返回新的访问地址
type Mirror interface {
	Mirror(ctx context.Context, sourceURL, objectName string) (string, error)
}

type PipelineConfig struct {
	SystemPrompt string
	MaxAttempts  int
	// BackoffStep 仅用于推理模型分句阶段
	BackoffStep time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
}

// Orchestrator 串联各生成阶段，负责情境记录的生命周期
type Orchestrator struct {
	db     *gorm.DB
	llm    llm.Caller
	corpus Corpus
	media  MediaGenerator
	mirror Mirror
	cfg    PipelineConfig
	log    *logger.Logger
}

// NewOrchestrator mirror 可为 nil，此时直接保存服务商地址
func NewOrchestrator(db *gorm.DB, caller llm.Caller, c Corpus, m MediaGenerator, mirror Mirror, cfg PipelineConfig, log *logger.Logger) *Orchestrator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Orchestrator{db: db, llm: caller, corpus: c, media: m, mirror: mirror, cfg: cfg, log: log}
}

// run 单次流水线运行的全部可变状态
type run struct {
	scenarioID string
	text       string
	log        *logger.Logger
	progress   *Reporter

	guide     parser.Guide
	sentences []models.Sentence
	imageURL  string
	videoURL  string
}

// Run 执行完整的生成流程。前三个生成阶段或最终落库失败时，情境被置为 failed 并返回错误；
// 出题与媒体生成阶段的失败只记录日志。
func (o *Orchestrator) Run(ctx context.Context, scenarioID, text string) error {
	log := o.log.With("scenario_id", scenarioID)
	r := &run{
		scenarioID: scenarioID,
		text:       text,
		log:        log,
		progress:   NewReporter(o.db, scenarioID, log),
	}
	log.Info("pipeline started", "text_len", len([]rune(text)))

	if err := o.execute(ctx, r); err != nil {
		log.Error("pipeline failed", "error", err)
		r.progress.Fail(err)
		return err
	}
	log.Info("pipeline finished", "sentences", len(r.sentences), "has_image", r.imageURL != "", "has_video", r.videoURL != "")
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, r *run) error {
	if err := o.generateGuide(ctx, r); err != nil {
		return err
	}
	decomposition, err := o.generateSentences(ctx, r)
	if err != nil {
		return err
	}
	corrected, err := o.correctSentences(ctx, r, decomposition)
	if err != nil {
		return err
	}

	r.progress.Report(progressQuestions, stageQuestions)
	r.sentences, err = parser.ParseSentences(corrected)
	if err != nil {
		return &GenerationFailed{Stage: "correction", Attempts: o.cfg.MaxAttempts, Err: err}
	}
	o.enrich(r)
	o.generateQuestions(ctx, r)
	r.progress.Report(progressQuestionsDone, "")

	o.generateImage(ctx, r)
	o.generateVideo(ctx, r)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pipeline canceled: %w", err)
	}

	content := &models.ScenarioContent{
		ScenarioID:   r.scenarioID,
		ReadingGuide: r.guide.ReadingGuide,
		VideoPrompt:  r.guide.VideoPrompt,
		ImagePrompt:  r.guide.ImagePrompt,
		ImageURL:     r.imageURL,
		VideoURL:     r.videoURL,
		Sentences:    r.sentences,
	}
	return models.FinishScenario(o.db, content, r.guide.Poem)
}

func (o *Orchestrator) policy(stage string, backoff time.Duration) RetryPolicy {
	return RetryPolicy{Stage: stage, MaxAttempts: o.cfg.MaxAttempts, BackoffStep: backoff, Sleep: o.cfg.Sleep}
}

func (o *Orchestrator) call(backend llm.Backend, system, prompt string, log *logger.Logger, stage string) func(context.Context) (string, error) {
	attempt := 0
	return func(ctx context.Context) (string, error) {
		attempt++
		log.Debug("llm call", "stage", stage, "backend", backend, "attempt", attempt)
		text, err := o.llm.Call(ctx, backend, system, prompt)
		if err != nil {
			log.Warn("llm call failed", "stage", stage, "attempt", attempt, "error", err)
		}
		return text, err
	}
}

// 1. 阅前指南、视频/图像提示词与诗句
func (o *Orchestrator) generateGuide(ctx context.Context, r *run) error {
	r.progress.Report(progressGuide, stageGuide)
	text, err := WithRetry(ctx, o.policy("guide", 0),
		o.call(llm.Fast, o.cfg.SystemPrompt, guidePrompt(r.text), r.log, "guide"),
		parser.ValidGuide)
	if err != nil {
		return err
	}
	r.guide, err = parser.ParseGuide(text)
	if err != nil {
		return &GenerationFailed{Stage: "guide", Attempts: o.cfg.MaxAttempts, Err: err}
	}
	return nil
}

// 2. 推理模型逐句拆分
func (o *Orchestrator) generateSentences(ctx context.Context, r *run) (string, error) {
	r.progress.Report(progressSentences, stageSentences)
	return WithRetry(ctx, o.policy("sentences", o.cfg.BackoffStep),
		o.call(llm.Reasoning, sentenceSystemPrompt, sentencePrompt(r.text), r.log, "sentences"),
		parser.ValidSentences)
}

// 3. 校对：删去不重要的考点、修正事实错误
func (o *Orchestrator) correctSentences(ctx context.Context, r *run, decomposition string) (string, error) {
	r.progress.Report(progressCorrection, stageCorrection)
	return WithRetry(ctx, o.policy("correction", 0),
		o.call(llm.Fast, o.cfg.SystemPrompt, correctionPrompt(decomposition), r.log, "correction"),
		parser.ValidSentences)
}

// enrich 按考点首字查询字典与考点语料，查不到或读取失败都视为无参考
func (o *Orchestrator) enrich(r *run) {
	for i := range r.sentences {
		s := &r.sentences[i]
		for _, head := range parser.KeyPointHeads(s.KeyPoints) {
			if entry, err := o.corpus.LookupDictionary(head); err != nil {
				r.log.Warn("dictionary lookup failed", "word", head, "error", err)
			} else if entry != nil {
				s.DictionaryContext = append(s.DictionaryContext, *entry)
			}
			if entry, err := o.corpus.LookupKaodian(head); err != nil {
				r.log.Warn("kaodian lookup failed", "word", head, "error", err)
			} else if entry != nil {
				s.KaodianContext = append(s.KaodianContext, *entry)
			}
		}
	}
}

// 5. 按原文顺序为重要句逐句出题，单句失败不影响整体
func (o *Orchestrator) generateQuestions(ctx context.Context, r *run) {
	total := 0
	for _, s := range r.sentences {
		if s.IsImportant {
			total++
		}
	}
	done := 0
	for i := range r.sentences {
		s := &r.sentences[i]
		if !s.IsImportant {
			continue
		}
		done++
		r.progress.Report(progressQuestions+done*questionBand/total, fmt.Sprintf(stageQuestionFormat, done, total))

		stage := fmt.Sprintf("questions[%d]", i+1)
		text, err := WithRetry(ctx, o.policy(stage, 0),
			o.call(llm.Fast, o.cfg.SystemPrompt, questionPrompt(i+1, *s), r.log, stage),
			func(t string) bool {
				if !parser.ValidQuestions(t) {
					return false
				}
				_, perr := parser.ParseQuestions(t)
				return perr == nil
			})
		if err != nil {
			r.log.Warn("question generation failed", "sentence", i+1, "error", err)
			continue
		}
		set, err := parser.ParseQuestions(text)
		if err != nil {
			r.log.Warn("question parse failed", "sentence", i+1, "error", err)
			continue
		}
		s.PunctuationExercise = set.PunctuationExercise
		s.Questions = set.Questions
		s.ExamAnalysis = set.ExamAnalysis
	}
}

// 6. 配图，失败时不带图片继续
func (o *Orchestrator) generateImage(ctx context.Context, r *run) {
	r.progress.Report(progressImage, stageImage)
	url, err := o.media.GenerateImage(ctx, r.guide.ImagePrompt)
	if err != nil {
		r.log.Warn("image generation failed", "error", err)
		return
	}
	r.imageURL = o.mirrored(ctx, r, url, "image.png")
}

// 7. 视频，失败、取消或轮询超时时不带视频继续
func (o *Orchestrator) generateVideo(ctx context.Context, r *run) {
	r.progress.Report(progressVideo, stageVideo)
	onTick := func(attempt, max int) {
		r.progress.Report(progressVideo+attempt*videoBand/max, fmt.Sprintf(stageVideoFormat, attempt+1, max))
	}
	url, err := o.media.GenerateVideo(ctx, r.guide.VideoPrompt, onTick)
	if err != nil {
		r.log.Warn("video generation failed", "error", err)
		return
	}
	if url == "" {
		r.log.Warn("video generation produced no url")
		return
	}
	r.videoURL = o.mirrored(ctx, r, url, "video.mp4")
}

// mirrored 远程地址转存到对象存储；内联数据与转存失败时保留原地址
func (o *Orchestrator) mirrored(ctx context.Context, r *run, url, name string) string {
	if o.mirror == nil || !(strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")) {
		return url
	}
	objectName := fmt.Sprintf("scenarios/%s/%s", r.scenarioID, name)
	stored, err := o.mirror.Mirror(ctx, url, objectName)
	if err != nil {
		r.log.Warn("mirror media failed, keeping provider url", "object", objectName, "error", err)
		return url
	}
	return stored
}
