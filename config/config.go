package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// LLMBackendConfig 单个文本生成后端（fast / reasoning）的配置
type LLMBackendConfig struct {
	APIURL      string        `yaml:"api_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	MySQL struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`
	LLM struct {
		SystemPrompt string           `yaml:"system_prompt"`
		Fast         LLMBackendConfig `yaml:"fast"`
		Reasoning    LLMBackendConfig `yaml:"reasoning"`
	} `yaml:"llm"`
	Media struct {
		APIKey         string        `yaml:"api_key"`
		ImageAPI       string        `yaml:"image_api"`
		ImageModel     string        `yaml:"image_model"`
		ImageSize      string        `yaml:"image_size"`
		VideoAPI       string        `yaml:"video_api"`
		VideoStatus    string        `yaml:"video_status_api"`
		VideoModel     string        `yaml:"video_model"`
		Resolution     string        `yaml:"resolution"`
		Duration       int           `yaml:"duration"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"media"`
	Corpus struct {
		DictionaryPath string `yaml:"dictionary_path"`
		KaodianPath    string `yaml:"kaodian_path"`
	} `yaml:"corpus"`
	Pipeline struct {
		MaxAttempts     int           `yaml:"max_attempts"`
		BackoffStep     time.Duration `yaml:"backoff_step"`
		PollInterval    time.Duration `yaml:"poll_interval"`
		MaxPollAttempts int           `yaml:"max_poll_attempts"`
		Concurrency     int           `yaml:"concurrency"`
		TaskTimeout     time.Duration `yaml:"task_timeout"`
	} `yaml:"pipeline"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	MinIO struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"minio"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
}

var AppConfig *Config

// InitConfig 读取 .env 与 YAML 配置文件，填充默认值后写入 AppConfig
func InitConfig() {
	// .env 是可选的
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("配置文件加载失败: %v", err)
	}
	AppConfig = cfg
}

// Load 解析指定路径的配置文件
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg := &Config{}
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyEnv(cfg)
	cfg.Defaults()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.Fast.APIKey = v
		cfg.LLM.Reasoning.APIKey = v
	}
	if v := os.Getenv("MEDIA_API_KEY"); v != "" {
		cfg.Media.APIKey = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.MySQL.DSN = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
}

// Defaults 为未配置的字段填充默认值
func (c *Config) Defaults() {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.LLM.SystemPrompt == "" {
		c.LLM.SystemPrompt = "你是一名出色的高中语文老师，请你按照指定的结构输出内容。"
	}
	if c.LLM.Fast.Model == "" {
		c.LLM.Fast.Model = "ecnu-max"
	}
	if c.LLM.Reasoning.Model == "" {
		c.LLM.Reasoning.Model = "ecnu-reasoner"
	}
	if c.LLM.Reasoning.MaxTokens == 0 {
		c.LLM.Reasoning.MaxTokens = 8192
	}
	if c.LLM.Reasoning.Temperature == 0 {
		c.LLM.Reasoning.Temperature = 0.7
	}
	if c.LLM.Reasoning.APIURL == "" {
		c.LLM.Reasoning.APIURL = c.LLM.Fast.APIURL
	}
	if c.LLM.Reasoning.APIKey == "" {
		c.LLM.Reasoning.APIKey = c.LLM.Fast.APIKey
	}
	if c.LLM.Fast.Timeout == 0 {
		c.LLM.Fast.Timeout = 10 * time.Minute
	}
	if c.LLM.Reasoning.Timeout == 0 {
		c.LLM.Reasoning.Timeout = 10 * time.Minute
	}

	if c.Media.ImageModel == "" {
		c.Media.ImageModel = "flux-1-schnell"
	}
	if c.Media.ImageSize == "" {
		c.Media.ImageSize = "1024x1024"
	}
	if c.Media.VideoModel == "" {
		c.Media.VideoModel = "CogVideoX-5b"
	}
	if c.Media.Resolution == "" {
		c.Media.Resolution = "720p"
	}
	if c.Media.Duration == 0 {
		c.Media.Duration = 10
	}
	if c.Media.RequestTimeout == 0 {
		c.Media.RequestTimeout = 2 * time.Minute
	}

	if c.Corpus.DictionaryPath == "" {
		c.Corpus.DictionaryPath = "data/dictionary.json"
	}
	if c.Corpus.KaodianPath == "" {
		c.Corpus.KaodianPath = "data/kaodian.json"
	}

	if c.Pipeline.MaxAttempts == 0 {
		c.Pipeline.MaxAttempts = 3
	}
	if c.Pipeline.BackoffStep == 0 {
		c.Pipeline.BackoffStep = 2 * time.Second
	}
	if c.Pipeline.PollInterval == 0 {
		c.Pipeline.PollInterval = 10 * time.Second
	}
	if c.Pipeline.MaxPollAttempts == 0 {
		c.Pipeline.MaxPollAttempts = 40
	}
	if c.Pipeline.Concurrency == 0 {
		c.Pipeline.Concurrency = 5
	}
	if c.Pipeline.TaskTimeout == 0 {
		c.Pipeline.TaskTimeout = c.requiredStagesBudget() + questionMediaAllowance
	}
	if c.MinIO.Bucket == "" {
		c.MinIO.Bucket = "scenarios"
	}
	if c.Log.Mode == "" {
		c.Log.Mode = "dev"
	}
}

// 出题与媒体阶段的时长随重要句数量变化，按固定余量计入任务超时
const questionMediaAllowance = 2 * time.Hour

// requiredStagesBudget 前三个阶段在全部重试用尽时的最长耗时，含推理模型退避
func (c *Config) requiredStagesBudget() time.Duration {
	slowest := c.LLM.Fast.Timeout
	if c.LLM.Reasoning.Timeout > slowest {
		slowest = c.LLM.Reasoning.Timeout
	}
	attempts := time.Duration(c.Pipeline.MaxAttempts)
	backoff := c.Pipeline.BackoffStep * attempts * (attempts - 1) / 2
	return 3*attempts*slowest + backoff
}
