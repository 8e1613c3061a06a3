package parser

import (
	"encoding/json"
	"strings"
)

// Guide 阅前指南阶段的输出：阅读指南、视频提示词、图像提示词和诗句
type Guide struct {
	ReadingGuide string `json:"阅前指南"`
	VideoPrompt  string `json:"视频"`
	ImagePrompt  string `json:"图像"`
	Poem         string `json:"诗句"`
}

// ParseGuide 解析四个键都存在且取值非空的 JSON 对象。
// 非字符串取值会被转成文本：字符串数组按"，"拼接，其余类型保留 JSON 原文。
func ParseGuide(text string) (Guide, error) {
	var g Guide
	body := StripFence(text)
	if body == "" {
		return g, malformed("guide", "empty response")
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return g, malformed("guide", "invalid json: %v", err)
	}

	missing := []string{}
	field := func(key string) string {
		v := guideValue(raw[key])
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	g.ReadingGuide = field("阅前指南")
	g.VideoPrompt = field("视频")
	g.ImagePrompt = field("图像")
	g.Poem = field("诗句")
	if len(missing) > 0 {
		return g, malformed("guide", "missing keys %s", strings.Join(missing, ","))
	}
	return g, nil
}

// guideValue 空值、null、false、0 与空容器都视为缺失
func guideValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := list[:0]
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				parts = append(parts, item)
			}
		}
		return strings.Join(parts, "，")
	}
	switch v := strings.TrimSpace(string(raw)); v {
	case "", "null", "false", "0", "[]", "{}":
		return ""
	default:
		return v
	}
}

func ValidGuide(text string) bool {
	_, err := ParseGuide(text)
	return err == nil
}
