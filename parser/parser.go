// Package parser 把模型按【标签】约定输出的半结构化文本解析为结构化记录。
//
// Valid* 系列函数只做结构校验，供重试控制器判断是否接受一次输出；
// Parse* 系列函数在结构不满足时返回 *Malformed，而不是 panic 或静默返回零值。
package parser

import (
	"fmt"
	"strings"
)

// Malformed 表示模型输出不满足约定格式
type Malformed struct {
	Kind   string
	Reason string
}

func (e *Malformed) Error() string {
	return fmt.Sprintf("malformed %s output: %s", e.Kind, e.Reason)
}

func malformed(kind, format string, args ...interface{}) error {
	return &Malformed{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// StripFence 去掉包裹在整段输出外层的 ```json ... ``` 或 ``` ... ``` 代码块标记
func StripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasSuffix(s, "```") {
		return s
	}
	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json") : len(s)-3]
	case strings.HasPrefix(s, "```") && len(s) >= 6:
		s = s[3 : len(s)-3]
	default:
		return s
	}
	return strings.TrimSpace(s)
}
