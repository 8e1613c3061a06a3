package parser

import (
	"regexp"
	"strings"

	"WenyanScene-server/models"
)

var (
	sentenceMarker = regexp.MustCompile(`【句\d+】`)
	sentenceBody   = regexp.MustCompile(`^([\s\S]*?)【翻译】([\s\S]*?)【注解】([\s\S]*?)【考点】([\s\S]*)$`)
	keyPointIndex  = regexp.MustCompile(`\d+、`)
	keyPointTerm   = regexp.MustCompile(`\d+、([^：]+)：[^；]+`)
)

// sentenceBlocks 按【句n】切分文本，返回每块【句n】之后的内容
func sentenceBlocks(text string) []string {
	locs := sentenceMarker.FindAllStringIndex(text, -1)
	blocks := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, text[loc[1]:end])
	}
	return blocks
}

// ValidSentences 至少存在一个完整的【句n】【翻译】【注解】【考点】块
func ValidSentences(text string) bool {
	for _, block := range sentenceBlocks(text) {
		if sentenceBody.MatchString(block) {
			return true
		}
	}
	return false
}

// ParseSentences 按原文顺序解析每个完整的句块，缺少标签的残缺块被跳过。
// 返回的句子尚未做语料补充，也没有题目。
func ParseSentences(text string) ([]models.Sentence, error) {
	var out []models.Sentence
	for _, block := range sentenceBlocks(text) {
		m := sentenceBody.FindStringSubmatch(block)
		if m == nil {
			continue
		}
		sentence := strings.TrimSpace(m[1])
		if sentence == "" {
			continue
		}
		keyPoints := strings.TrimSpace(m[4])
		out = append(out, models.Sentence{
			Sentence:    sentence,
			Translation: strings.TrimSpace(m[2]),
			Annotation:  strings.TrimSpace(m[3]),
			KeyPoints:   keyPoints,
			IsImportant: KeyPointCount(keyPoints) > 1,
		})
	}
	if len(out) == 0 {
		return nil, malformed("sentence", "no complete 【句n】 block")
	}
	return out, nil
}

func noKeyPoints(keyPoints string) bool {
	s := strings.TrimSpace(keyPoints)
	return s == "" || s == "无" || strings.EqualFold(s, "none")
}

// KeyPointCount 统计“N、”形式的考点编号个数，“无”记为 0
func KeyPointCount(keyPoints string) int {
	if noKeyPoints(keyPoints) {
		return 0
	}
	return len(keyPointIndex.FindAllString(keyPoints, -1))
}

// KeyPointHeads 提取每个“N、词：释义；”考点中词的第一个字，用于按单字查询语料
func KeyPointHeads(keyPoints string) []string {
	if noKeyPoints(keyPoints) {
		return nil
	}
	var heads []string
	for _, m := range keyPointTerm.FindAllStringSubmatch(keyPoints, -1) {
		term := []rune(strings.TrimSpace(m[1]))
		if len(term) == 0 {
			continue
		}
		heads = append(heads, string(term[0]))
	}
	return heads
}
