package parser

import (
	"regexp"
	"strings"

	"WenyanScene-server/models"
)

var (
	questionBlock   = regexp.MustCompile(`【考题\d+】[\s\S]*?【答案\d+】`)
	questionPattern = regexp.MustCompile(`【考题\d+】([\s\S]*?)A\.([\s\S]*?)B\.([\s\S]*?)C\.([\s\S]*?)D\.([\s\S]*?)【答案\d+】\s*([A-D])`)
	punctuation     = regexp.MustCompile(`【句\d+待句读】([\s\S]*?)【翻译】`)
	examAnalysis    = regexp.MustCompile(`【考情分析】([^【]*)`)
)

// QuestionSet 单个重要句的练习内容
type QuestionSet struct {
	PunctuationExercise string
	Questions           []models.Question
	ExamAnalysis        string
}

// ValidQuestions 至少存在一个【考题n】…【答案n】块
func ValidQuestions(text string) bool {
	return questionBlock.MatchString(text)
}

// ParseQuestions 解析断句题、选择题与考情分析。没有任何完整选择题时返回 *Malformed。
func ParseQuestions(text string) (QuestionSet, error) {
	var set QuestionSet
	for _, m := range questionPattern.FindAllStringSubmatch(text, -1) {
		set.Questions = append(set.Questions, models.Question{
			Question: strings.TrimSpace(m[1]),
			Options: [4]string{
				strings.TrimSpace(m[2]),
				strings.TrimSpace(m[3]),
				strings.TrimSpace(m[4]),
				strings.TrimSpace(m[5]),
			},
			Answer: m[6],
		})
	}
	if len(set.Questions) == 0 {
		return set, malformed("question", "no complete 【考题n】 A-D 【答案n】 block")
	}
	if m := punctuation.FindStringSubmatch(text); m != nil {
		set.PunctuationExercise = strings.TrimSpace(m[1])
	}
	if m := examAnalysis.FindStringSubmatch(text); m != nil {
		set.ExamAnalysis = strings.TrimSpace(m[1])
	}
	return set, nil
}
