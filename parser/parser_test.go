package parser

import (
	"errors"
	"strings"
	"testing"
)

const guideJSON = `{"阅前指南":"北朝名将傅良弼的故事。","视频":"Hand-drawn Chinese anime style, an archer ...","图像":"A standalone pixel-art illustration of a bow ...","诗句":"雕弓"}`

func TestStripFence(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
		"```":                     "```",
		"```json only prefix":     "```json only prefix",
	}
	for in, want := range cases {
		if got := StripFence(in); got != want {
			t.Fatalf("StripFence(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestValidGuideAcceptsFencedAndBarePayloads(t *testing.T) {
	for _, text := range []string{guideJSON, "```json\n" + guideJSON + "\n```", "```\n" + guideJSON + "\n```"} {
		if !ValidGuide(text) {
			t.Fatalf("ValidGuide rejected %q", text)
		}
	}
	g, err := ParseGuide("```json\n" + guideJSON + "\n```")
	if err != nil {
		t.Fatalf("ParseGuide: %v", err)
	}
	if g.Poem != "雕弓" || !strings.HasPrefix(g.ImagePrompt, "A standalone") {
		t.Fatalf("unexpected guide: %+v", g)
	}
}

func TestValidGuideRejectsMissingKeys(t *testing.T) {
	for _, key := range []string{"阅前指南", "视频", "图像", "诗句"} {
		text := strings.Replace(guideJSON, `"`+key+`"`, `"其他"`, 1)
		if ValidGuide(text) {
			t.Fatalf("ValidGuide accepted payload missing %s", key)
		}
		_, err := ParseGuide(text)
		var m *Malformed
		if !errors.As(err, &m) || !strings.Contains(m.Reason, key) {
			t.Fatalf("ParseGuide missing %s: got %v", key, err)
		}
	}
	for _, text := range []string{"", "not json", `{"阅前指南":"x"`, "```json\n```"} {
		if ValidGuide(text) {
			t.Fatalf("ValidGuide accepted %q", text)
		}
	}
}

func TestParseGuideCoercesNonStringValues(t *testing.T) {
	g, err := ParseGuide(`{"阅前指南":"a","视频":"b","图像":"c","诗句":["雕弓"," 满月 "]}`)
	if err != nil {
		t.Fatalf("ParseGuide: %v", err)
	}
	if g.Poem != "雕弓，满月" || g.ReadingGuide != "a" {
		t.Fatalf("unexpected guide: %+v", g)
	}
	if g, err := ParseGuide(`{"阅前指南":"a","视频":"b","图像":"c","诗句":7}`); err != nil || g.Poem != "7" {
		t.Fatalf("numeric value: %+v err=%v", g, err)
	}
	for _, v := range []string{`null`, `""`, `[]`, `false`, `{}`} {
		if ValidGuide(`{"阅前指南":"a","视频":"b","图像":"c","诗句":` + v + `}`) {
			t.Fatalf("ValidGuide accepted empty value %s", v)
		}
	}
}

const decomposition = `【句1】傅良弼，字安道，清河人也。
【翻译】傅良弼，字安道，是清河地人。
【注解】1、清河：清河县，隶属河北省邢台市，古称青阳。
【考点】无

【句2】以善弓矢显。
【翻译】（傅良弼）凭借擅长射箭出名。
【注解】无
【考点】1、以：凭借；2、显：出名。

【句3】尝从军出塞。
【翻译】曾经跟随军队出塞。
【注解】无
【考点】1、尝：曾经。`

func TestParseSentencesKeepsSourceOrder(t *testing.T) {
	if !ValidSentences(decomposition) {
		t.Fatalf("ValidSentences rejected decomposition")
	}
	got, err := ParseSentences(decomposition)
	if err != nil {
		t.Fatalf("ParseSentences: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("sentences: want=3 got=%d", len(got))
	}
	wantSentences := []string{"傅良弼，字安道，清河人也。", "以善弓矢显。", "尝从军出塞。"}
	for i, s := range got {
		if s.Sentence != wantSentences[i] {
			t.Fatalf("sentence %d: want=%q got=%q", i, wantSentences[i], s.Sentence)
		}
	}
	if got[0].IsImportant || !got[1].IsImportant || got[2].IsImportant {
		t.Fatalf("isImportant: got %v %v %v", got[0].IsImportant, got[1].IsImportant, got[2].IsImportant)
	}
	if got[1].KeyPoints != "1、以：凭借；2、显：出名。" || got[1].Translation != "（傅良弼）凭借擅长射箭出名。" {
		t.Fatalf("unexpected second sentence: %+v", got[1])
	}
}

func TestParseSentencesToleratesTrailingPartialBlock(t *testing.T) {
	text := decomposition + "\n\n【句4】未完"
	got, err := ParseSentences(text)
	if err != nil {
		t.Fatalf("ParseSentences: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("sentences: want=3 got=%d", len(got))
	}
}

func TestParseSentencesRejectsUnstructuredText(t *testing.T) {
	for _, text := range []string{"", "好的，以下是结果：傅良弼……", "【句1】只有句子【翻译】没有后续"} {
		if ValidSentences(text) {
			t.Fatalf("ValidSentences accepted %q", text)
		}
		if _, err := ParseSentences(text); err == nil {
			t.Fatalf("ParseSentences(%q): expected error", text)
		}
	}
}

func TestParseSentencesStripsPreamble(t *testing.T) {
	got, err := ParseSentences("以下是修改后的结果：\n" + decomposition)
	if err != nil {
		t.Fatalf("ParseSentences: %v", err)
	}
	if got[0].Sentence != "傅良弼，字安道，清河人也。" {
		t.Fatalf("preamble leaked into first sentence: %q", got[0].Sentence)
	}
}

func TestKeyPointCountAndHeads(t *testing.T) {
	cases := []struct {
		in        string
		count     int
		heads     []string
		important bool
	}{
		{"无", 0, nil, false},
		{"none", 0, nil, false},
		{"", 0, nil, false},
		{"1、尝：曾经。", 1, []string{"尝"}, false},
		{"1、以：凭借；2、显：出名。", 2, []string{"以", "显"}, true},
		{"1、从军：参军；2、塞：边塞；3、善：擅长。", 3, []string{"从", "塞", "善"}, true},
	}
	for _, tc := range cases {
		if got := KeyPointCount(tc.in); got != tc.count {
			t.Fatalf("KeyPointCount(%q): want=%d got=%d", tc.in, tc.count, got)
		}
		heads := KeyPointHeads(tc.in)
		if len(heads) != len(tc.heads) {
			t.Fatalf("KeyPointHeads(%q): want=%v got=%v", tc.in, tc.heads, heads)
		}
		for i := range heads {
			if heads[i] != tc.heads[i] {
				t.Fatalf("KeyPointHeads(%q): want=%v got=%v", tc.in, tc.heads, heads)
			}
		}
		if (tc.count > 1) != tc.important {
			t.Fatalf("importance rule mismatch for %q", tc.in)
		}
	}
}

const questionResponse = `【句2】以善弓矢显。
【句2待句读】以善弓矢显
【翻译】（傅良弼）凭借擅长射箭出名。
【注解】无
【考题1】该句中，"以"的意思是？
A.凭借
B.说明
C.明天
D.天气
【答案1】A
【考题2】该句中，"显"的意思是？
A.出名
B.名气
C.知道
D.显现
【答案2】A
【考情分析】“以”字在近五年高考模考中，出现了10次。`

func TestParseQuestions(t *testing.T) {
	if !ValidQuestions(questionResponse) {
		t.Fatalf("ValidQuestions rejected response")
	}
	set, err := ParseQuestions(questionResponse)
	if err != nil {
		t.Fatalf("ParseQuestions: %v", err)
	}
	if len(set.Questions) != 2 {
		t.Fatalf("questions: want=2 got=%d", len(set.Questions))
	}
	q := set.Questions[1]
	if q.Question != `该句中，"显"的意思是？` || q.Options != [4]string{"出名", "名气", "知道", "显现"} || q.Answer != "A" {
		t.Fatalf("unexpected question: %+v", q)
	}
	for _, q := range set.Questions {
		if idx := q.AnswerIndex(); idx < 0 || idx > 3 {
			t.Fatalf("answer out of range: %+v", q)
		}
	}
	if set.PunctuationExercise != "以善弓矢显" {
		t.Fatalf("punctuation exercise: got %q", set.PunctuationExercise)
	}
	if set.ExamAnalysis != "“以”字在近五年高考模考中，出现了10次。" {
		t.Fatalf("exam analysis: got %q", set.ExamAnalysis)
	}
}

func TestParseQuestionsWithoutOptionalSections(t *testing.T) {
	text := "【考题1】“尝”的意思是？\nA.曾经\nB.品尝\nC.尝试\nD.常常\n【答案1】A"
	set, err := ParseQuestions(text)
	if err != nil {
		t.Fatalf("ParseQuestions: %v", err)
	}
	if set.PunctuationExercise != "" || set.ExamAnalysis != "" {
		t.Fatalf("optional sections should be empty: %+v", set)
	}
}

func TestParseQuestionsRejectsIncompleteBlocks(t *testing.T) {
	text := "【考题1】“尝”的意思是？\n【答案1】A"
	if !ValidQuestions(text) {
		t.Fatalf("structural validator should accept label pair")
	}
	if _, err := ParseQuestions(text); err == nil {
		t.Fatalf("ParseQuestions: expected error without options")
	}
	if ValidQuestions("没有题目") {
		t.Fatalf("ValidQuestions accepted text without labels")
	}
}
