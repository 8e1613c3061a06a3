package service

import (
	"fmt"
	"strings"

	"WenyanScene-server/models"
)

const sentenceSystemPrompt = "你的待处理文本是："

const guidePromptTmpl = `你擅长阅读文言文。请你根据以下文言文，以json结构生成{阅前指南}{视频}{图像}{诗句}。

{阅前指南}，是围绕这段文言文的一段简要的阅前指南，包括这篇文言文简要的时代背景（假设有的话）和内容概括（以一种比较引人入胜的话语）要求：简洁、不"剧透"过多原文细节。
{视频}请你帮我生成用于清影ai的【英文】提示词
要求：如果给到一整篇文言文，包含多个差异较大的画面内容，请选择最具有代表性的一个画面；尽量简洁精炼，篇幅短，一定不超过1000个字母（重要！！请反复确认）；视频内容要准确，不能误读文言文；画面涵盖重点细节；人物（假如有的话）眼神、动作自然流畅，不过度夸张；人物特征和人物关系符合原文（假如有的话）；符合古代背景下的逻辑；画面动态变化显著，有一定的运镜；有助于高中生感知文言文情境。手绘、漫画，Hand-drawn Chinese Anime Style, completely non-realistic. Close-up shot.
{图像}请你根据这个文言文内容，挑选一个和内容息息相关的某个【物件（或者任意形象）】，并且填空以下的[ITEM]，其他原样输出给我：A standalone pixel-art illustration of [ITEM], rendered in a highly stylized/exaggerated/whimsical/elegant (choose one) way. Crisp pixel detailing with randomized vibrant colors. No background, no text—pure isolated object with clear outlines. 1:1 aspect ratio.
{诗句}是围绕刚刚选择的【物件】，挑选出合适的【博物词汇】来表示这个物件（如，斑鸠，二-七个字都可以）。
注意，一定要遵循以上的指令。然后输出的例子要符合json格式。
{
"阅前指南": "xxx",
"视频": "xxx",
"图像": "xxx",
"诗句": "xxx"
}
不要再输出任何任何其他的话！！！以下是你的待处理文本：

%s`

const sentencePromptTmpl = `你是高中语文老师，请按照标点符号拆分句子（以句号、问号、感叹号为一句的单位），然后逐句处理以下文言文，拆分每句话【句n】，给出对应文言文句子的【翻译】【注解】【考点】。
【句n】以“。”、“！”、“？”，或者后引号为单位，逐句处理。
【翻译】1、请忠实原文直译，2、当且仅当省略主语、宾语或者状语（以/于，等）的时候，需要以括号表示出。
【注解】是该句中直接提供给学生阅读、不需要考察的、比较复杂的专业术语。一般是地理名词、文化典故等（并非是解释字词意思，而是如“庆父不死”这种比较难的典故术语）；
【考点】是该句中高中生来说需要掌握、被考察的字，仅仅包含以下几类：1、高考难度重要的实词、虚词（以单音字为主，直接按照以下例子，给出答案就好了，不要额外标注是什么词性）；2、通假字、词类活用需要额外标出。如果不存在的话，直接说“无”。

===注意：1、一定要忠实我给你的原文，不允许任何对原文的修改；
2、注意对象是高中生难度，只要关注最重要的字词就好了，如果一句话很简单，那么【注解】和【考点】都不需要标注，直接说“无”即可。
3、参考以下例子，按照例子的结构输出给我。不要再说任何任何的话了。
4、总之，务必保证你的思考简单、但是更重要的是，一定要保证答案准确。
===以下是一个示例。
你的输入待处理文本是："傅良弼，字安道，清河人也。以善弓矢显。"输出应该是：
【句1】傅良弼，字安道，清河人也。
【翻译】傅良弼，字安道，是清河地人。
【注解】1、清河：清河县，隶属河北省邢台市，古称青阳。
【考点】无

【句2】以善弓矢显。
【翻译】（傅良弼）凭借擅长射箭出名。
【注解】无
【考点】1、以：凭借；2、显：出名。

注意，注意，请你一定要严格按照示例结构输出，不要说任何多余的话。


%s`

const correctionPromptTmpl = `你是一名高中语文资深教研员，这是一名年轻老师写出的文言文逐句【注解】和【考点】，但是他总是比较难抓住关键、并且总是有一定可能会犯一些事实性的错误。我们要仅仅是1、删除那些并不重要的、高中生肯定已经知道的字词考点，保证【考点】的数量少于5个；并且2、修改那些可能会犯一些事实性的错误的地方（体现在一些典故、或者字词，如果你也拿不准的话，建议直接删去）。请你修改他的结果，给我修改后的，按照示例结构即可。其余的内容不用输出。也不需要在【考点】处加上括号解释。
例如：假设我的输入是：
【句1】傅良弼，字安道，清河人也。
【翻译】傅良弼，字安道，是清河地人。
【注解】1、清河：清河县，隶属河北省邢台市，古称青阳。
【考点】1、也：表示判断句的后缀。
 你的输出为：【句1】傅良弼，字安道，清河人也。
【翻译】傅良弼，字安道，是清河地人。
【注解】1、清河：清河县，隶属河北省邢台市，古称青阳。
【考点】无
**注意，不需要任何额外解释性的话!严格按照原本的结构输出。
你的待处理文本是：


%s`

const questionPromptTmpl = `你是一名高中语文老师，将下面句子，去除所有的标点符号后，生成"断句题"；根据考点，结合字典，生成"考题"（仅仅考察词语的意义）；根据是否有考情分析，最后生成"考情分析"（如无则没有这一部分。考情分析的内容完全是按照我给的数据来写的，有多少说多少，不准输出任何你不知道的事情！）。
注意，1、个别字我会在下面给你字典的释义，你需要根据字典的释义将该字的其他意思，作为混淆项考察学生。
2、如果该字往年曾经考察，请你写一份考情分析，如果没有的话，则不需要输出【考情分析】！严格根据我的输出，来写，不允许自己编造。
严格按照结构输出，不要说任何多余的话：

假设你的待处理文本是：
【句2】以善弓矢显。
【翻译】（傅良弼）凭借擅长射箭出名。
【注解】无
【考点】1、以：凭借；2、显：出名。
那么你的输出是：
【句2】以善弓矢显。
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
【考情分析】“以”字在近五年高考模考中，出现了10次，如2025年闵行区一模（以事谪戍辽东，怡然就道。），对应考察的字义包括“因为”“认为”等。
“显”字在近五年高考模考中，出现了3次，如2024年青浦区一模（先生宦久不显），对应考察的字义包括“显达“等。

==注意，出现了几次，具体的原文等，示例都是通过上下文填进去的！你的待处理文本、词典参考内容、考情分析（如有）是：

【句%d】%s
【翻译】%s
【注解】%s
【考点】%s%s%s`

func guidePrompt(text string) string {
	return fmt.Sprintf(guidePromptTmpl, text)
}

func sentencePrompt(text string) string {
	return fmt.Sprintf(sentencePromptTmpl, text)
}

func correctionPrompt(decomposition string) string {
	return fmt.Sprintf(correctionPromptTmpl, decomposition)
}

// questionPrompt 组装单句出题提示词，n 为该句在全文中的序号（从 1 开始）
func questionPrompt(n int, s models.Sentence) string {
	return fmt.Sprintf(questionPromptTmpl, n, s.Sentence, s.Translation, s.Annotation, s.KeyPoints,
		dictionaryReference(s), kaodianReference(s))
}

func dictionaryReference(s models.Sentence) string {
	if len(s.DictionaryContext) == 0 {
		return ""
	}
	lines := make([]string, 0, len(s.DictionaryContext))
	for _, e := range s.DictionaryContext {
		lines = append(lines, e.Word+"："+e.Explanation)
	}
	return "\n\n【词典参考】\n" + strings.Join(lines, "\n")
}

func kaodianReference(s models.Sentence) string {
	if len(s.KaodianContext) == 0 {
		return ""
	}
	lines := make([]string, 0, len(s.KaodianContext))
	for _, e := range s.KaodianContext {
		lines = append(lines, fmt.Sprintf("%s：%s - %s - %s", e.Word, e.Source, e.Sentence, e.Meaning))
	}
	return "\n\n【考情分析参考】\n" + strings.Join(lines, "\n")
}
