package generator

import (
	"fmt"
	"strings"
	"time"
)

// Prompt 表示发送给 LLM 的消息集合。
type Prompt struct {
	System string
	User   string
}

// ReportSpec describes the weekly report to be generated.
type ReportSpec struct {
	Topic    string
	Sections []string
	WeekOf   time.Time
}

// BuildReportPrompt 生成周报提示词。
func BuildReportPrompt(spec ReportSpec) Prompt {
	weekStart := spec.WeekOf.AddDate(0, 0, -int(spec.WeekOf.Weekday()-time.Monday))
	weekEnd := weekStart.AddDate(0, 0, 4)

	var sb strings.Builder
	sb.WriteString("你是一名专业的周报撰写助手，请直接输出 Markdown，不要额外解释。\n")
	sb.WriteString("要求：\n")
	sb.WriteString("- 必须包含一级标题作为周报标题。\n")
	sb.WriteString(fmt.Sprintf("- 覆盖时间范围：%s 至 %s。\n",
		weekStart.Format("2006-01-02"), weekEnd.Format("2006-01-02")))
	sb.WriteString("- 每个要点单独成行，便于分段推送。\n")
	if len(spec.Sections) > 0 {
		sb.WriteString("- 按以下结构组织内容：\n")
		for i, item := range spec.Sections {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, item))
		}
	}

	topic := spec.Topic
	if topic == "" {
		topic = "本周工作总结"
	}
	user := fmt.Sprintf("主题：%s\n请输出符合上述要求的完整 Markdown 周报。", topic)

	return Prompt{
		System: sb.String(),
		User:   user,
	}
}
