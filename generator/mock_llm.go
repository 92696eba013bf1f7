package generator

import (
	"context"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	var sb strings.Builder
	sb.WriteString("# 本周周报（示例）\n\n")
	sb.WriteString("## 概览\n\n")
	sb.WriteString("这里是一段自动生成的周报摘要。\n\n")
	sb.WriteString("## 提示词回显\n\n")
	sb.WriteString("```\n")
	sb.WriteString(prompt.User)
	sb.WriteString("\n```\n")
	return sb.String(), nil
}
