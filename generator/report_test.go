package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	response string
	err      error
	prompt   Prompt
}

func (f *fakeLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func TestReporterGenerate(t *testing.T) {
	llm := &fakeLLM{response: "  # 周报\n\n内容\n  "}
	r, err := NewReporter(llm, ReportSpec{Topic: "平台组周报"})
	require.NoError(t, err)

	md, err := r.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "# 周报\n\n内容", md, "output is trimmed")
	assert.Contains(t, llm.prompt.User, "平台组周报")
}

func TestReporterGenerateEmptyOutput(t *testing.T) {
	llm := &fakeLLM{response: "   \n  "}
	r, err := NewReporter(llm, ReportSpec{})
	require.NoError(t, err)

	_, err = r.Generate(context.Background())
	require.Error(t, err)
}

func TestReporterGenerateLLMFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("401 invalid api key")}
	r, err := NewReporter(llm, ReportSpec{})
	require.NoError(t, err)

	md, err := r.Generate(context.Background())
	require.Error(t, err)
	assert.Empty(t, md, "no partial content on failure")
}

func TestNewReporterRequiresLLM(t *testing.T) {
	_, err := NewReporter(nil, ReportSpec{})
	require.Error(t, err)
}

func TestBuildReportPrompt(t *testing.T) {
	// 2026-01-07 is a Wednesday; the covered week is Mon 01-05 .. Fri 01-09.
	spec := ReportSpec{
		Topic:    "基础设施周报",
		Sections: []string{"本周进展", "下周计划"},
		WeekOf:   time.Date(2026, time.January, 7, 10, 0, 0, 0, time.Local),
	}
	p := BuildReportPrompt(spec)

	assert.Contains(t, p.System, "2026-01-05")
	assert.Contains(t, p.System, "2026-01-09")
	assert.Contains(t, p.System, "本周进展")
	assert.Contains(t, p.System, "下周计划")
	assert.Contains(t, p.User, "基础设施周报")
}

func TestMockLLMProducesMarkdown(t *testing.T) {
	out, err := MockLLM{}.Complete(context.Background(), BuildReportPrompt(ReportSpec{Topic: "t"}))
	require.NoError(t, err)
	assert.Contains(t, out, "# ")
}
