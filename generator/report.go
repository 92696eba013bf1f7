package generator

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Reporter 负责按 ReportSpec 生成周报正文。
type Reporter struct {
	llm  LLMClient
	spec ReportSpec
	now  func() time.Time
}

func NewReporter(llm LLMClient, spec ReportSpec) (*Reporter, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Reporter{llm: llm, spec: spec, now: time.Now}, nil
}

// Generate produces the report markdown. On failure no partial
// content is returned.
func (r *Reporter) Generate(ctx context.Context) (string, error) {
	spec := r.spec
	if spec.WeekOf.IsZero() {
		spec.WeekOf = r.now()
	}

	raw, err := r.llm.Complete(ctx, BuildReportPrompt(spec))
	if err != nil {
		return "", err
	}
	md := strings.TrimSpace(raw)
	if md == "" {
		return "", errors.New("model returned empty markdown")
	}
	return md, nil
}
