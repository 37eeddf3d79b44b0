// Package insight turns snapshots into structured competitor and strategic
// insights through an external reasoning capability.
package insight

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

// Synthesizer is stateless apart from its collaborators. Output is not
// deterministic because the completer is not.
type Synthesizer struct {
	completer Completer
	logger    *logrus.Logger
}

func NewSynthesizer(c Completer, logger *logrus.Logger) *Synthesizer {
	return &Synthesizer{completer: c, logger: logger}
}

func (s *Synthesizer) Synthesize(ctx context.Context, subject, competitor *entity.Snapshot) (*entity.CompetitorInsight, error) {
	out, err := s.completer.Complete(ctx, competitorPrompt(subject, competitor))
	if err != nil {
		return nil, &entity.SynthesisError{Target: competitor.URL, Reason: "reasoning call failed", Err: err}
	}
	ins, err := coerceInsight(out)
	if err != nil {
		s.logMalformed(competitor.URL, out, err)
		return nil, &entity.SynthesisError{Target: competitor.URL, Reason: "malformed output", Err: err}
	}
	return ins, nil
}

func (s *Synthesizer) SynthesizeStrategic(ctx context.Context, subject *entity.Snapshot, competitors []entity.CompetitorAnalysis) (*entity.StrategicInsights, error) {
	out, err := s.completer.Complete(ctx, strategicPrompt(subject, competitors))
	if err != nil {
		return nil, &entity.SynthesisError{Target: "strategy", Reason: "reasoning call failed", Err: err}
	}
	si, err := coerceStrategic(out)
	if err != nil {
		s.logMalformed("strategy", out, err)
		return nil, &entity.SynthesisError{Target: "strategy", Reason: "malformed output", Err: err}
	}
	return si, nil
}

func (s *Synthesizer) logMalformed(target, out string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.WithError(err).WithFields(logrus.Fields{
		"target": target,
		"output": truncate(out, 200),
	}).Warn("model output could not be coerced")
}
