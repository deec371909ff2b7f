package scoring

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/inboxpurge/inboxpurge/dto"
	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/logger"
	"github.com/inboxpurge/inboxpurge/internal/tracing"
	"github.com/inboxpurge/inboxpurge/internal/utils"
)

const maxSampleSubjects = 5

// Refiner escalates UNCERTAIN verdicts to the LLM classifier, one call
// per sender. Verdicts the model cannot resolve are left untouched.
type Refiner struct {
	ai  interfaces.AIService
	log logger.Logger
}

func NewRefiner(ai interfaces.AIService, log logger.Logger) *Refiner {
	return &Refiner{ai: ai, log: log}
}

func (r *Refiner) RefineUncertain(ctx context.Context, verdicts []*MessageVerdict) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Refiner.RefineUncertain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	bySender := make(map[string][]*MessageVerdict)
	for _, verdict := range verdicts {
		if verdict.Disposition != enum.DispositionUncertain {
			continue
		}
		bySender[verdict.SenderEmail] = append(bySender[verdict.SenderEmail], verdict)
	}
	if len(bySender) == 0 {
		return
	}

	for senderEmail, group := range bySender {
		subjects := make([]string, 0, maxSampleSubjects)
		for _, verdict := range group {
			if len(subjects) == maxSampleSubjects {
				break
			}
			subjects = append(subjects, utils.NormalizeSubject(verdict.Subject))
		}

		response, err := r.ai.ClassifySender(ctx, dto.SenderClassificationRequest{
			SenderEmail:    senderEmail,
			SenderDomain:   utils.ExtractDomainFromEmail(senderEmail),
			MessageCount:   len(group),
			SampleSubjects: subjects,
		})
		if err != nil {
			tracing.TraceErr(span, err)
			r.log.Warnf("LLM refinement skipped for %s: %v", senderEmail, err)
			continue
		}

		disposition := enum.DispositionKeep
		if response.Classification == "DELETE" {
			disposition = enum.DispositionDelete
		}
		for _, verdict := range group {
			verdict.Disposition = disposition
			verdict.Confidence = response.Confidence
			verdict.Reasoning = "LLM: " + response.Reasoning
		}
	}
}
