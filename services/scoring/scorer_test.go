package scoring

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/inboxpurge/inboxpurge/dto"
	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/enum"
	"github.com/inboxpurge/inboxpurge/internal/logger"
)

type fakeMailbox struct {
	interfaces.MailboxService
	threads    map[string]*interfaces.ThreadInfo
	threadErr  error
	threadGets int
}

func (f *fakeMailbox) GetThreadInfo(ctx context.Context, threadID string) (*interfaces.ThreadInfo, error) {
	f.threadGets++
	if f.threadErr != nil {
		return nil, f.threadErr
	}
	if info, ok := f.threads[threadID]; ok {
		return info, nil
	}
	return &interfaces.ThreadInfo{ThreadID: threadID, MessageCount: 1, ParticipantCount: 1}, nil
}

func getTestLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func makeMessage(id, threadID, from, subject string, labels []string, headers map[string]string) *gmailv1.Message {
	msg := &gmailv1.Message{
		Id:       id,
		ThreadId: threadID,
		LabelIds: labels,
		Payload: &gmailv1.MessagePart{
			Headers: []*gmailv1.MessagePartHeader{
				{Name: "From", Value: from},
				{Name: "Subject", Value: subject},
			},
		},
	}
	for name, value := range headers {
		msg.Payload.Headers = append(msg.Payload.Headers, &gmailv1.MessagePartHeader{Name: name, Value: value})
	}
	return msg
}

func TestScoreMessage_PromotionalBroadcastIsDelete(t *testing.T) {
	scorer := NewScorer(&fakeMailbox{}, getTestLogger())

	msg := makeMessage("m1", "t1", "Deals <deals@shop.com>", "Huge sale this weekend",
		[]string{"CATEGORY_PROMOTIONS"},
		map[string]string{"List-Unsubscribe": "<https://shop.com/u>", "Precedence": "bulk"})

	// category +30, unsubscribe +15, precedence +10, no engagement +10,
	// commercial keyword +15, broadcast +10 = 90 -> score 95
	verdict := scorer.ScoreMessage(context.Background(), msg)

	assert.Equal(t, enum.DispositionDelete, verdict.Disposition)
	assert.Equal(t, 95, verdict.Score)
	assert.InDelta(t, 0.833, verdict.Confidence, 0.01)
	assert.Contains(t, verdict.Reasoning, "Classification: DELETE (score: 95/100)")
	assert.Equal(t, "deals@shop.com", verdict.SenderEmail)
	assert.Equal(t, "promotions", verdict.Category)
}

func TestScoreMessage_EngagedPersonalMailIsKeep(t *testing.T) {
	mailbox := &fakeMailbox{threads: map[string]*interfaces.ThreadInfo{
		"t1": {ThreadID: "t1", MessageCount: 4, ParticipantCount: 2, UserReplied: true},
	}}
	scorer := NewScorer(mailbox, getTestLogger())

	msg := makeMessage("m1", "t1", "Jane <jane@corp.com>", "Invoice for March",
		[]string{"CATEGORY_PERSONAL", "STARRED"}, nil)

	// category -30, replied -25, starred -15, keyword -20, conversation -20 = -110 -> score 0
	verdict := scorer.ScoreMessage(context.Background(), msg)

	assert.Equal(t, enum.DispositionKeep, verdict.Disposition)
	assert.Equal(t, 0, verdict.Score)
	assert.Equal(t, 1.0, verdict.Confidence)
}

func TestScoreMessage_MiddleGroundIsUncertain(t *testing.T) {
	scorer := NewScorer(&fakeMailbox{}, getTestLogger())

	// no category, no unsubscribe, no engagement +10, broadcast +10 = 20 -> score 60
	msg := makeMessage("m1", "t1", "updates@service.com", "Changes to our terms", nil, nil)

	verdict := scorer.ScoreMessage(context.Background(), msg)

	assert.Equal(t, enum.DispositionUncertain, verdict.Disposition)
	assert.Equal(t, 60, verdict.Score)
	assert.InDelta(t, 0.5, verdict.Confidence, 0.001)
}

func TestScoreMessage_ThreadLookupFailureDegradesToUncertain(t *testing.T) {
	scorer := NewScorer(&fakeMailbox{threadErr: errors.New("quota exceeded")}, getTestLogger())

	msg := makeMessage("m1", "t1", "deals@shop.com", "Sale", []string{"CATEGORY_PROMOTIONS"}, nil)

	verdict := scorer.ScoreMessage(context.Background(), msg)

	assert.Equal(t, enum.DispositionUncertain, verdict.Disposition)
	assert.Equal(t, 50, verdict.Score)
	assert.Zero(t, verdict.Confidence)
}

func TestScoreMessage_ImportantLabelWeighsAsCategory(t *testing.T) {
	scorer := NewScorer(&fakeMailbox{}, getTestLogger())

	// category -30, marked important -10, broadcast +10 = -30 -> score 35
	msg := makeMessage("m1", "t1", "boss@corp.com", "Team offsite",
		[]string{"IMPORTANT"}, nil)

	verdict := scorer.ScoreMessage(context.Background(), msg)
	assert.Equal(t, 35, verdict.Score)
	assert.Contains(t, verdict.Reasoning, "gmail category (-30)")

	// an explicit CATEGORY_* label wins over IMPORTANT
	msg = makeMessage("m2", "t2", "deals@shop.com", "Team offsite",
		[]string{"CATEGORY_PROMOTIONS", "IMPORTANT"}, nil)

	verdict = scorer.ScoreMessage(context.Background(), msg)
	assert.Contains(t, verdict.Reasoning, "gmail category (+30)")
}

func TestScoreMessage_SnippetKeywordsCount(t *testing.T) {
	scorer := NewScorer(&fakeMailbox{}, getTestLogger())

	// the subject carries no keyword; the snippet does
	msg := makeMessage("m1", "t1", "updates@service.com", "Changes to our terms", nil, nil)
	msg.Snippet = "Flash sale ends tonight on all plans"

	// no engagement +10, commercial keyword +15, broadcast +10 = 35 -> score 67
	verdict := scorer.ScoreMessage(context.Background(), msg)
	assert.Equal(t, 67, verdict.Score)
	assert.Contains(t, verdict.Reasoning, `commercial keyword "sale"`)
}

func TestScoreMessage_ImportantKeywordDominatesCommercial(t *testing.T) {
	scorer := NewScorer(&fakeMailbox{}, getTestLogger())

	// subject contains both "receipt" and "sale"; only the important
	// keyword may count
	msg := makeMessage("m1", "t1", "store@shop.com", "Receipt for your sale purchase", nil, nil)

	verdict := scorer.ScoreMessage(context.Background(), msg)
	assert.Contains(t, verdict.Reasoning, "important keyword")
	assert.NotContains(t, verdict.Reasoning, "commercial keyword")
}

func TestScoreMessage_ThreadInfoCached(t *testing.T) {
	mailbox := &fakeMailbox{}
	scorer := NewScorer(mailbox, getTestLogger())

	msg := makeMessage("m1", "t1", "a@b.com", "x", nil, nil)
	scorer.ScoreMessage(context.Background(), msg)
	msg2 := makeMessage("m2", "t1", "a@b.com", "y", nil, nil)
	scorer.ScoreMessage(context.Background(), msg2)

	assert.Equal(t, 1, mailbox.threadGets)
}

func TestClassifyThresholds(t *testing.T) {
	disposition, confidence := classify(0)
	assert.Equal(t, enum.DispositionKeep, disposition)
	assert.Equal(t, 1.0, confidence)

	disposition, confidence = classify(29)
	assert.Equal(t, enum.DispositionKeep, disposition)
	assert.InDelta(t, 1.0/30.0, confidence, 0.001)

	disposition, _ = classify(30)
	assert.Equal(t, enum.DispositionUncertain, disposition)

	disposition, confidence = classify(50)
	assert.Equal(t, enum.DispositionUncertain, disposition)
	assert.InDelta(t, 1.0, confidence, 0.001)

	disposition, confidence = classify(70)
	assert.Equal(t, enum.DispositionDelete, disposition)
	assert.Zero(t, confidence)

	disposition, confidence = classify(100)
	assert.Equal(t, enum.DispositionDelete, disposition)
	assert.Equal(t, 1.0, confidence)
}

func TestNormalizeScoreClamps(t *testing.T) {
	assert.Equal(t, 0, normalizeScore(-150))
	assert.Equal(t, 50, normalizeScore(0))
	assert.Equal(t, 100, normalizeScore(150))
}

type fakeAI struct {
	response *dto.SenderClassificationResponse
	err      error
	calls    int
	lastReq  dto.SenderClassificationRequest
}

func (f *fakeAI) ClassifySender(ctx context.Context, request dto.SenderClassificationRequest) (*dto.SenderClassificationResponse, error) {
	f.calls++
	f.lastReq = request
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func TestRefineUncertain_OverwritesVerdicts(t *testing.T) {
	ai := &fakeAI{response: &dto.SenderClassificationResponse{
		Classification: "DELETE",
		Confidence:     0.9,
		Reasoning:      "marketing newsletter",
	}}
	refiner := NewRefiner(ai, getTestLogger())

	verdicts := []*MessageVerdict{
		{MessageID: "m1", SenderEmail: "news@shop.com", Subject: "Weekly update", Disposition: enum.DispositionUncertain},
		{MessageID: "m2", SenderEmail: "news@shop.com", Subject: "Another update", Disposition: enum.DispositionUncertain},
		{MessageID: "m3", SenderEmail: "jane@corp.com", Subject: "Invoice", Disposition: enum.DispositionKeep},
	}

	refiner.RefineUncertain(context.Background(), verdicts)

	assert.Equal(t, 1, ai.calls, "one call per sender")
	assert.Equal(t, enum.DispositionDelete, verdicts[0].Disposition)
	assert.Equal(t, 0.9, verdicts[0].Confidence)
	assert.Equal(t, "LLM: marketing newsletter", verdicts[0].Reasoning)
	assert.Equal(t, enum.DispositionDelete, verdicts[1].Disposition)
	assert.Equal(t, enum.DispositionKeep, verdicts[2].Disposition, "non-uncertain untouched")
	assert.Equal(t, 2, ai.lastReq.MessageCount)
}

func TestRefineUncertain_FailureLeavesVerdictsUntouched(t *testing.T) {
	ai := &fakeAI{err: errors.New("rate limited")}
	refiner := NewRefiner(ai, getTestLogger())

	verdicts := []*MessageVerdict{
		{MessageID: "m1", SenderEmail: "news@shop.com", Disposition: enum.DispositionUncertain, Confidence: 0.3, Reasoning: "original"},
	}

	refiner.RefineUncertain(context.Background(), verdicts)

	require.Equal(t, enum.DispositionUncertain, verdicts[0].Disposition)
	assert.Equal(t, 0.3, verdicts[0].Confidence)
	assert.Equal(t, "original", verdicts[0].Reasoning)
}

func TestRefineUncertain_CapsSampleSubjects(t *testing.T) {
	ai := &fakeAI{response: &dto.SenderClassificationResponse{Classification: "KEEP"}}
	refiner := NewRefiner(ai, getTestLogger())

	var verdicts []*MessageVerdict
	for i := 0; i < 8; i++ {
		verdicts = append(verdicts, &MessageVerdict{
			SenderEmail: "news@shop.com",
			Subject:     "subject",
			Disposition: enum.DispositionUncertain,
		})
	}

	refiner.RefineUncertain(context.Background(), verdicts)

	assert.Len(t, ai.lastReq.SampleSubjects, 5)
	assert.Equal(t, 8, ai.lastReq.MessageCount)
}
