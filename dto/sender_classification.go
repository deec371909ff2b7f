package dto

// SenderClassificationRequest asks the LLM for a per-sender verdict on a
// batch of ambiguous messages. Sampled subjects are capped by the caller.
type SenderClassificationRequest struct {
	SenderEmail    string   `json:"sender_email"`
	SenderDomain   string   `json:"sender_domain"`
	MessageCount   int      `json:"message_count"`
	SampleSubjects []string `json:"sample_subjects"`
	AnyStarred     bool     `json:"any_starred"`
	AnyUserReplied bool     `json:"any_user_replied"`
	HasUnsubscribe bool     `json:"has_unsubscribe"`
}

type SenderClassificationResponse struct {
	Classification    string   `json:"classification"`
	Confidence        float64  `json:"confidence"`
	Reasoning         string   `json:"reasoning"`
	EmailTypes        []string `json:"email_types,omitempty"`
	ImportanceSignals []string `json:"importance_signals,omitempty"`
}
