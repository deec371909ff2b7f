package enum

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusPaused    RunStatus = "paused"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

func (t RunStatus) String() string {
	return string(t)
}

// IsTerminal reports whether no further transitions are allowed.
func (t RunStatus) IsTerminal() bool {
	return t == RunStatusCompleted || t == RunStatusCancelled || t == RunStatusFailed
}

type ActionType string

const (
	ActionUnsubscribe ActionType = "unsubscribe"
	ActionDelete      ActionType = "delete"
	ActionFilter      ActionType = "filter"
	ActionSkip        ActionType = "skip"
	ActionError       ActionType = "error"
)

func (t ActionType) String() string {
	return string(t)
}

type Disposition string

const (
	DispositionKeep      Disposition = "KEEP"
	DispositionDelete    Disposition = "DELETE"
	DispositionReview    Disposition = "REVIEW"
	DispositionUncertain Disposition = "UNCERTAIN"
)

func (t Disposition) String() string {
	return string(t)
}

type RuleType string

const (
	RuleSenderEmail     RuleType = "sender_email"
	RuleSenderDomain    RuleType = "sender_domain"
	RuleSubjectContains RuleType = "subject_contains"
	RuleLabel           RuleType = "label"
	RuleHasAttachment   RuleType = "has_attachment"
	RuleIsConversation  RuleType = "is_conversation"
	RuleOlderThanDays   RuleType = "older_than_days"
	RuleCategory        RuleType = "category"
)

func (t RuleType) String() string {
	return string(t)
}

type UnsubscribeMethod string

const (
	UnsubscribeMethodMailto   UnsubscribeMethod = "mailto"
	UnsubscribeMethodHTTP     UnsubscribeMethod = "http"
	UnsubscribeMethodOneClick UnsubscribeMethod = "one_click"
)

func (t UnsubscribeMethod) String() string {
	return string(t)
}

type ProtectionReason string

const (
	ProtectionWhitelist     ProtectionReason = "whitelisted"
	ProtectionSenderPattern ProtectionReason = "sender_pattern"
	ProtectionDomain        ProtectionReason = "protected_domain"
	ProtectionKeyword       ProtectionReason = "protected_keyword"
	ProtectionCheckFailed   ProtectionReason = "check_failed"
)

func (t ProtectionReason) String() string {
	return string(t)
}
