// Package botconfig provides access to the per-tenant bot configuration
// blobs. Each feature area (reactivation, transactional, feedback) is stored
// as a separate JSON document owned by tenant administration; this package
// only reads them.
package botconfig

// ReactivationConfig controls the re-engagement campaign for one tenant.
type ReactivationConfig struct {
	Enabled             bool     `json:"enabled"`
	Messages            []string `json:"messages"`
	DelayDays           int      `json:"delayDays" validate:"min=1"`
	MaxAttempts         int      `json:"maxAttempts" validate:"min=1"`
	DaysBetweenAttempts int      `json:"daysBetweenAttempts" validate:"min=1"`
	OfferDiscount       bool     `json:"offerDiscount"`
	DiscountMessage     string   `json:"discountMessage"`
	DiscountPercentage  int      `json:"discountPercentage" validate:"min=0,max=100"`
}

// TransactionalConfig controls appointment lifecycle messaging.
type TransactionalConfig struct {
	SendReminder        bool   `json:"sendReminder"`
	ReminderMessage     string `json:"reminderMessage"`
	ReminderHoursBefore int    `json:"reminderHoursBefore" validate:"min=1"`
	ConfirmationMessage string `json:"confirmationMessage"`
	AllowCancellation   bool   `json:"allowCancellation"`
}

// FeedbackConfig controls post-appointment feedback requests.
type FeedbackConfig struct {
	Enabled               bool   `json:"enabled"`
	DelayHours            int    `json:"delayHours" validate:"min=1"`
	RequestMessage        string `json:"requestMessage"`
	NotifyOwnerOnNegative bool   `json:"notifyOwnerOnNegative"`
	HighRatingThreshold   int    `json:"highRatingThreshold" validate:"min=1,max=5"`
}

func defaultReactivationConfig() ReactivationConfig {
	return ReactivationConfig{
		DelayDays:           30,
		MaxAttempts:         3,
		DaysBetweenAttempts: 30,
	}
}

func defaultTransactionalConfig() TransactionalConfig {
	return TransactionalConfig{
		ReminderHoursBefore: 24,
	}
}

func defaultFeedbackConfig() FeedbackConfig {
	return FeedbackConfig{
		DelayHours:          1,
		HighRatingThreshold: 4,
	}
}
