package domain

// SpamCategory — категория спам-сигнатуры.
type SpamCategory string

const (
	SpamCategoryFinance  SpamCategory = "FINANCE"
	SpamCategoryContact  SpamCategory = "CONTACT"
	SpamCategoryExternal SpamCategory = "EXTERNAL"
	SpamCategoryFake     SpamCategory = "FAKE"
	SpamCategoryRepeat   SpamCategory = "REPEAT"
	SpamCategoryOther    SpamCategory = "OTHER"
)

// SpamVerdict — результат проверки комментария детектором.
// Не хранится отдельно: поля складываются в Review.
type SpamVerdict struct {
	IsSpam     bool
	Reason     string
	Confidence int
	Category   SpamCategory
}
