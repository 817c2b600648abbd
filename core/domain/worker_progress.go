package domain

// ProgressLabel is the derived deadline state of a Sizing row. The values are
// the labels displayed in the Tiến độ column.
type ProgressLabel string

const (
	ProgressNone     ProgressLabel = ""
	ProgressOverdue  ProgressLabel = "Quá hạn"
	ProgressDueToday ProgressLabel = "Đến hạn"
	ProgressDueIn1   ProgressLabel = "Còn 1 ngày"
	ProgressDueIn2   ProgressLabel = "Còn 2 ngày"
	ProgressDueIn3   ProgressLabel = "Còn 3 ngày"
)

func (p ProgressLabel) String() string {
	return string(p)
}

// Approaching reports whether the label triggers the approaching-deadline alert.
func (p ProgressLabel) Approaching() bool {
	return p == ProgressDueToday || p == ProgressDueIn1
}
