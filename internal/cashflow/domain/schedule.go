// Package domain 计息期划分
// 生成摘要：
// 1) 按付息频率把 [from, to) 切成计息期，期末为下一期起点（不含），末期在 to 截断
// 2) 完整计息期的期末即付息日；被截断的末期只计提不付息
package domain

import "time"

// InterestPeriod 计息期
type InterestPeriod struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	PaymentDue bool      `json:"payment_due"` // 期末是否付息日
}

// advance 按频率步进到下一期起点
func (f PaymentFrequency) advance(t time.Time) time.Time {
	switch f {
	case FrequencyDaily:
		return t.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0)
	case FrequencyYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// GeneratePeriods 生成 [from, to) 内的计息期序列
// from 不早于 to 时返回空；每期期末被 to 截断时该期不付息
func GeneratePeriods(from, to time.Time, freq PaymentFrequency) []InterestPeriod {
	start := DateOf(from)
	end := DateOf(to)
	if !start.Before(end) {
		return nil
	}

	var periods []InterestPeriod
	cur := start
	for cur.Before(end) {
		next := freq.advance(cur)
		periodEnd := next
		paymentDue := true
		if periodEnd.After(end) {
			periodEnd = end
			paymentDue = false
		}
		periods = append(periods, InterestPeriod{
			Start:      cur,
			End:        periodEnd,
			PaymentDue: paymentDue,
		})
		cur = next
	}
	return periods
}
