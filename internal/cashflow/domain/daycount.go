// Package domain 现金流计算服务领域模型
// 生成摘要：
// 1) 定义计息天数惯例（ACT/360、ACT/365、30/360、ACT/ACT）及天数计算
// 2) 纯函数实现，无错误路径，结束日早于起始日时返回负数由调用方保证不发生
package domain

import "time"

// DayCountConvention 计息天数惯例
type DayCountConvention string

const (
	DayCountACT360 DayCountConvention = "ACT/360" // 实际天数/360
	DayCountACT365 DayCountConvention = "ACT/365" // 实际天数/365
	DayCount30360  DayCountConvention = "30/360"  // 每月30天/360
	DayCountACTACT DayCountConvention = "ACT/ACT" // 实际/实际（简化为/365）
)

// Count 计算两个日期之间的计息天数与年化分母
// 30/360 规则：天数 = 年差*360 + 月差*30 + (min(截止日,30) - min(起始日,30))
// ACT/ACT 简化为 实际天数/365，未实现 ISDA 闰年规则
func (c DayCountConvention) Count(start, end time.Time) (days int, denominator int) {
	switch c {
	case DayCount30360:
		yearDiff := end.Year() - start.Year()
		monthDiff := int(end.Month()) - int(start.Month())
		days = yearDiff*360 + monthDiff*30 + (min(end.Day(), 30) - min(start.Day(), 30))
		return days, 360
	case DayCountACT365, DayCountACTACT:
		return calendarDaysBetween(start, end), 365
	default:
		// ACT/360 兜底，未知惯例按最常见的货币市场惯例处理
		return calendarDaysBetween(start, end), 360
	}
}

// calendarDaysBetween 计算两个日期之间的自然日天数
func calendarDaysBetween(start, end time.Time) int {
	s := DateOf(start)
	e := DateOf(end)
	return int(e.Sub(s).Hours() / 24)
}

// DateOf 归一化到 UTC 零点，金融日期只关心年月日
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDate 两个时间是否同一自然日
func SameDate(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
