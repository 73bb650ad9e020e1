// Package domain 历史计算任务
// 生成摘要：
// 1) 定义异步计算任务聚合根：进度 0-100，终态 COMPLETED/FAILED/CANCELLED
// 2) 取消是协作式的：执行器在两个工作项之间检查取消信号，不会中断算术过程
package domain

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"   // 待执行
	TaskStatusRunning   TaskStatus = "RUNNING"   // 执行中
	TaskStatusCompleted TaskStatus = "COMPLETED" // 已完成
	TaskStatusFailed    TaskStatus = "FAILED"    // 失败
	TaskStatusCancelled TaskStatus = "CANCELLED" // 已取消
)

// CalculationTask 历史计算任务聚合根
type CalculationTask struct {
	gorm.Model
	TaskID         string     `gorm:"column:task_id;type:varchar(64);uniqueIndex;not null" json:"task_id"`
	ContractIDs    string     `gorm:"column:contract_ids;type:json" json:"contract_ids"`
	FromDate       time.Time  `gorm:"column:from_date;not null" json:"from_date"`
	ToDate         time.Time  `gorm:"column:to_date;not null" json:"to_date"`
	Status         TaskStatus `gorm:"column:status;type:varchar(16);not null;default:'PENDING'" json:"status"`
	Progress       int        `gorm:"column:progress;not null;default:0" json:"progress"`
	ProcessedCount int        `gorm:"column:processed_count;not null;default:0" json:"processed_count"`
	TotalCount     int        `gorm:"column:total_count;not null;default:0" json:"total_count"`
	FailReason     string     `gorm:"column:fail_reason;type:varchar(512)" json:"fail_reason"`
	StartedAt      *time.Time `gorm:"column:started_at" json:"started_at"`
	FinishedAt     *time.Time `gorm:"column:finished_at" json:"finished_at"`

	domainEvents []DomainEvent `gorm:"-"`
}

// TableName 表名
func (CalculationTask) TableName() string {
	return "calculation_tasks"
}

// NewCalculationTask 创建历史计算任务
// contractIDs 为 JSON 数组串，由应用层序列化
func NewCalculationTask(taskID, contractIDs string, from, to time.Time, totalCount int) *CalculationTask {
	return &CalculationTask{
		TaskID:      taskID,
		ContractIDs: contractIDs,
		FromDate:    DateOf(from),
		ToDate:      DateOf(to),
		Status:      TaskStatusPending,
		TotalCount:  totalCount,
	}
}

// Start 开始执行
func (t *CalculationTask) Start() error {
	if t.Status != TaskStatusPending {
		return errors.New("invalid status for start")
	}
	now := time.Now()
	t.Status = TaskStatusRunning
	t.StartedAt = &now
	return nil
}

// UpdateProgress 更新进度
func (t *CalculationTask) UpdateProgress(processed int) {
	t.ProcessedCount = processed
	if t.TotalCount > 0 {
		t.Progress = processed * 100 / t.TotalCount
	}
	if t.Progress > 100 {
		t.Progress = 100
	}
}

// Complete 完成
func (t *CalculationTask) Complete() error {
	if t.Status != TaskStatusRunning {
		return errors.New("invalid status for complete")
	}
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.Progress = 100
	t.FinishedAt = &now
	t.addEvent(&CalculationTaskFinishedEvent{TaskID: t.TaskID, Status: string(TaskStatusCompleted), Timestamp: now})
	return nil
}

// Fail 失败
func (t *CalculationTask) Fail(reason string) error {
	if t.IsTerminal() {
		return errors.New("task already terminal")
	}
	now := time.Now()
	t.Status = TaskStatusFailed
	t.FailReason = reason
	t.FinishedAt = &now
	t.addEvent(&CalculationTaskFinishedEvent{TaskID: t.TaskID, Status: string(TaskStatusFailed), Reason: reason, Timestamp: now})
	return nil
}

// Cancel 取消
func (t *CalculationTask) Cancel() error {
	if t.IsTerminal() {
		return errors.New("task already terminal")
	}
	now := time.Now()
	t.Status = TaskStatusCancelled
	t.FinishedAt = &now
	t.addEvent(&CalculationTaskFinishedEvent{TaskID: t.TaskID, Status: string(TaskStatusCancelled), Timestamp: now})
	return nil
}

// IsTerminal 是否终态
func (t *CalculationTask) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed || t.Status == TaskStatusCancelled
}

func (t *CalculationTask) addEvent(event DomainEvent) {
	t.domainEvents = append(t.domainEvents, event)
}

// GetDomainEvents 获取领域事件
func (t *CalculationTask) GetDomainEvents() []DomainEvent {
	return t.domainEvents
}

// ClearDomainEvents 清空领域事件
func (t *CalculationTask) ClearDomainEvents() {
	t.domainEvents = nil
}
