// Package application 历史计算任务服务
// 生成摘要：
// 1) 提交即创建 PENDING 任务并启动执行协程，按 (合约 × 日期) 枚举工作项
// 2) 取消是协作式的：执行器在工作项之间检查上下文取消，任务进入 CANCELLED 终态
// 3) 进度按跨度落库，终态事件经 Outbox 发布
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/messagequeue"

	"github.com/wyfcoding/swapcashflow/internal/cashflow/domain"
)

// TaskFinishedTopic 任务终态事件主题
const TaskFinishedTopic = "cashflow.task.finished"

// progressStride 进度落库跨度：每处理 N 个工作项持久化一次
const progressStride = 10

// TaskService 历史计算任务服务
type TaskService struct {
	taskRepo     domain.TaskRepository
	contractRepo domain.ContractRepository
	calc         *CalculationService
	publisher    messagequeue.EventPublisher
	logger       *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewTaskService 创建任务服务
func NewTaskService(taskRepo domain.TaskRepository, contractRepo domain.ContractRepository, calc *CalculationService, publisher messagequeue.EventPublisher, logger *slog.Logger) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		contractRepo: contractRepo,
		calc:         calc,
		publisher:    publisher,
		logger:       logger,
		cancels:      make(map[string]context.CancelFunc),
	}
}

// SubmitTaskCommand 提交历史计算任务命令
// ContractIDs 为空时对全部生效合约执行
type SubmitTaskCommand struct {
	ContractIDs []string
	From        time.Time
	To          time.Time
}

// Submit 提交任务并启动执行协程
func (s *TaskService) Submit(ctx context.Context, cmd SubmitTaskCommand) (string, error) {
	if cmd.From.IsZero() || cmd.To.IsZero() || domain.DateOf(cmd.To).Before(domain.DateOf(cmd.From)) {
		return "", fmt.Errorf("invalid task date range")
	}

	contractIDs := cmd.ContractIDs
	if len(contractIDs) == 0 {
		ids, err := s.contractRepo.ListActiveIDs(ctx)
		if err != nil {
			return "", err
		}
		contractIDs = ids
	}
	if len(contractIDs) == 0 {
		return "", fmt.Errorf("no contracts in task scope")
	}

	dates := calculationDates(cmd.From, cmd.To)
	encoded, err := encodeContractIDs(contractIDs)
	if err != nil {
		return "", err
	}

	taskID := "TASK" + idgen.GenIDString()
	task := domain.NewCalculationTask(taskID, encoded, cmd.From, cmd.To, len(contractIDs)*len(dates))
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[taskID] = cancel
	s.mu.Unlock()

	go s.execute(runCtx, task, contractIDs, dates)

	s.logger.InfoContext(ctx, "calculation task submitted", "task_id", taskID, "contracts", len(contractIDs), "dates", len(dates))
	return taskID, nil
}

// execute 任务执行器，工作项之间检查取消信号
func (s *TaskService) execute(ctx context.Context, task *domain.CalculationTask, contractIDs []string, dates []time.Time) {
	defer s.release(task.TaskID)

	if err := task.Start(); err != nil {
		s.logger.Error("failed to start task", "task_id", task.TaskID, "error", err)
		return
	}
	if err := s.taskRepo.Update(ctx, task); err != nil {
		s.logger.Error("failed to persist task start", "task_id", task.TaskID, "error", err)
	}

	processed := 0
	for _, contractID := range contractIDs {
		for _, date := range dates {
			if err := ctx.Err(); err != nil {
				s.finish(task, func() error { return task.Cancel() })
				return
			}

			_, err := s.calc.Calculate(ctx, CalculateCommand{
				ContractID: contractID,
				From:       task.FromDate,
				To:         date,
				Persist:    true,
			})
			if err != nil {
				if errors.Is(err, context.Canceled) {
					s.finish(task, func() error { return task.Cancel() })
					return
				}
				s.finish(task, func() error { return task.Fail(err.Error()) })
				return
			}

			processed++
			task.UpdateProgress(processed)
			if processed%progressStride == 0 {
				if err := s.taskRepo.Update(context.Background(), task); err != nil {
					s.logger.Error("failed to persist task progress", "task_id", task.TaskID, "error", err)
				}
			}
		}
	}

	s.finish(task, func() error { return task.Complete() })
}

// finish 推进任务终态、落库并发布终态事件
func (s *TaskService) finish(task *domain.CalculationTask, transition func() error) {
	if err := transition(); err != nil {
		s.logger.Error("invalid task terminal transition", "task_id", task.TaskID, "error", err)
		return
	}

	ctx := context.Background()
	if err := s.taskRepo.Update(ctx, task); err != nil {
		s.logger.Error("failed to persist task terminal state", "task_id", task.TaskID, "error", err)
	}
	if s.publisher != nil {
		for _, event := range task.GetDomainEvents() {
			if err := s.publisher.Publish(ctx, TaskFinishedTopic, task.TaskID, event); err != nil {
				s.logger.Error("failed to publish task event", "task_id", task.TaskID, "error", err)
			}
		}
	}
	task.ClearDomainEvents()
	s.logger.Info("calculation task finished", "task_id", task.TaskID, "status", task.Status, "processed", task.ProcessedCount)
}

// Cancel 请求取消执行中的任务
func (s *TaskService) Cancel(ctx context.Context, taskID string) error {
	s.mu.Lock()
	cancel, ok := s.cancels[taskID]
	s.mu.Unlock()
	if ok {
		cancel()
		return nil
	}

	// 执行协程已退出或任务不在本实例上，仅允许对未启动的任务直接置终态
	task, err := s.taskRepo.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return domain.ErrTaskNotFound
	}
	if task.Status != domain.TaskStatusPending {
		return fmt.Errorf("task %s is not cancellable in status %s", taskID, task.Status)
	}
	if err := task.Cancel(); err != nil {
		return err
	}
	return s.taskRepo.Update(ctx, task)
}

// Get 查询任务
func (s *TaskService) Get(ctx context.Context, taskID string) (*TaskDTO, error) {
	task, err := s.taskRepo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}
	return ToTaskDTO(task), nil
}

// List 查询任务列表
func (s *TaskService) List(ctx context.Context, limit, offset int) ([]*TaskDTO, error) {
	tasks, err := s.taskRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	dtos := make([]*TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		dtos = append(dtos, ToTaskDTO(t))
	}
	return dtos, nil
}

func (s *TaskService) release(taskID string) {
	s.mu.Lock()
	delete(s.cancels, taskID)
	s.mu.Unlock()
}

// calculationDates 枚举任务区间内的计算日（逐日）
func calculationDates(from, to time.Time) []time.Time {
	var dates []time.Time
	for d := domain.DateOf(from); !d.After(domain.DateOf(to)); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
