// Package domain 计算失败的错误分类
// 生成摘要：
// 1) 哨兵错误供 errors.Is 判定；带上下文的错误类型携带合约号与成因
// 2) 数据缺失是硬失败：快照固定，重试不可恢复；缺省值规则（空日期、零数量）不是错误
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidContract 合约参数非法
	ErrInvalidContract = errors.New("invalid contract")
	// ErrContractNotFound 合约不存在
	ErrContractNotFound = errors.New("contract not found")
	// ErrTaskNotFound 计算任务不存在
	ErrTaskNotFound = errors.New("calculation task not found")
	// ErrSnapshotExpired 行情快照超出有效窗口
	ErrSnapshotExpired = errors.New("market data snapshot expired")
	// ErrInterestCalculationFailed 利息计算失败
	ErrInterestCalculationFailed = errors.New("interest calculation failed")
	// ErrDividendDataNotFound 行情快照缺少标的的分红序列
	ErrDividendDataNotFound = errors.New("dividend data not found")
	// ErrPriceDataNotFound 行情快照缺少标的的价格
	ErrPriceDataNotFound = errors.New("price data not found")
	// ErrCalculationFailed 计算失败（通用）
	ErrCalculationFailed = errors.New("calculation failed")
)

// InterestCalculationError 利息计算失败，携带合约号与成因
type InterestCalculationError struct {
	ContractID string
	Cause      string
}

func (e *InterestCalculationError) Error() string {
	return fmt.Sprintf("interest calculation failed for contract %s: %s", e.ContractID, e.Cause)
}

func (e *InterestCalculationError) Unwrap() error {
	return ErrInterestCalculationFailed
}

// DividendDataNotFoundError 分红数据缺失，携带合约号与标的
type DividendDataNotFoundError struct {
	ContractID string
	Underlying string
}

func (e *DividendDataNotFoundError) Error() string {
	return fmt.Sprintf("dividend data not found for underlying %s (contract %s)", e.Underlying, e.ContractID)
}

func (e *DividendDataNotFoundError) Unwrap() error {
	return ErrDividendDataNotFound
}

// PriceDataNotFoundError 价格数据缺失，携带合约号与标的
type PriceDataNotFoundError struct {
	ContractID string
	Underlying string
}

func (e *PriceDataNotFoundError) Error() string {
	return fmt.Sprintf("price data not found for underlying %s (contract %s)", e.Underlying, e.ContractID)
}

func (e *PriceDataNotFoundError) Unwrap() error {
	return ErrPriceDataNotFound
}

// CalculationError 通用计算失败，包装底层错误并携带合约号
type CalculationError struct {
	ContractID string
	Cause      error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("calculation failed for contract %s: %v", e.ContractID, e.Cause)
}

func (e *CalculationError) Unwrap() error {
	return ErrCalculationFailed
}

// WrapCalculation 将底层错误归入通用计算失败；已分类的错误原样透传
func WrapCalculation(contractID string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInterestCalculationFailed) ||
		errors.Is(err, ErrDividendDataNotFound) ||
		errors.Is(err, ErrPriceDataNotFound) ||
		errors.Is(err, ErrCalculationFailed) {
		return err
	}
	return &CalculationError{ContractID: contractID, Cause: err}
}
