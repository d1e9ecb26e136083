package models

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модели

// UpsertScheduleRequest запрос на создание или замену расписания
type UpsertScheduleRequest struct {
	UserID              int64  `json:"-"`
	ProviderID          int64  `json:"-"`
	StartTime           string `json:"startTime"`           // "09:00"
	EndTime             string `json:"endTime"`             // "18:00"
	WorkingDays         []int  `json:"workingDays"`         // 0 = воскресенье ... 6 = суббота
	SlotIntervalMinutes int    `json:"slotIntervalMinutes"` // шаг сетки слотов
}

// AddBlockedRangeRequest запрос на блокировку интервала
type AddBlockedRangeRequest struct {
	UserID     int64   `json:"-"`
	ProviderID int64   `json:"-"`
	Date       string  `json:"date"` // "2025-10-15"
	StartTime  string  `json:"startTime"`
	EndTime    string  `json:"endTime"`
	Reason     *string `json:"reason,omitempty"`
}

// ListBlockedRangesRequest запрос заблокированных интервалов в диапазоне дат (включительно)
type ListBlockedRangesRequest struct {
	ProviderID int64
	From       *time.Time
	To         *time.Time
}

// Response модели

// ScheduleResponse ответ с расписанием исполнителя
type ScheduleResponse struct {
	ID                  int64                  `json:"id"`
	ProviderID          int64                  `json:"providerId"`
	StartTime           string                 `json:"startTime"`
	EndTime             string                 `json:"endTime"`
	WorkingDays         []int                  `json:"workingDays"`
	SlotIntervalMinutes int                    `json:"slotIntervalMinutes"`
	BlockedRanges       []BlockedRangeResponse `json:"blockedRanges"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
}

// BlockedRangeResponse ответ с заблокированным интервалом
type BlockedRangeResponse struct {
	ID         int64     `json:"id"`
	ProviderID int64     `json:"providerId"`
	Date       string    `json:"date"`
	StartTime  string    `json:"startTime"`
	EndTime    string    `json:"endTime"`
	Reason     *string   `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// BlockedRangeListResponse ответ со списком заблокированных интервалов
type BlockedRangeListResponse struct {
	BlockedRanges []BlockedRangeResponse `json:"blockedRanges"`
}

// Методы конвертации

// FromDomainSchedule конвертирует domain модель в DTO
func FromDomainSchedule(s *domain.ProviderSchedule) *ScheduleResponse {
	if s == nil {
		return nil
	}

	workingDays := make([]int, len(s.WorkingDays))
	copy(workingDays, s.WorkingDays)

	return &ScheduleResponse{
		ID:                  s.ID,
		ProviderID:          s.ProviderID,
		StartTime:           s.StartTime.String(),
		EndTime:             s.EndTime.String(),
		WorkingDays:         workingDays,
		SlotIntervalMinutes: s.SlotIntervalMinutes,
		BlockedRanges:       FromDomainBlockedRangeList(s.BlockedRanges).BlockedRanges,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

// FromDomainBlockedRange конвертирует domain модель в DTO
func FromDomainBlockedRange(br domain.BlockedRange) BlockedRangeResponse {
	return BlockedRangeResponse{
		ID:         br.ID,
		ProviderID: br.ProviderID,
		Date:       br.Date.Format(domain.DateFormat),
		StartTime:  br.StartTime.String(),
		EndTime:    br.EndTime.String(),
		Reason:     br.Reason,
		CreatedAt:  br.CreatedAt,
	}
}

// FromDomainBlockedRangeList конвертирует список domain моделей в DTO
func FromDomainBlockedRangeList(list []domain.BlockedRange) *BlockedRangeListResponse {
	resp := &BlockedRangeListResponse{
		BlockedRanges: make([]BlockedRangeResponse, 0, len(list)),
	}
	for _, br := range list {
		resp.BlockedRanges = append(resp.BlockedRanges, FromDomainBlockedRange(br))
	}
	return resp
}
