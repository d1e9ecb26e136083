package models

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модели

// ListClientAppointmentsRequest запрос записей клиента
type ListClientAppointmentsRequest struct {
	UserID   int64
	ClientID int64
	Status   *string
}

// ListProviderAppointmentsRequest запрос записей исполнителя
type ListProviderAppointmentsRequest struct {
	UserID          int64
	ProviderID      int64
	Date            *time.Time
	Status          *string
	IncludeCanceled bool
}

// Response модели

// AppointmentResponse ответ с данными записи
// ValidationCode показывается только клиенту: исполнитель получает код от клиента при оказании услуги
type AppointmentResponse struct {
	ID             int64   `json:"id"`
	ClientID       int64   `json:"clientId"`
	ProviderID     int64   `json:"providerId"`
	ServiceID      int64   `json:"serviceId"`
	Date           string  `json:"date"`      // "2025-10-15"
	StartTime      string  `json:"startTime"` // "10:00"
	EndTime        string  `json:"endTime"`   // "10:30"
	Duration       int     `json:"durationMinutes"`
	Status         string  `json:"status"`
	PaymentStatus  string  `json:"paymentStatus"`
	TotalPrice     string  `json:"totalPrice"` // "75.00"
	ValidationCode *string `json:"validationCode,omitempty"`
	Notes          *string `json:"notes,omitempty"`

	CancellationReason *string    `json:"cancellationReason,omitempty"`
	CanceledAt         *time.Time `json:"canceledAt,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppointmentListResponse ответ со списком записей
type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

// FromDomainAppointment конвертирует domain модель в DTO для пользователя viewerID
func FromDomainAppointment(a *domain.Appointment, viewerID int64) *AppointmentResponse {
	if a == nil {
		return nil
	}

	resp := &AppointmentResponse{
		ID:                 a.ID,
		ClientID:           a.ClientID,
		ProviderID:         a.ProviderID,
		ServiceID:          a.ServiceID,
		Date:               a.Date.Format(domain.DateFormat),
		StartTime:          a.StartTime.String(),
		EndTime:            a.EndTime.String(),
		Duration:           a.DurationMinutes(),
		Status:             string(a.Status),
		PaymentStatus:      string(a.PaymentStatus),
		TotalPrice:         domain.MinorToMajor(a.TotalPrice).StringFixed(2),
		Notes:              a.Notes,
		CancellationReason: a.CancellationReason,
		CanceledAt:         a.CanceledAt,
		CompletedAt:        a.CompletedAt,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}

	if viewerID == a.ClientID {
		resp.ValidationCode = a.ValidationCode
	}

	return resp
}

// FromDomainAppointmentList конвертирует список domain моделей в DTO
func FromDomainAppointmentList(list []*domain.Appointment, viewerID int64) *AppointmentListResponse {
	resp := &AppointmentListResponse{
		Appointments: make([]AppointmentResponse, 0, len(list)),
	}
	for _, a := range list {
		resp.Appointments = append(resp.Appointments, *FromDomainAppointment(a, viewerID))
	}
	return resp
}
