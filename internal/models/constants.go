package models

const (
	OfferStatusDraft = "draft"
	OfferStatusSent  = "sent"
)

const (
	InvoiceStatusPaid   = "paid"
	InvoiceStatusUnpaid = "unpaid"
)

const (
	TaskTypeMoveIn   = "einzug"
	TaskTypeMoveOut  = "auszug"
	TaskTypeCleaning = "reinigung"
)

const (
	TaskStatusOpen         = "open"
	TaskStatusAssigned     = "assigned"
	TaskStatusDoneByWorker = "done_by_worker"
	TaskStatusVerified     = "verified"
	TaskStatusArchived     = "archived"
)

const (
	// DateOnly is the day granularity used for occupancy matching.
	DateOnly = "2006-01-02"

	// StatusCacheTTL время жизни кэша вычисленных статусов
	StatusCacheTTL = 5 * 60 // 5 минут в секундах

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 1000

	// RateLimitRequests количество запросов в окне
	RateLimitRequests = 60

	// RateLimitWindow окно ограничения частоты запросов
	RateLimitWindow = 60 // 1 минута в секундах

	// DefaultExportRangeMonthsBefore количество месяцев для экспорта по умолчанию
	DefaultExportRangeMonthsBefore = 1
	DefaultExportRangeMonthsAfter  = 2
)
