package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Покупка билетов
	ErrInsufficientTickets  = errors.New("not enough tickets available")
	ErrCompetitionNotActive = errors.New("competition is not active")
	ErrTicketCountNotPos    = errors.New("ticket count must be positive")
	ErrPaymentRequired      = errors.New("purchase requires a wallet debit or a payment reference")
	ErrInsufficientFunds    = errors.New("insufficient wallet funds")

	// Генерация выигрышных билетов
	ErrCompetitionNotInstantWin = errors.New("competition is not an instant win competition")
	ErrNoPrizesConfigured       = errors.New("competition has no prizes configured")
	ErrWinningTicketsExist      = errors.New("winning tickets already exist for this competition, clear them first")
	ErrPhaseCapacityExceeded    = errors.New("prize quantities exceed phase capacity")

	// Блокировка редактирования после генерации
	ErrCompetitionLocked = errors.New("ticket price and total tickets cannot change while winning tickets exist")
	ErrPrizesLocked      = errors.New("prizes cannot change while winning tickets exist")

	// Ошибки конфликтов
	ErrUserEmailConflict        = errors.New("email address is already in use")
	ErrCompetitionTitleConflict = errors.New("competition title already exists")
	ErrProductNameConflict      = errors.New("product name already exists")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound          = errors.New("user not found")
	ErrCompetitionNotFound   = errors.New("competition not found")
	ErrPrizeNotFound         = errors.New("prize not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrEntryNotFound         = errors.New("entry not found")
	ErrWinningTicketNotFound = errors.New("winning ticket not found")
	ErrWalletNotFound        = errors.New("wallet not found")

	// Ошибки конкурсов
	ErrCompetitionInvalidDates            = errors.New("competition end date must be after start date")
	ErrCompetitionInvalidCapacity         = errors.New("competition total tickets must be positive")
	ErrCompetitionInvalidPrice            = errors.New("competition ticket price must be positive")
	ErrCompetitionInvalidStatusTransition = errors.New("invalid competition status transition")
	ErrCompetitionNotDraft                = errors.New("only draft competitions can be deleted")
)
