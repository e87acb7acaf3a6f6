package services

import (
	"context"
	"time"

	"github.com/Dosada05/raffle-system/models"
	"github.com/Dosada05/raffle-system/repositories"
)

// Фейки покрывают только методы, которые дергают тестируемые сервисы;
// встроенный интерфейс паникует на всём остальном.

type fakeUserRepo struct {
	repositories.UserRepository
	user *models.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, repositories.ErrUserNotFound
	}
	return f.user, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.user == nil || f.user.Email != email {
		return nil, repositories.ErrUserNotFound
	}
	return f.user, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if f.user != nil && f.user.Email == user.Email {
		return repositories.ErrUserEmailConflict
	}
	user.ID = 1
	u := *user
	f.user = &u
	return nil
}

type fakeCompetitionRepo struct {
	repositories.CompetitionRepository
	competition    *models.Competition
	incremented    int
	updated        *models.Competition
	autoCandidates []*models.Competition
	statusUpdates  map[int]models.CompetitionStatus
}

func (f *fakeCompetitionRepo) Create(ctx context.Context, exec repositories.SQLExecutor, competition *models.Competition) error {
	competition.ID = 1
	c := *competition
	f.competition = &c
	return nil
}

func (f *fakeCompetitionRepo) GetCompetitionsForAutoStatusUpdate(ctx context.Context, exec repositories.SQLExecutor) ([]*models.Competition, error) {
	return f.autoCandidates, nil
}

func (f *fakeCompetitionRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.CompetitionStatus) error {
	if f.statusUpdates == nil {
		f.statusUpdates = make(map[int]models.CompetitionStatus)
	}
	f.statusUpdates[id] = status
	return nil
}

func (f *fakeCompetitionRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Competition, error) {
	if f.competition == nil || f.competition.ID != id {
		return nil, repositories.ErrCompetitionNotFound
	}
	// Копия, чтобы тест мог сравнить состояние до и после.
	c := *f.competition
	return &c, nil
}

func (f *fakeCompetitionRepo) IncrementTicketsSold(ctx context.Context, exec repositories.SQLExecutor, id int, count int) error {
	f.incremented += count
	return nil
}

func (f *fakeCompetitionRepo) Update(ctx context.Context, competition *models.Competition) error {
	c := *competition
	f.updated = &c
	return nil
}

type fakePrizeRepo struct {
	repositories.PrizeRepository
	prizes        []*models.CompetitionPrize
	numberCaches  map[int][]int64
	claimedCaches map[int][]int64
	resetCalls    int
}

func (f *fakePrizeRepo) Create(ctx context.Context, prize *models.CompetitionPrize) error {
	prize.ID = len(f.prizes) + 1
	f.prizes = append(f.prizes, prize)
	return nil
}

func (f *fakePrizeRepo) Update(ctx context.Context, prize *models.CompetitionPrize) error {
	for i, p := range f.prizes {
		if p.ID == prize.ID {
			f.prizes[i] = prize
			return nil
		}
	}
	return repositories.ErrPrizeNotFound
}

func (f *fakePrizeRepo) Delete(ctx context.Context, id int) error {
	for i, p := range f.prizes {
		if p.ID == id {
			f.prizes = append(f.prizes[:i], f.prizes[i+1:]...)
			return nil
		}
	}
	return repositories.ErrPrizeNotFound
}

func (f *fakePrizeRepo) ListByCompetition(ctx context.Context, exec repositories.SQLExecutor, competitionID int) ([]*models.CompetitionPrize, error) {
	out := make([]*models.CompetitionPrize, 0, len(f.prizes))
	for _, p := range f.prizes {
		if p.CompetitionID == competitionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePrizeRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.CompetitionPrize, error) {
	for _, p := range f.prizes {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repositories.ErrPrizeNotFound
}

func (f *fakePrizeRepo) UpdateNumberCache(ctx context.Context, exec repositories.SQLExecutor, prizeID int, numbers []int64) error {
	if f.numberCaches == nil {
		f.numberCaches = make(map[int][]int64)
	}
	f.numberCaches[prizeID] = numbers
	return nil
}

func (f *fakePrizeRepo) AppendClaimedCache(ctx context.Context, exec repositories.SQLExecutor, prizeID int, ticketNumber int) error {
	if f.claimedCaches == nil {
		f.claimedCaches = make(map[int][]int64)
	}
	f.claimedCaches[prizeID] = append(f.claimedCaches[prizeID], int64(ticketNumber))
	return nil
}

func (f *fakePrizeRepo) ResetCaches(ctx context.Context, exec repositories.SQLExecutor, competitionID int, prizeID *int) error {
	f.resetCalls++
	f.numberCaches = nil
	f.claimedCaches = nil
	return nil
}

type fakeWinningTicketRepo struct {
	repositories.WinningTicketRepository
	existing []*models.WinningTicket
	created  []*models.WinningTicket
	claimed  map[int]bool // ticket ID -> claimed
	deleted  int64
	stats    []models.PrizeTicketStats
}

func (f *fakeWinningTicketRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, tickets []*models.WinningTicket) error {
	for _, t := range tickets {
		t.ID = len(f.created) + 1
		f.created = append(f.created, t)
	}
	return nil
}

func (f *fakeWinningTicketRepo) ExistsByCompetition(ctx context.Context, exec repositories.SQLExecutor, competitionID int) (bool, error) {
	return len(f.existing) > 0, nil
}

func (f *fakeWinningTicketRepo) FindAvailableInNumbers(ctx context.Context, exec repositories.SQLExecutor, competitionID int, numbers []int64) ([]*models.WinningTicket, error) {
	inBlock := make(map[int64]bool, len(numbers))
	for _, n := range numbers {
		inBlock[n] = true
	}
	matches := make([]*models.WinningTicket, 0)
	for _, t := range f.existing {
		if t.CompetitionID == competitionID && t.Status == models.WinningTicketAvailable && inBlock[int64(t.TicketNumber)] {
			matches = append(matches, t)
		}
	}
	return matches, nil
}

func (f *fakeWinningTicketRepo) Claim(ctx context.Context, exec repositories.SQLExecutor, ticketID, userID, entryID int, claimedAt time.Time) error {
	if f.claimed == nil {
		f.claimed = make(map[int]bool)
	}
	if f.claimed[ticketID] {
		return repositories.ErrWinningTicketAlreadyClaimed
	}
	f.claimed[ticketID] = true
	return nil
}

func (f *fakeWinningTicketRepo) DeleteByCompetition(ctx context.Context, exec repositories.SQLExecutor, competitionID int, prizeID *int) (int64, error) {
	return f.deleted, nil
}

func (f *fakeWinningTicketRepo) StatsByCompetition(ctx context.Context, competitionID int) ([]models.PrizeTicketStats, error) {
	return f.stats, nil
}

type fakeTicketCounterRepo struct {
	repositories.TicketCounterRepository
	lastTicketNumber int
	totalTickets     int
}

func (f *fakeTicketCounterRepo) AllocateRange(ctx context.Context, exec repositories.SQLExecutor, competitionID, count int) (*models.TicketRange, error) {
	if f.lastTicketNumber+count > f.totalTickets {
		return nil, repositories.ErrInsufficientTickets
	}
	f.lastTicketNumber += count
	return &models.TicketRange{Start: f.lastTicketNumber - count + 1, End: f.lastTicketNumber}, nil
}

type fakeEntryRepo struct {
	repositories.EntryRepository
	created []*models.CompetitionEntry
}

func (f *fakeEntryRepo) Create(ctx context.Context, exec repositories.SQLExecutor, entry *models.CompetitionEntry) error {
	entry.ID = len(f.created) + 1
	f.created = append(f.created, entry)
	return nil
}

type fakeWalletRepo struct {
	repositories.WalletRepository
	balance        int
	transactions   []*models.WalletTransaction
	createdWallets []int
}

func (f *fakeWalletRepo) CreateForUser(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
	f.createdWallets = append(f.createdWallets, userID)
	return nil
}

func (f *fakeWalletRepo) Debit(ctx context.Context, exec repositories.SQLExecutor, userID, amount int) error {
	if amount > f.balance {
		return repositories.ErrInsufficientFunds
	}
	f.balance -= amount
	return nil
}

func (f *fakeWalletRepo) RecordTransaction(ctx context.Context, exec repositories.SQLExecutor, tx *models.WalletTransaction) error {
	tx.ID = len(f.transactions) + 1
	f.transactions = append(f.transactions, tx)
	return nil
}

type fakeProductRepo struct {
	repositories.ProductRepository
	products map[int]*models.Product
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id int) (*models.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, repositories.ErrProductNotFound
}

func (f *fakeProductRepo) GetByIDs(ctx context.Context, ids []int) (map[int]*models.Product, error) {
	out := make(map[int]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}
