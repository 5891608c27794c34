package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/elm042025/sales-dashboard/internal/domain"
)

// MockProfileRepository is a mock implementation of domain.ProfileRepository for testing.
type MockProfileRepository struct {
	mu        sync.Mutex
	Profiles  []domain.UserProfile
	Confirmed []uuid.UUID
	CreateErr error
	FindErr   error
	ListErr   error
	MarkErr   error
}

func (m *MockProfileRepository) Create(ctx context.Context, p *domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Profiles = append(m.Profiles, *p)
	return nil
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	for i := range m.Profiles {
		if m.Profiles[i].ID == id {
			p := m.Profiles[i]
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockProfileRepository) FindByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	for i := range m.Profiles {
		if m.Profiles[i].Email == email {
			p := m.Profiles[i]
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockProfileRepository) List(ctx context.Context) ([]domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]domain.UserProfile, len(m.Profiles))
	copy(out, m.Profiles)
	return out, nil
}

func (m *MockProfileRepository) MarkEmailConfirmed(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	for i := range m.Profiles {
		if m.Profiles[i].ID == id {
			m.Profiles[i].EmailConfirmed = true
			m.Confirmed = append(m.Confirmed, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

// MockDealRepository is a mock implementation of domain.DealRepository for testing.
type MockDealRepository struct {
	mu            sync.Mutex
	InsertedDeals []domain.Deal
	ListResult    []domain.Deal
	InsertErr     error
	ListErr       error
	ListCalls     int
}

func (m *MockDealRepository) Insert(ctx context.Context, actorID uuid.UUID, deal *domain.Deal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}
	if deal.CreatedAt.IsZero() {
		deal.CreatedAt = time.Now().UTC()
	}
	m.InsertedDeals = append(m.InsertedDeals, *deal)
	return nil
}

func (m *MockDealRepository) ListBetween(ctx context.Context, start, end time.Time) ([]domain.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]domain.Deal, len(m.ListResult))
	copy(out, m.ListResult)
	return out, nil
}

// MockDealPublisher is a mock implementation of domain.DealPublisher for testing.
type MockDealPublisher struct {
	mu         sync.Mutex
	Published  []domain.Deal
	PublishErr error
}

func (m *MockDealPublisher) Publish(ctx context.Context, deal domain.Deal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Published = append(m.Published, deal)
	return nil
}

// PublishedDeals returns a copy of the recorded publishes.
func (m *MockDealPublisher) PublishedDeals() []domain.Deal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Deal, len(m.Published))
	copy(out, m.Published)
	return out
}

// MockDealSubscriber is a mock implementation of domain.DealSubscriber.
// Tests feed events through Ch; closing Ch simulates a dropped feed.
type MockDealSubscriber struct {
	Ch           chan domain.Deal
	SubscribeErr error
}

func (m *MockDealSubscriber) Subscribe(ctx context.Context) (<-chan domain.Deal, error) {
	if m.SubscribeErr != nil {
		return nil, m.SubscribeErr
	}
	return m.Ch, nil
}

// MockDealBatchReader is a mock implementation of domain.DealBatchReader for
// testing. Batches are served one ReadBatch call at a time.
type MockDealBatchReader struct {
	mu           sync.Mutex
	Batches      [][]domain.Deal
	AckedIDs     []string
	DeadLettered []domain.Deal
	ReadErr      error
	AckErr       error
	DLQErr       error
}

func (m *MockDealBatchReader) ReadBatch(ctx context.Context, group, consumer string, count int) ([]domain.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if len(m.Batches) == 0 {
		return nil, nil
	}
	batch := m.Batches[0]
	m.Batches = m.Batches[1:]
	return batch, nil
}

func (m *MockDealBatchReader) Acknowledge(ctx context.Context, group string, streamIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AckErr != nil {
		return m.AckErr
	}
	m.AckedIDs = append(m.AckedIDs, streamIDs...)
	return nil
}

func (m *MockDealBatchReader) MoveToDeadLetter(ctx context.Context, deals []domain.Deal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DLQErr != nil {
		return m.DLQErr
	}
	m.DeadLettered = append(m.DeadLettered, deals...)
	return nil
}

// MockRollupRepository is a mock implementation of domain.RollupRepository for testing.
type MockRollupRepository struct {
	mu           sync.Mutex
	Recomputed   [][]domain.RollupKey
	TotalsResult []domain.QuarterTotal
	RecomputeErr error
	TotalsErr    error
}

func (m *MockRollupRepository) Recompute(ctx context.Context, keys []domain.RollupKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecomputeErr != nil {
		return m.RecomputeErr
	}
	batch := make([]domain.RollupKey, len(keys))
	copy(batch, keys)
	m.Recomputed = append(m.Recomputed, batch)
	return nil
}

func (m *MockRollupRepository) TotalsForQuarter(ctx context.Context, quarterStart time.Time) ([]domain.QuarterTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TotalsErr != nil {
		return nil, m.TotalsErr
	}
	return m.TotalsResult, nil
}

// MockSessionRepository is a mock implementation of domain.SessionRepository for testing.
type MockSessionRepository struct {
	mu         sync.Mutex
	Revoked    map[string]time.Time
	RevokeErr  error
	CheckErr   error
	AlwaysGone bool
}

func (m *MockSessionRepository) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RevokeErr != nil {
		return m.RevokeErr
	}
	if m.Revoked == nil {
		m.Revoked = make(map[string]time.Time)
	}
	m.Revoked[tokenID] = until
	return nil
}

func (m *MockSessionRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CheckErr != nil {
		return false, m.CheckErr
	}
	if m.AlwaysGone {
		return true, nil
	}
	_, ok := m.Revoked[tokenID]
	return ok, nil
}

// MockConfirmationRepository is a mock implementation of domain.ConfirmationRepository for testing.
type MockConfirmationRepository struct {
	mu         sync.Mutex
	Tokens     map[string]uuid.UUID
	StoreErr   error
	ConsumeErr error
}

func (m *MockConfirmationRepository) Store(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StoreErr != nil {
		return m.StoreErr
	}
	if m.Tokens == nil {
		m.Tokens = make(map[string]uuid.UUID)
	}
	m.Tokens[token] = userID
	return nil
}

func (m *MockConfirmationRepository) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConsumeErr != nil {
		return uuid.Nil, m.ConsumeErr
	}
	userID, ok := m.Tokens[token]
	if !ok {
		return uuid.Nil, domain.ErrNotFound
	}
	delete(m.Tokens, token)
	return userID, nil
}
