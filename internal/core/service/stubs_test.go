package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	nextID    int64
	byID      map[int64]*domain.User
	owners    map[int64]bool // users that still own clients
	createErr error          // returned once by Create, then cleared
	onCreate  func()         // runs before a failing create returns
	promoted  []int64
}

func newStubUserRepo(users ...domain.User) *stubUserRepo {
	r := &stubUserRepo{byID: map[int64]*domain.User{}, owners: map[int64]bool{}}
	for _, u := range users {
		u := u
		u.Email = domain.NormalizeEmail(u.Email)
		r.byID[u.ID] = &u
		if u.ID > r.nextID {
			r.nextID = u.ID
		}
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		if r.onCreate != nil {
			r.onCreate()
		}
		return nil, err
	}
	email := domain.NormalizeEmail(u.Email)
	for _, existing := range r.byID {
		if existing.Email == email {
			return nil, domain.ErrDuplicateKey
		}
	}
	r.nextID++
	stored := *u
	stored.ID = r.nextID
	stored.Email = email
	r.byID[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *stubUserRepo) List(context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.byID))
	for id := int64(1); id <= r.nextID; id++ {
		if u, ok := r.byID[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	for _, u := range r.byID {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) SetActive(_ context.Context, id int64, active bool) error {
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Active = active
	return nil
}

func (r *stubUserRepo) Promote(_ context.Context, id int64) error {
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Active = true
	u.Role = domain.RoleAdmin
	r.promoted = append(r.promoted, id)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	if r.owners[id] {
		return domain.ErrUserHasClients
	}
	delete(r.byID, id)
	return nil
}

type stubClientRepo struct {
	nextID     int64
	byID       map[int64]*domain.Client
	order      []int64
	sellers    map[int64]string
	listedAll  bool
	listedFor  int64
	lastCreate time.Time
	lastStamp  *time.Time
}

func newStubClientRepo(sellers map[int64]string) *stubClientRepo {
	return &stubClientRepo{byID: map[int64]*domain.Client{}, sellers: sellers}
}

func (r *stubClientRepo) Create(_ context.Context, in domain.NewClient, createdAt time.Time) (*domain.Client, error) {
	if _, ok := r.sellers[in.SellerID]; !ok {
		return nil, domain.ErrSellerNotFound
	}
	r.nextID++
	r.lastCreate = createdAt
	c := &domain.Client{
		ID:              r.nextID,
		SellerID:        in.SellerID,
		Name:            in.Name,
		Phone:           in.Phone,
		Description:     in.Description,
		WhatsAppMessage: in.WhatsAppMessage,
		ScheduledAt:     in.ScheduledAt,
		Status:          domain.ClientPending,
		CreatedAt:       createdAt,
	}
	r.byID[c.ID] = c
	r.order = append(r.order, c.ID)
	out := *c
	return &out, nil
}

func (r *stubClientRepo) FindByID(_ context.Context, id int64) (*domain.Client, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	out := *c
	return &out, nil
}

func (r *stubClientRepo) ListBySeller(_ context.Context, sellerID int64) ([]domain.Client, error) {
	r.listedFor = sellerID
	var out []domain.Client
	for _, id := range r.order {
		if c, ok := r.byID[id]; ok && c.SellerID == sellerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubClientRepo) ListAllWithSeller(context.Context) ([]domain.Client, error) {
	r.listedAll = true
	var out []domain.Client
	for _, id := range r.order {
		if c, ok := r.byID[id]; ok {
			cc := *c
			cc.SellerName = r.sellers[c.SellerID]
			out = append(out, cc)
		}
	}
	return out, nil
}

func (r *stubClientRepo) Update(_ context.Context, id int64, ch domain.ClientChanges, concludedAt *time.Time) (*domain.Client, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	r.lastStamp = concludedAt
	c.Name = ch.Name
	c.Phone = ch.Phone
	c.Description = ch.Description
	c.ScheduledAt = ch.ScheduledAt
	c.Status = ch.Status
	c.WhatsAppMessage = ch.WhatsAppMessage
	if concludedAt != nil {
		c.ConcludedAt = concludedAt
	}
	out := *c
	return &out, nil
}

func (r *stubClientRepo) Delete(_ context.Context, id int64) (int64, error) {
	c, ok := r.byID[id]
	if !ok {
		return 0, domain.ErrClientNotFound
	}
	delete(r.byID, id)
	return c.SellerID, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, ev domain.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) count(t domain.EventType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, ev := range n.events {
		if ev.Type == t {
			c++
		}
	}
	return c
}

func isValidation(err error) bool {
	var ve *domain.ValidationError
	return errors.As(err, &ve)
}
