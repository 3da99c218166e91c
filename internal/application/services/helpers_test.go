package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"storefront-api/internal/application/interfaces"
	"storefront-api/internal/domain"
	"storefront-api/internal/domain/entities"
	"storefront-api/internal/domain/repositories"
	"storefront-api/internal/infrastructure"
	"storefront-api/internal/infrastructure/db/postgres"
)

type sentMail struct {
	kind  string
	email string
	link  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) SendVerification(_ context.Context, email, _, link string) error {
	return n.record("verify", email, link)
}

func (n *fakeNotifier) SendPasswordReset(_ context.Context, email, _, link string) error {
	return n.record("reset", email, link)
}

func (n *fakeNotifier) record(kind, email, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{kind: kind, email: email, link: link})
	return n.err
}

// lastToken returns the token carried by the most recent mail of kind.
func (n *fakeNotifier) lastToken(t *testing.T, kind string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].kind == kind {
			return n.sent[i].link[strings.LastIndex(n.sent[i].link, "/")+1:]
		}
	}
	t.Fatalf("no %s mail sent", kind)
	return ""
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *fakePublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *fakePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, interface{}) error {
	return errors.New("broker down")
}

// countingHasher records how often credentials are compared.
type countingHasher struct {
	interfaces.PasswordHasher
	verifies atomic.Int32
}

func (h *countingHasher) Verify(plaintext, hash string) bool {
	h.verifies.Add(1)
	return h.PasswordHasher.Verify(plaintext, hash)
}

// flakyUserRepo fails Update while failUpdates is set.
type flakyUserRepo struct {
	repositories.UserRepository
	failUpdates atomic.Bool
}

func (r *flakyUserRepo) Update(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error) {
	if r.failUpdates.Load() {
		return nil, fmt.Errorf("%w: store down", domain.ErrUnexpected)
	}
	return r.UserRepository.Update(ctx, user)
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := postgres.Open(postgres.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name), zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

type userFixture struct {
	service   *UserService
	notifier  *fakeNotifier
	publisher *fakePublisher
	redis     *miniredis.Miniredis
	hasher    *countingHasher
	users     *flakyUserRepo
}

type fixtureOption func(*userFixtureDeps)

type userFixtureDeps struct {
	config   UserServiceConfig
	throttle interfaces.Throttle
}

func withConfig(config UserServiceConfig) fixtureOption {
	return func(d *userFixtureDeps) { d.config = config }
}

func withThrottle(throttle interfaces.Throttle) fixtureOption {
	return func(d *userFixtureDeps) { d.throttle = throttle }
}

func newUserFixture(t *testing.T, opts ...fixtureOption) *userFixture {
	t.Helper()

	deps := &userFixtureDeps{
		config: UserServiceConfig{
			VerifyTokenTTL: 24 * time.Hour,
			ResetTokenTTL:  30 * time.Minute,
			PublicBaseURL:  "http://localhost:8080",
		},
		throttle: allowAll{},
	}
	for _, opt := range opts {
		opt(deps)
	}

	db := newTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := zap.NewNop()
	sessions := infrastructure.NewSessionService(
		infrastructure.NewJWTService("test-secret", time.Hour),
		infrastructure.NewRedisServiceFromClient(client, log),
		log,
	)

	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	hasher := &countingHasher{PasswordHasher: infrastructure.NewBcryptHasher(bcrypt.MinCost)}
	users := &flakyUserRepo{UserRepository: postgres.NewUserRepository(db)}
	service := NewUserService(
		users,
		hasher,
		infrastructure.NewTokenService(postgres.NewTokenRepository(db)),
		sessions,
		notifier,
		publisher,
		deps.throttle,
		postgres.NewTransactor(db),
		deps.config,
		log,
	).(*UserService)

	return &userFixture{
		service:   service,
		notifier:  notifier,
		publisher: publisher,
		redis:     mr,
		hasher:    hasher,
		users:     users,
	}
}
