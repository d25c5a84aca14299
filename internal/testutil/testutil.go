package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/mail"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/payments"
)

const TestPassword = "secret1"

// SetupTestDB creates a migrated in-memory SQLite database closed at test end.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// every pooled connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// TestConfig holds the lifetimes and URLs services read from configuration.
func TestConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret-key-for-testing",
		JWTIssuer:        "gymbro-test",
		UserSessionTTL:   2 * time.Hour,
		AdminSessionTTL:  8 * time.Hour,
		FederatedSessTTL: 30 * 24 * time.Hour,
		VerificationTTL:  24 * time.Hour,
		ResetTTL:         time.Hour,
		BcryptCost:       auth.MinBcryptCost,
		PublicBaseURL:    "http://localhost:3000",
		MailFrom:         "GymBro <noreply@gymbro.app>",
	}
}

func TestHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher(auth.MinBcryptCost)
}

func TestIssuer() *auth.SessionIssuer {
	return auth.NewSessionIssuer("test-secret-key-for-testing", "gymbro-test", auth.SessionTTLs{
		User:      2 * time.Hour,
		Admin:     8 * time.Hour,
		Federated: 30 * 24 * time.Hour,
	})
}

// CreateTestUser inserts an active user with TestPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, role models.Role, verified bool) *models.User {
	t.Helper()

	hash, err := TestHasher().Hash(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	suffix := uuid.New().String()[:8]
	user := &models.User{
		ID:                   uuid.New(),
		Username:             "user-" + suffix,
		Email:                "user-" + suffix + "@example.com",
		PasswordHash:         hash,
		Role:                 role,
		IsActive:             true,
		IsEmailVerified:      verified,
		NotificationsEnabled: true,
		Plan:                 models.TierFree,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func GenerateTestToken(t *testing.T, issuer *auth.SessionIssuer, user *models.User) string {
	t.Helper()

	token, _, err := issuer.Issue(user.ID, user.Role, auth.SessionPassword)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

// JSONRequest builds a request for fiber's app.Test; token may be empty.
func JSONRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// DecodeJSON reads and closes resp.Body into v.
func DecodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, data)
	}
}

// Mailbox records dispatched mail instead of sending it.
type Mailbox struct {
	mu   sync.Mutex
	Sent []mail.Message
	Err  error
}

func (m *Mailbox) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

func (m *Mailbox) Last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		t.Fatal("no mail was dispatched")
	}
	return m.Sent[len(m.Sent)-1]
}

func (m *Mailbox) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// EventRecorder captures published account events.
type EventRecorder struct {
	mu     sync.Mutex
	Events []events.Event
}

func (r *EventRecorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
	return nil
}

func (r *EventRecorder) Close() error { return nil }

func (r *EventRecorder) Types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC()}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FakeProcessor is an in-memory payment processor. Intents start as
// "requires_payment_method"; tests flip them with SetStatus.
type FakeProcessor struct {
	mu      sync.Mutex
	seq     int
	intents map[string]*payments.Intent
	Err     error
}

func NewFakeProcessor() *FakeProcessor {
	return &FakeProcessor{intents: make(map[string]*payments.Intent)}
}

func (p *FakeProcessor) CreateIntent(_ context.Context, amount int64, _ string, metadata map[string]string) (*payments.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	p.seq++
	id := fmt.Sprintf("pi_test_%d", p.seq)
	in := &payments.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		Amount:       amount,
		Metadata:     metadata,
	}
	p.intents[id] = in
	cp := *in
	return &cp, nil
}

func (p *FakeProcessor) GetIntent(_ context.Context, id string) (*payments.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	in, ok := p.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such payment intent: %s", id)
	}
	cp := *in
	return &cp, nil
}

func (p *FakeProcessor) SetStatus(id string, status payments.IntentStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if in, ok := p.intents[id]; ok {
		in.Status = status
	}
}

// FakeVerifier accepts tokens registered in Identities.
type FakeVerifier struct {
	Identities map[string]*identity.Identity
}

func (v *FakeVerifier) Verify(_ context.Context, token string) (*identity.Identity, error) {
	id, ok := v.Identities[token]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return id, nil
}
