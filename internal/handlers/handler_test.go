// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides in-memory fakes shared by the handler tests.
// Tests that need sessions skip when Valkey is unavailable.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"hopecity/internal/ai"
	"hopecity/internal/auth"
	"hopecity/internal/invite"
	"hopecity/internal/models"
	"hopecity/internal/notify"
	"hopecity/internal/remote"
	"hopecity/internal/render"
	"hopecity/internal/siteconfig"
	"hopecity/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testValkeyClient returns a client on DB 15. Skips if Valkey is
// unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "hc:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})
	return client
}

func testRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	rn, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return rn
}

// memBlob is an in-memory siteconfig.Blob and pin.Blob.
type memBlob struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemBlob() *memBlob { return &memBlob{data: make(map[string]string)} }

func (b *memBlob) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *memBlob) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	return nil
}

func localConfig() *siteconfig.Store {
	return siteconfig.New(newMemBlob(), nil, notify.New())
}

// failingBackend serves an empty settings row but fails every write.
type failingBackend struct{}

func (failingBackend) FetchSettings(context.Context) (*models.SettingsRow, error) {
	return &models.SettingsRow{ID: remote.SettingsRowID}, nil
}
func (failingBackend) FetchEvents(context.Context) ([]models.EventRow, error) { return nil, nil }
func (failingBackend) Atomic() bool                                           { return true }
func (failingBackend) WithTx(context.Context, func(remote.Tx) error) error {
	return errors.New("connection refused")
}

func remoteConfig() *siteconfig.Store {
	return siteconfig.New(newMemBlob(), remote.New(failingBackend{}), notify.New())
}

func withPrincipal(r *http.Request) *http.Request {
	p := auth.Principal{UserID: uuid.New(), Email: "pastor@hopecity.church", Role: models.RoleAdmin}
	return r.WithContext(auth.WithPrincipal(r.Context(), p))
}

// fakePages is an in-memory PageCache with the same generation rules as
// cache.PageCache.
type fakePages struct {
	mu    sync.Mutex
	gen   int64
	items map[string][]byte
}

func newFakePages() *fakePages { return &fakePages{items: make(map[string][]byte)} }

func (p *fakePages) Get(_ context.Context, key string) ([]byte, int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.items[fmt.Sprint(p.gen, ":", key)]
	return b, p.gen, ok
}

func (p *fakePages) Set(_ context.Context, key string, gen int64, body []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[fmt.Sprint(gen, ":", key)] = body
}

// invalidate bumps the generation and drops every entry.
func (p *fakePages) invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	clear(p.items)
}

// current returns the entry readers would be served for key.
func (p *fakePages) current(key string) ([]byte, bool) {
	b, _, ok := p.Get(context.Background(), key)
	return b, ok
}

// hookBlob runs afterGet once a read has completed, before the value is
// returned to the caller.
type hookBlob struct {
	*memBlob
	afterGet func()
}

func (b *hookBlob) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := b.memBlob.Get(ctx, key)
	if b.afterGet != nil {
		b.afterGet()
	}
	return v, ok, err
}

// fakeGen is a prayer.Generator with canned answers.
type fakeGen struct {
	text    string
	err     error
	flagged bool
}

func (g *fakeGen) Generate(context.Context, string, string) (string, error) {
	return g.text, g.err
}

func (g *fakeGen) CheckPrompt(context.Context, string) (*ai.ModerationResult, error) {
	if g.flagged {
		return &ai.ModerationResult{Safe: false, Categories: []string{"violence"}}, nil
	}
	return &ai.ModerationResult{Safe: true}, nil
}

// fakeLimiter locks a key after limit failures.
type fakeLimiter struct {
	mu    sync.Mutex
	limit int
	fails map[string]int
}

func newFakeLimiter(limit int) *fakeLimiter {
	return &fakeLimiter{limit: limit, fails: make(map[string]int)}
}

func (l *fakeLimiter) Locked(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fails[key] >= l.limit, nil
}

func (l *fakeLimiter) Fail(_ context.Context, key string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fails[key]++
	return l.limit - l.fails[key], nil
}

func (l *fakeLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.fails, key)
	return nil
}

// fakeUsers is an in-memory Users store.
type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	invites map[string]string // token -> email
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: make(map[string]*models.User), invites: make(map[string]string)}
}

func (f *fakeUsers) add(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &models.User{ID: uuid.New(), Email: email, PasswordHash: string(hash), DisplayName: email, Role: models.RoleAdmin}
	f.mu.Lock()
	f.byEmail[email] = u
	f.mu.Unlock()
	return u
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) CheckPassword(user *models.User, password string) bool {
	if user.PendingInvite() || user.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

func (f *fakeUsers) SetTOTPSecret(_ context.Context, id uuid.UUID, secret string) error {
	return f.update(id, func(u *models.User) { u.TOTPSecret = &secret })
}

func (f *fakeUsers) EnableTOTP(_ context.Context, id uuid.UUID) error {
	return f.update(id, func(u *models.User) { u.TOTPEnabled = true })
}

func (f *fakeUsers) update(id uuid.UUID, fn func(*models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			fn(u)
			return nil
		}
	}
	return errors.New("user not found")
}

func (f *fakeUsers) FindByInviteToken(_ context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.invites[token]
	if !ok {
		return nil, nil
	}
	cp := *f.byEmail[email]
	return &cp, nil
}

func (f *fakeUsers) AcceptInvite(_ context.Context, token, password, displayName string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.invites[token]
	if !ok {
		return nil, store.ErrInviteInvalid
	}
	delete(f.invites, token)

	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := f.byEmail[email]
	u.PasswordHash = string(hash)
	u.InviteTokenHash = nil
	if displayName != "" {
		u.DisplayName = displayName
	}
	cp := *u
	return &cp, nil
}

// fakeRelay records invitations.
type fakeRelay struct {
	err  error
	sent []string
}

func (f *fakeRelay) Invite(_ context.Context, email string) (*invite.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, email)
	return &invite.Result{User: &models.User{ID: uuid.New(), Email: email, Role: models.RoleAdmin}}, nil
}
