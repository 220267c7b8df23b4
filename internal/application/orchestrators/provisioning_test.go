package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	emailAdapter "gymhub/internal/adapters/email"
	"gymhub/internal/domain/account"
	"gymhub/internal/domain/attendance"
	"gymhub/internal/domain/audit"
	"gymhub/internal/domain/branch"
	"gymhub/internal/domain/featureflag"
)

// mockAccountStore implements the account store interfaces in memory.
type mockAccountStore struct {
	accounts map[string]account.Account
	grants   map[string][]featureflag.Grant
	saves    int
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{accounts: map[string]account.Account{}, grants: map[string][]featureflag.Grant{}}
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.Email == strings.ToLower(email) {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	m.saves++
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccountStore) Count(_ context.Context, role string) (int, error) {
	n := 0
	for _, a := range m.accounts {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}

func (m *mockAccountStore) CreateWithGrants(ctx context.Context, a account.Account, grants []featureflag.Grant) error {
	if _, err := m.GetByEmail(ctx, a.Email); err == nil {
		return account.ErrDuplicateEmail
	}
	m.accounts[a.ID] = a
	m.grants[a.ID] = grants
	return nil
}

func (m *mockAccountStore) Delete(_ context.Context, id string) error {
	delete(m.accounts, id)
	delete(m.grants, id)
	return nil
}

func (m *mockAccountStore) SetGrant(_ context.Context, g featureflag.Grant) error {
	for i, existing := range m.grants[g.AccountID] {
		if existing.FeatureKey == g.FeatureKey {
			m.grants[g.AccountID][i] = g
			return nil
		}
	}
	return featureflag.ErrUnknownFeature
}

// mockBranchStore implements BranchStoreForProvisioning and BranchLookup.
type mockBranchStore struct {
	branches  map[string]branch.Branch
	settings  map[string]attendance.Settings
	nonEmpty  map[string]bool
	createErr error
}

func newMockBranchStore() *mockBranchStore {
	return &mockBranchStore{branches: map[string]branch.Branch{}, settings: map[string]attendance.Settings{}, nonEmpty: map[string]bool{}}
}

func (m *mockBranchStore) GetByID(_ context.Context, id string) (branch.Branch, error) {
	b, ok := m.branches[id]
	if !ok {
		return branch.Branch{}, branch.ErrNotFound
	}
	return b, nil
}

func (m *mockBranchStore) Save(_ context.Context, b branch.Branch) error {
	m.branches[b.ID] = b
	return nil
}

func (m *mockBranchStore) CreateWithSettings(_ context.Context, b branch.Branch, s attendance.Settings) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.branches[b.ID] = b
	m.settings[b.ID] = s
	return nil
}

func (m *mockBranchStore) Delete(_ context.Context, id string) error {
	if _, ok := m.branches[id]; !ok {
		return branch.ErrNotFound
	}
	if m.nonEmpty[id] {
		return branch.ErrNotEmpty
	}
	delete(m.branches, id)
	return nil
}

// failingSender implements emailAdapter.Sender and always fails.
type failingSender struct{ calls int }

func (f *failingSender) Send(context.Context, emailAdapter.Message) (string, error) {
	f.calls++
	return "", errors.New("resend: 503")
}

// TestExecuteCreateBranch_WithDefaultSettings verifies the branch is created with default attendance settings.
func TestExecuteCreateBranch_WithDefaultSettings(t *testing.T) {
	store := newMockBranchStore()
	rec := &recordingAudit{}
	deps := BranchDeps{BranchStore: store, Audit: rec, GenerateID: seqIDs("br"), Now: clockAt(testNow)}

	b, err := ExecuteCreateBranch(context.Background(), BranchInput{Name: " Downtown ", Actor: superAdmin}, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Name != "Downtown" || b.Status != branch.StatusActive {
		t.Errorf("branch = %+v", b)
	}
	s := store.settings[b.ID]
	if s.MaxEntriesPerDay != 1 || s.AutoCheckoutAfter != 180 || s.RequireCheckout {
		t.Errorf("settings = %+v", s)
	}
	if acts := rec.actions(); len(acts) != 1 || acts[0] != audit.ActionCreate {
		t.Errorf("audit = %v", acts)
	}

	store.createErr = branch.ErrDuplicateName
	if _, err := ExecuteCreateBranch(context.Background(), BranchInput{Name: "Downtown"}, deps); !errors.Is(err, branch.ErrDuplicateName) {
		t.Errorf("duplicate = %v", err)
	}
	if _, err := ExecuteCreateBranch(context.Background(), BranchInput{Name: "  "}, deps); !errors.Is(err, branch.ErrEmptyName) {
		t.Errorf("empty name = %v", err)
	}
}

// TestExecuteDeleteBranch verifies branches with dependents are kept.
func TestExecuteDeleteBranch(t *testing.T) {
	tests := []struct {
		name     string
		nonEmpty bool
		id       string
		wantErr  error
	}{
		{"empty branch", false, "b1", nil},
		{"branch with customers", true, "b1", branch.ErrNotEmpty},
		{"missing branch", false, "nope", branch.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockBranchStore()
			store.branches["b1"] = branch.Branch{ID: "b1", Name: "Downtown", Status: branch.StatusActive}
			store.nonEmpty["b1"] = tt.nonEmpty
			err := ExecuteDeleteBranch(context.Background(), BranchInput{ID: tt.id, Actor: superAdmin}, BranchDeps{BranchStore: store})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			_, kept := store.branches["b1"]
			if kept != (tt.wantErr != nil) {
				t.Errorf("branch kept = %v", kept)
			}
		})
	}
}

func adminDeps(sender emailAdapter.Sender) (BranchAdminDeps, *mockAccountStore) {
	accounts := newMockAccountStore()
	branches := newMockBranchStore()
	branches.branches["b1"] = branch.Branch{ID: "b1", Name: "Downtown", Status: branch.StatusActive}
	return BranchAdminDeps{
		AccountStore: accounts,
		BranchStore:  branches,
		GrantStore:   accounts,
		EmailSender:  sender,
		Audit:        &recordingAudit{},
		GenerateID:   seqIDs("acct"),
		Now:          clockAt(testNow),
	}, accounts
}

// TestExecuteCreateBranchAdmin verifies grants, welcome email and duplicate handling.
func TestExecuteCreateBranchAdmin(t *testing.T) {
	sender := &emailAdapter.LogSender{}
	deps, accounts := adminDeps(sender)
	ctx := context.Background()
	in := CreateBranchAdminInput{Name: "Dana", Email: " Dana@Gym.Test ", Password: "s3cret-pass", BranchID: "b1", LoginURL: "https://gym.test/login", Actor: superAdmin}

	acct, err := ExecuteCreateBranchAdmin(ctx, in, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if acct.Email != "dana@gym.test" || acct.Role != account.RoleBranchAdmin || acct.BranchName != "Downtown" {
		t.Errorf("account = %+v", acct)
	}
	if err := acct.CheckPassword("s3cret-pass"); err != nil {
		t.Errorf("password not set: %v", err)
	}
	if got := len(accounts.grants[acct.ID]); got != len(featureflag.Catalog()) {
		t.Errorf("grants = %d, want %d", got, len(featureflag.Catalog()))
	}

	sent := sender.Sent()
	if len(sent) != 1 || sent[0].To != "dana@gym.test" || !strings.Contains(sent[0].HTML, "https://gym.test/login") {
		t.Errorf("welcome email = %+v", sent)
	}

	if _, err := ExecuteCreateBranchAdmin(ctx, in, deps); !errors.Is(err, account.ErrDuplicateEmail) {
		t.Errorf("duplicate = %v", err)
	}
	in.Email, in.BranchID = "other@gym.test", "missing"
	if _, err := ExecuteCreateBranchAdmin(ctx, in, deps); !errors.Is(err, branch.ErrNotFound) {
		t.Errorf("missing branch = %v", err)
	}
	in.BranchID, in.Password = "b1", "short"
	if _, err := ExecuteCreateBranchAdmin(ctx, in, deps); !errors.Is(err, account.ErrPasswordTooShort) {
		t.Errorf("short password = %v", err)
	}
}

// TestExecuteCreateBranchAdmin_EmailFailureIsNotFatal verifies the account survives a failed welcome email.
func TestExecuteCreateBranchAdmin_EmailFailureIsNotFatal(t *testing.T) {
	sender := &failingSender{}
	deps, accounts := adminDeps(sender)
	acct, err := ExecuteCreateBranchAdmin(context.Background(), CreateBranchAdminInput{Name: "Dana", Email: "dana@gym.test", Password: "s3cret-pass", BranchID: "b1"}, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sender.calls != 1 {
		t.Errorf("send calls = %d", sender.calls)
	}
	if _, ok := accounts.accounts[acct.ID]; !ok {
		t.Error("account missing after email failure")
	}
}

// TestExecuteToggleFeature flips exactly one grant.
func TestExecuteToggleFeature(t *testing.T) {
	deps, accounts := adminDeps(nil)
	ctx := context.Background()
	acct, err := ExecuteCreateBranchAdmin(ctx, CreateBranchAdminInput{Name: "Dana", Email: "dana@gym.test", Password: "s3cret-pass", BranchID: "b1"}, deps)
	if err != nil {
		t.Fatal(err)
	}
	accounts.accounts["sa"] = account.Account{ID: "sa", Email: "root@gym.test", Role: account.RoleSuperAdmin}

	if err := ExecuteToggleFeature(ctx, ToggleFeatureInput{AccountID: acct.ID, FeatureKey: featureflag.Reports, Enabled: false, Actor: superAdmin}, deps); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	perms := featureflag.FromGrants(accounts.grants[acct.ID])
	if perms.Allows(featureflag.Reports) {
		t.Error("reports still enabled")
	}
	for _, f := range featureflag.Catalog() {
		if f.Key != featureflag.Reports && !perms.Allows(f.Key) {
			t.Errorf("%s disabled as a side effect", f.Key)
		}
	}

	if err := ExecuteToggleFeature(ctx, ToggleFeatureInput{AccountID: acct.ID, FeatureKey: "billing"}, deps); !errors.Is(err, featureflag.ErrUnknownFeature) {
		t.Errorf("unknown feature = %v", err)
	}
	if err := ExecuteToggleFeature(ctx, ToggleFeatureInput{AccountID: "sa", FeatureKey: featureflag.Reports}, deps); !errors.Is(err, ErrNotBranchAdmin) {
		t.Errorf("super admin target = %v", err)
	}
	if err := ExecuteDeleteBranchAdmin(ctx, DeleteBranchAdminInput{AccountID: "sa"}, deps); !errors.Is(err, ErrNotBranchAdmin) {
		t.Errorf("delete super admin = %v", err)
	}
	if err := ExecuteDeleteBranchAdmin(ctx, DeleteBranchAdminInput{AccountID: acct.ID}, deps); err != nil {
		t.Errorf("delete = %v", err)
	}
	if _, ok := accounts.grants[acct.ID]; ok {
		t.Error("grants left behind")
	}
}

// TestExecuteLogin_Lockout verifies five failures lock the account for fifteen minutes.
func TestExecuteLogin_Lockout(t *testing.T) {
	store := newMockAccountStore()
	acct := account.Account{ID: "a1", Name: "Dana", Email: "dana@gym.test", Role: account.RoleBranchAdmin, BranchID: "b1", BranchName: "Downtown"}
	if err := acct.SetPassword("s3cret-pass"); err != nil {
		t.Fatal(err)
	}
	store.accounts[acct.ID] = acct

	now := testNow
	counter := newCountingCounter()
	rec := &recordingAudit{}
	deps := LoginDeps{AccountStore: store, Audit: rec, Counter: counter, Now: func() time.Time { return now }}
	ctx := context.Background()

	for i := 0; i < account.MaxFailedLogins; i++ {
		if _, err := ExecuteLogin(ctx, LoginInput{Email: "dana@gym.test", Password: "wrong"}, deps); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d = %v", i+1, err)
		}
	}
	if got := counter.get(EventLoginLocked); got != 1 {
		t.Errorf("login_locked = %d, want 1", got)
	}
	if _, err := ExecuteLogin(ctx, LoginInput{Email: "dana@gym.test", Password: "s3cret-pass"}, deps); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("locked login = %v, want %v", err, ErrAccountLocked)
	}

	now = now.Add(account.LockoutDuration + time.Second)
	res, err := ExecuteLogin(ctx, LoginInput{Email: "DANA@gym.test", Password: "s3cret-pass"}, deps)
	if err != nil {
		t.Fatalf("login after lockout: %v", err)
	}
	if res.BranchID != "b1" || res.BranchName != "Downtown" || res.Role != account.RoleBranchAdmin {
		t.Errorf("result = %+v", res)
	}
	if store.accounts["a1"].FailedLogins != 0 {
		t.Error("failed logins not reset")
	}
	if len(rec.events) != 2 {
		t.Errorf("audit events = %d, want lock + login", len(rec.events))
	}
}

// TestExecuteLogin_UnknownEmail verifies unknown accounts look like wrong passwords.
func TestExecuteLogin_UnknownEmail(t *testing.T) {
	counter := newCountingCounter()
	deps := LoginDeps{AccountStore: newMockAccountStore(), Counter: counter}
	for _, in := range []LoginInput{{Email: "ghost@gym.test", Password: "x"}, {}} {
		if _, err := ExecuteLogin(context.Background(), in, deps); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("ExecuteLogin(%+v) = %v", in, err)
		}
	}
	if got := counter.get(EventLoginFailed); got != 1 {
		t.Errorf("login_failed = %d, want 1", got)
	}
}

// TestExecuteSeedSuperAdmin creates the bootstrap account exactly once.
func TestExecuteSeedSuperAdmin(t *testing.T) {
	store := newMockAccountStore()
	deps := SeedSuperAdminDeps{AccountStore: store, GenerateID: seqIDs("sa"), Now: clockAt(testNow)}
	ctx := context.Background()
	in := SeedSuperAdminInput{Email: "Root@Gym.Test", Password: "s3cret-pass"}

	created, err := ExecuteSeedSuperAdmin(ctx, in, deps)
	if err != nil || !created {
		t.Fatalf("first seed = %v, %v", created, err)
	}
	if a := store.accounts["sa-1"]; a.Email != "root@gym.test" || a.Name != "Super Admin" || a.Role != account.RoleSuperAdmin {
		t.Errorf("account = %+v", a)
	}
	created, err = ExecuteSeedSuperAdmin(ctx, in, deps)
	if err != nil || created {
		t.Errorf("second seed = %v, %v; want no-op", created, err)
	}
	if created, _ := ExecuteSeedSuperAdmin(ctx, SeedSuperAdminInput{}, deps); created {
		t.Error("seed without credentials created an account")
	}
}
