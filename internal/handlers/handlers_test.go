package handlers_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/payments"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/testutil"
)

type testApp struct {
	app       *fiber.App
	db        *gorm.DB
	users     *store.UserStore
	issuer    *auth.SessionIssuer
	mailbox   *testutil.Mailbox
	processor *testutil.FakeProcessor
}

func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.TestConfig()
	issuer := testutil.TestIssuer()
	users := store.NewUserStore(db)
	hasher := testutil.TestHasher()
	mailbox := &testutil.Mailbox{}
	rec := &testutil.EventRecorder{}
	proc := testutil.NewFakeProcessor()

	authService := services.NewAuthService(users, hasher, issuer, mailbox, rec, cfg)
	authService.RegisterVerifier(store.ProviderGoogle, &testutil.FakeVerifier{Identities: map[string]*identity.Identity{
		"google-ok":       {Subject: "g-1", Email: "federated@example.com", EmailVerified: true},
		"google-no-email": {Subject: "g-2"},
	}})
	planService := services.NewPlanService(db)

	app := fiber.New()
	routes.Setup(app, cfg, issuer, users, routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		User:    handlers.NewUserHandler(services.NewUserService(users, rec)),
		Plan:    handlers.NewPlanHandler(planService),
		Payment: handlers.NewPaymentHandler(services.NewPaymentService(db, users, proc, rec)),
		News:    handlers.NewNewsHandler(services.NewNewsService()),
		Admin:   handlers.NewAdminHandler(services.NewAdminService(users, planService, hasher)),
		Health:  handlers.NewHealthHandler(db),
	}, nil)

	return &testApp{app: app, db: db, users: users, issuer: issuer, mailbox: mailbox, processor: proc}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := a.app.Test(testutil.JSONRequest(t, method, path, body, token), -1)
	require.NoError(t, err)

	var out map[string]interface{}
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		testutil.DecodeJSON(t, resp, &out)
	}
	return resp.StatusCode, out
}

func TestAccountLifecycle(t *testing.T) {
	a := setupApp(t)

	status, body := a.do(t, "POST", "/api/users/signup", dto.SignupRequest{
		Username: "gymrat", Email: "gymrat@example.com", Password: "secret1",
	}, "")
	require.Equal(t, fiber.StatusCreated, status)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "password_hash")

	status, body = a.do(t, "POST", "/api/users/login", dto.LoginRequest{Email: "gymrat@example.com", Password: "secret1"}, "")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, true, body["needs_verification"])
	assert.Equal(t, "gymrat@example.com", body["email"])

	link := a.mailbox.Last(t).Link
	token := link[strings.LastIndex(link, "/")+1:]
	status, _ = a.do(t, "GET", "/api/users/verify-email/"+token, nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	status, body = a.do(t, "GET", "/api/users/verify-email/"+token, nil, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid or expired verification token", body["message"])

	status, body = a.do(t, "POST", "/api/users/login", dto.LoginRequest{Email: "gymrat@example.com", Password: "secret1"}, "")
	require.Equal(t, fiber.StatusOK, status)
	session := body["token"].(string)

	status, body = a.do(t, "GET", "/api/users/profile", nil, session)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "gymrat", body["user"].(map[string]interface{})["username"])

	status, body = a.do(t, "PUT", "/api/users/profile", map[string]interface{}{"privacy": "private", "height_cm": 180}, session)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "private", body["user"].(map[string]interface{})["privacy"])

	status, _ = a.do(t, "PUT", "/api/users/profile", map[string]interface{}{"privacy": "everyone"}, session)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = a.do(t, "POST", "/api/users/upgrade", dto.UpgradeRequest{Plan: models.TierMonthly}, session)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "monthly", body["user"].(map[string]interface{})["plan"])

	status, body = a.do(t, "GET", "/api/users/plan", nil, session)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "monthly", body["plan"])

	status, body = a.do(t, "GET", "/api/users/stats", nil, session)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(0), body["total_workouts"])

	status, body = a.do(t, "PUT", "/api/users/change-password", dto.ChangePasswordRequest{CurrentPassword: "wrong-one", NewPassword: "secret2"}, session)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Current password is incorrect", body["message"])
	status, _ = a.do(t, "PUT", "/api/users/change-password", dto.ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "secret2"}, session)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestSignup_Errors(t *testing.T) {
	a := setupApp(t)
	testutil.CreateTestUser(t, a.db, models.RoleUser, true)

	status, _ := a.do(t, "POST", "/api/users/signup", dto.SignupRequest{Username: "x", Email: "bad", Password: "secret1"}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	_, _ = a.do(t, "POST", "/api/users/signup", dto.SignupRequest{Username: "dup", Email: "dup@example.com", Password: "secret1"}, "")
	status, body := a.do(t, "POST", "/api/users/signup", dto.SignupRequest{Username: "dup2", Email: "dup@example.com", Password: "secret1"}, "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "email already registered", body["message"])

	resp, err := a.app.Test(testutil.JSONRequest(t, "POST", "/api/users/signup", nil, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPasswordReset(t *testing.T) {
	a := setupApp(t)
	u := testutil.CreateTestUser(t, a.db, models.RoleUser, true)

	for _, email := range []string{u.Email, "nobody@example.com"} {
		status, body := a.do(t, "POST", "/api/users/forgot-password", dto.EmailRequest{Email: email}, "")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "If that email exists, a reset link has been sent", body["message"])
	}
	assert.Equal(t, 1, a.mailbox.Count())

	link := a.mailbox.Last(t).Link
	token := link[strings.LastIndex(link, "/")+1:]

	status, _ := a.do(t, "POST", "/api/users/reset-password/"+token, dto.ResetPasswordRequest{Password: "fresh-pass"}, "")
	assert.Equal(t, fiber.StatusOK, status)
	status, body := a.do(t, "POST", "/api/users/reset-password/"+token, dto.ResetPasswordRequest{Password: "fresh-pass"}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid or expired reset token", body["message"])

	status, _ = a.do(t, "POST", "/api/users/login", dto.LoginRequest{Email: u.Email, Password: "fresh-pass"}, "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestProtectedRoutes_TokenErrors(t *testing.T) {
	a := setupApp(t)
	u := testutil.CreateTestUser(t, a.db, models.RoleUser, true)

	status, body := a.do(t, "GET", "/api/users/profile", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Authorization token required", body["message"])

	status, body = a.do(t, "GET", "/api/users/profile", nil, "not.a.jwt")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid authorization token", body["message"])

	past := a.issuer.WithClock(func() time.Time { return time.Now().Add(-3 * time.Hour) })
	expired, _, err := past.Issue(u.ID, u.Role, auth.SessionPassword)
	require.NoError(t, err)
	status, body = a.do(t, "GET", "/api/users/profile", nil, expired)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Session expired, please login again", body["message"])
}

func TestAdminGate(t *testing.T) {
	a := setupApp(t)
	admin := testutil.CreateTestUser(t, a.db, models.RoleAdmin, true)
	member := testutil.CreateTestUser(t, a.db, models.RoleUser, true)
	adminToken := testutil.GenerateTestToken(t, a.issuer, admin)

	t.Run("missing token", func(t *testing.T) {
		status, body := a.do(t, "GET", "/api/admin/dashboard", nil, "")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "Authorization token required", body["message"])
	})

	t.Run("invalid token", func(t *testing.T) {
		status, body := a.do(t, "GET", "/api/admin/dashboard", nil, "garbage")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "Invalid authorization token", body["message"])
	})

	t.Run("expired token", func(t *testing.T) {
		past := a.issuer.WithClock(func() time.Time { return time.Now().Add(-9 * time.Hour) })
		expired, _, err := past.Issue(admin.ID, admin.Role, auth.SessionPassword)
		require.NoError(t, err)
		status, body := a.do(t, "GET", "/api/admin/dashboard", nil, expired)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "Session expired, please login again", body["message"])
	})

	t.Run("not an admin", func(t *testing.T) {
		status, body := a.do(t, "GET", "/api/admin/dashboard", nil, testutil.GenerateTestToken(t, a.issuer, member))
		assert.Equal(t, fiber.StatusForbidden, status)
		assert.Equal(t, "Admin privileges required", body["message"])
	})

	t.Run("admin", func(t *testing.T) {
		status, body := a.do(t, "GET", "/api/admin/dashboard", nil, adminToken)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, float64(1), body["admins"])
	})

	t.Run("demoted admin loses access immediately", func(t *testing.T) {
		other := testutil.CreateTestUser(t, a.db, models.RoleAdmin, true)
		token := testutil.GenerateTestToken(t, a.issuer, other)
		_, err := a.users.Update(context.Background(), other.ID, map[string]interface{}{"role": models.RoleUser})
		require.NoError(t, err)

		status, _ := a.do(t, "GET", "/api/admin/dashboard", nil, token)
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("deleted admin", func(t *testing.T) {
		other := testutil.CreateTestUser(t, a.db, models.RoleAdmin, true)
		token := testutil.GenerateTestToken(t, a.issuer, other)
		require.NoError(t, a.users.Delete(context.Background(), other.ID))

		status, body := a.do(t, "GET", "/api/admin/dashboard", nil, token)
		assert.Equal(t, fiber.StatusForbidden, status)
		assert.Equal(t, "Admin privileges required", body["message"])
	})

	t.Run("deactivated admin", func(t *testing.T) {
		other := testutil.CreateTestUser(t, a.db, models.RoleAdmin, true)
		token := testutil.GenerateTestToken(t, a.issuer, other)
		_, err := a.users.Update(context.Background(), other.ID, map[string]interface{}{"is_active": false})
		require.NoError(t, err)

		status, body := a.do(t, "GET", "/api/admin/dashboard", nil, token)
		assert.Equal(t, fiber.StatusForbidden, status)
		assert.Equal(t, "Admin account deactivated", body["message"])
	})

	t.Run("admin login is outside the gate", func(t *testing.T) {
		status, body := a.do(t, "POST", "/api/admin/login", dto.LoginRequest{Email: admin.Email, Password: testutil.TestPassword}, "")
		assert.Equal(t, fiber.StatusOK, status)
		assert.NotEmpty(t, body["token"])

		status, _ = a.do(t, "POST", "/api/admin/login", dto.LoginRequest{Email: member.Email, Password: testutil.TestPassword}, "")
		assert.Equal(t, fiber.StatusForbidden, status)
	})
}

func TestAdminUsers(t *testing.T) {
	a := setupApp(t)
	admin := testutil.CreateTestUser(t, a.db, models.RoleAdmin, true)
	token := testutil.GenerateTestToken(t, a.issuer, admin)

	status, body := a.do(t, "POST", "/api/admin/users", dto.AdminCreateUserRequest{Username: "coach", Email: "coach@example.com", Password: "secret1"}, token)
	require.Equal(t, fiber.StatusCreated, status)
	id := body["user"].(map[string]interface{})["id"].(string)

	status, body = a.do(t, "GET", "/api/admin/users?page=1&limit=10", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(2), body["total"])

	status, body = a.do(t, "PUT", "/api/admin/users/"+id, map[string]interface{}{"is_active": false}, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["user"].(map[string]interface{})["is_active"])

	status, _ = a.do(t, "GET", "/api/admin/users/not-a-uuid", nil, token)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = a.do(t, "DELETE", "/api/admin/users/"+admin.ID.String(), nil, token)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "you cannot delete your own account", body["message"])

	status, _ = a.do(t, "DELETE", "/api/admin/users/"+id, nil, token)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = a.do(t, "GET", "/api/admin/users/"+id, nil, token)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestPlans(t *testing.T) {
	a := setupApp(t)
	admin := testutil.CreateTestUser(t, a.db, models.RoleAdmin, true)
	member := testutil.CreateTestUser(t, a.db, models.RoleUser, true)
	adminToken := testutil.GenerateTestToken(t, a.issuer, admin)

	plan := dto.CreatePlanRequest{
		Title: "Lean Gains", Description: "Twelve weeks", BodyType: models.BodyEctomorph,
		Focus: "Strength", Days: []string{"Mon: Push", "Thu: Pull"}, Tips: "Sleep 8h",
	}

	status, _ := a.do(t, "POST", "/api/plans", plan, testutil.GenerateTestToken(t, a.issuer, member))
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := a.do(t, "POST", "/api/plans", plan, adminToken)
	require.Equal(t, fiber.StatusCreated, status)
	id := body["id"].(string)
	assert.Equal(t, "fitness", body["icon"])

	status, body = a.do(t, "GET", "/api/plans", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	status, body = a.do(t, "GET", "/api/plans/bodytype/Mesomorph", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(0), body["count"])

	status, _ = a.do(t, "GET", "/api/plans/bodytype/Athletic", nil, "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = a.do(t, "PUT", "/api/plans/"+id, map[string]interface{}{"title": "Lean Gains 2"}, adminToken)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Lean Gains 2", body["title"])

	status, _ = a.do(t, "DELETE", "/api/plans/"+id, nil, adminToken)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = a.do(t, "GET", "/api/plans/"+id, nil, "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestPayments(t *testing.T) {
	a := setupApp(t)
	u := testutil.CreateTestUser(t, a.db, models.RoleUser, true)
	token := testutil.GenerateTestToken(t, a.issuer, u)

	status, _ := a.do(t, "POST", "/api/payments/create-payment-intent", dto.CreatePaymentIntentRequest{PlanID: models.TierMonthly}, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = a.do(t, "POST", "/api/payments/create-payment-intent", dto.CreatePaymentIntentRequest{PlanID: "weekly"}, token)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := a.do(t, "POST", "/api/payments/create-payment-intent", dto.CreatePaymentIntentRequest{PlanID: models.TierLifetime}, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(8999), body["amount"])
	intentID := body["payment_intent_id"].(string)

	status, _ = a.do(t, "POST", "/api/payments/confirm-payment", dto.ConfirmPaymentRequest{PaymentIntentID: intentID}, token)
	assert.Equal(t, fiber.StatusBadRequest, status)

	a.processor.SetStatus(intentID, payments.IntentSucceeded)
	status, body = a.do(t, "POST", "/api/payments/confirm-payment", dto.ConfirmPaymentRequest{PaymentIntentID: intentID}, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "lifetime", body["user"].(map[string]interface{})["plan"])
}

func TestFederatedLogin(t *testing.T) {
	a := setupApp(t)

	status, body := a.do(t, "POST", "/api/auth/google", dto.FederatedLoginRequest{IdentityToken: "google-ok"}, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	status, body = a.do(t, "POST", "/api/auth/google", dto.FederatedLoginRequest{IdentityToken: "forged"}, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid identity token", body["message"])

	status, _ = a.do(t, "POST", "/api/auth/google", dto.FederatedLoginRequest{}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = a.do(t, "POST", "/api/auth/apple", dto.FederatedLoginRequest{IdentityToken: "anything"}, "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)

	admin := testutil.CreateTestUser(t, a.db, models.RoleAdmin, true)
	status, body = a.do(t, "POST", "/api/auth/google", dto.FederatedLoginRequest{IdentityToken: "google-no-email", Email: admin.Email}, "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Nil(t, body["token"])
}

func TestPublicEndpoints(t *testing.T) {
	a := setupApp(t)

	status, body := a.do(t, "GET", "/api/health", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	resp, err := a.app.Test(testutil.JSONRequest(t, "GET", "/api/news", nil, ""), -1)
	require.NoError(t, err)
	var items []dto.NewsItem
	testutil.DecodeJSON(t, resp, &items)
	assert.Len(t, items, 6)
}

func TestSignupVerifyLogin_Example(t *testing.T) {
	a := setupApp(t)

	status, body := a.do(t, "POST", "/api/users/signup", dto.SignupRequest{Username: "a", Email: "a@b.com", Password: "secret1"}, "")
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, false, body["user"].(map[string]interface{})["is_email_verified"])

	link := a.mailbox.Last(t).Link
	status, _ = a.do(t, "GET", "/api/users/verify-email/"+link[strings.LastIndex(link, "/")+1:], nil, "")
	require.Equal(t, fiber.StatusOK, status)

	status, body = a.do(t, "POST", "/api/users/login", dto.LoginRequest{Email: "a@b.com", Password: "secret1"}, "")
	require.Equal(t, fiber.StatusOK, status)

	claims, err := a.issuer.Parse(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, claims.Role)
}
