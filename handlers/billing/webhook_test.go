package billing

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/config"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/models"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/testutils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	stripe "github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test_secret"

func TestMain(m *testing.M) {
	testutils.InitTestMain()

	log.SetOutput(io.Discard)

	exitCode := m.Run()

	log.SetOutput(os.Stdout)

	os.Exit(exitCode)
}

func newTestHandler() *Handler {
	return NewHandler(&config.Config{
		StripeSecretKey:     "sk_test_123",
		StripeWebhookSecret: testWebhookSecret,
		FrontendBaseURL:     "http://localhost:3000",
	})
}

func signPayload(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(eventType, object string) []byte {
	return []byte(fmt.Sprintf(
		`{"id": "evt_test", "type": %q, "api_version": %q, "data": {"object": %s}}`,
		eventType, stripe.APIVersion, object))
}

func postWebhook(r *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/subscriptions/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func webhookRouter(h *Handler) *gin.Engine {
	r := testutils.SetupTestRouter()
	r.POST("/subscriptions/webhook", h.StripeWebhook)
	return r
}

func TestStripeWebhook_RejectsInvalidSignature(t *testing.T) {
	_, _, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	r := webhookRouter(newTestHandler())

	payload := eventPayload("checkout.session.completed", `{"id": "cs_test_1"}`)

	resp := postWebhook(r, payload, "t=1,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = postWebhook(r, payload, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStripeWebhook_IgnoresUnhandledEvents(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	r := webhookRouter(newTestHandler())

	payload := eventPayload("customer.created", `{"id": "cus_test_1"}`)
	resp := postWebhook(r, payload, signPayload(payload))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Event ignored")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func planRows(mock sqlmock.Sqlmock) *sqlmock.Rows {
	return mock.NewRows([]string{"id", "title", "price", "billing_cycle"}).
		AddRow("plan-uuid", "Premium", 9.99, "monthly")
}

func TestStripeWebhook_CheckoutCompletedCreatesPaymentAndSubscription(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	// no payment with this transaction id yet
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE transaction_id = \$1 (.+)`).
		WithArgs("pi_test_1", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	mock.ExpectQuery(`SELECT \* FROM "plans" WHERE id = \$1 (.+)`).
		WithArgs("plan-uuid", 1).
		WillReturnRows(planRows(mock))

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "payments" (.+) RETURNING "id"`).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("payment-uuid"))
	mock.ExpectCommit()

	// first purchase, no subscription row yet
	mock.ExpectQuery(`SELECT \* FROM "user_subscriptions" WHERE user_id = \$1 (.+)`).
		WithArgs("user-uuid", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "user_subscriptions" (.+) RETURNING "id"`).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("sub-uuid"))
	mock.ExpectCommit()

	// user lookup for the confirmation mail; failing it keeps the test offline
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 (.+)`).
		WithArgs("user-uuid", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	r := webhookRouter(newTestHandler())

	payload := eventPayload("checkout.session.completed", `{
		"id": "cs_test_1",
		"payment_status": "paid",
		"payment_intent": "pi_test_1",
		"invoice": "in_test_1",
		"subscription": "sub_stripe_1",
		"amount_total": 999,
		"metadata": {"user_id": "user-uuid", "plan_id": "plan-uuid"}
	}`)
	resp := postWebhook(r, payload, signPayload(payload))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "received")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeWebhook_CheckoutCompletedDuplicateDeliveryIsNoOp(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE transaction_id = \$1 (.+)`).
		WithArgs("pi_test_1", 1).
		WillReturnRows(mock.NewRows([]string{"id", "user_id", "transaction_id"}).
			AddRow("payment-uuid", "user-uuid", "pi_test_1"))

	r := webhookRouter(newTestHandler())

	payload := eventPayload("checkout.session.completed", `{
		"id": "cs_test_1",
		"payment_status": "paid",
		"payment_intent": "pi_test_1",
		"metadata": {"user_id": "user-uuid", "plan_id": "plan-uuid"}
	}`)
	resp := postWebhook(r, payload, signPayload(payload))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeWebhook_CheckoutNotPaidIsSkipped(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	r := webhookRouter(newTestHandler())

	payload := eventPayload("checkout.session.completed", `{
		"id": "cs_test_1",
		"payment_status": "unpaid",
		"metadata": {"user_id": "user-uuid", "plan_id": "plan-uuid"}
	}`)
	resp := postWebhook(r, payload, signPayload(payload))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeWebhook_InvoicePaidExtendsFromPreviousExpiry(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	previousExpiry := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE transaction_id = \$1 (.+)`).
		WithArgs("pi_renewal_1", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE stripe_subscription_id = \$1 (.+)`).
		WithArgs("sub_stripe_1", 1).
		WillReturnRows(mock.NewRows([]string{"id", "user_id", "plan_id", "stripe_subscription_id"}).
			AddRow("payment-uuid", "user-uuid", "plan-uuid", "sub_stripe_1"))

	mock.ExpectQuery(`SELECT \* FROM "user_subscriptions" WHERE user_id = \$1 (.+)`).
		WithArgs("user-uuid", 1).
		WillReturnRows(mock.NewRows([]string{"id", "user_id", "plan_id", "expires_at", "status"}).
			AddRow("sub-uuid", "user-uuid", "plan-uuid", previousExpiry, "active"))

	mock.ExpectQuery(`SELECT \* FROM "plans" WHERE id = \$1 (.+)`).
		WithArgs("plan-uuid", 1).
		WillReturnRows(planRows(mock))

	// the new expiry is one cycle past the stored expiry, not past now
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "user_subscriptions" SET (.+)`).
		WithArgs(previousExpiry.AddDate(0, 1, 0), "active", sqlmock.AnyArg(), "sub-uuid").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "payments" (.+) RETURNING "id"`).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("renewal-uuid"))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 (.+)`).
		WithArgs("user-uuid", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	r := webhookRouter(newTestHandler())

	payload := eventPayload("invoice.paid", `{
		"id": "in_renewal_1",
		"amount_paid": 999,
		"payment_intent": "pi_renewal_1",
		"parent": {"subscription_details": {"subscription": "sub_stripe_1"}}
	}`)
	resp := postWebhook(r, payload, signPayload(payload))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeWebhook_InvoicePaidWithoutSubscriptionIsSkipped(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	r := webhookRouter(newTestHandler())

	payload := eventPayload("invoice.paid", `{"id": "in_oneoff_1", "amount_paid": 500}`)
	resp := postWebhook(r, payload, signPayload(payload))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func invoiceFailedExpectations(mock sqlmock.Sqlmock, newStatus models.SubscriptionStatus) {
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE stripe_subscription_id = \$1 (.+)`).
		WithArgs("sub_stripe_1", 1).
		WillReturnRows(mock.NewRows([]string{"id", "user_id", "stripe_subscription_id"}).
			AddRow("payment-uuid", "user-uuid", "sub_stripe_1"))

	mock.ExpectQuery(`SELECT \* FROM "user_subscriptions" WHERE user_id = \$1 (.+)`).
		WithArgs("user-uuid", 1).
		WillReturnRows(mock.NewRows([]string{"id", "user_id", "status"}).
			AddRow("sub-uuid", "user-uuid", "active"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "user_subscriptions" SET (.+)`).
		WithArgs(string(newStatus), sqlmock.AnyArg(), "sub-uuid").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

func TestStripeWebhook_InvoiceFailedEarlyAttemptMarksRetrying(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	invoiceFailedExpectations(mock, models.SubscriptionPaymentRetrying)

	r := webhookRouter(newTestHandler())

	payload := eventPayload("invoice.payment_failed", `{
		"id": "in_fail_1",
		"attempt_count": 1,
		"subscription": "sub_stripe_1"
	}`)
	resp := postWebhook(r, payload, signPayload(payload))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeWebhook_InvoiceFailedThirdAttemptMarksFailed(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	invoiceFailedExpectations(mock, models.SubscriptionPaymentFailed)

	r := webhookRouter(newTestHandler())

	payload := eventPayload("invoice.payment_failed", `{
		"id": "in_fail_3",
		"attempt_count": 3,
		"subscription": "sub_stripe_1"
	}`)
	resp := postWebhook(r, payload, signPayload(payload))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeWebhook_SubscriptionDeletedMarksCancelled(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE stripe_subscription_id = \$1 (.+)`).
		WithArgs("sub_stripe_1", 1).
		WillReturnRows(mock.NewRows([]string{"id", "user_id", "stripe_subscription_id"}).
			AddRow("payment-uuid", "user-uuid", "sub_stripe_1"))

	mock.ExpectQuery(`SELECT \* FROM "user_subscriptions" WHERE user_id = \$1 (.+)`).
		WithArgs("user-uuid", 1).
		WillReturnRows(mock.NewRows([]string{"id", "user_id", "status"}).
			AddRow("sub-uuid", "user-uuid", "cancelling"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "user_subscriptions" SET (.+)`).
		WithArgs(string(models.SubscriptionCancelled), sqlmock.AnyArg(), "sub-uuid").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := webhookRouter(newTestHandler())

	payload := eventPayload("customer.subscription.deleted", `{"id": "sub_stripe_1"}`)
	resp := postWebhook(r, payload, signPayload(payload))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
