package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	domorder "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/uow"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-checkout/internal/pkg/apperr"
)

type fakeProvider struct {
	mu           sync.Mutex
	initErr      error
	verification dompay.Verification
	verifyErr    error
	initCalls    int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Initialize(_ context.Context, req dompay.InitRequest) (*dompay.Authorization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &dompay.Authorization{
		Reference:        req.Reference,
		AuthorizationURL: "https://pay.example/" + req.Reference,
		AccessCode:       "ac_" + req.Reference[:6],
	}, nil
}

func (f *fakeProvider) Verify(_ context.Context, reference string) (*dompay.Verification, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	v := f.verification
	v.Reference = reference
	return &v, nil
}

type fakeVerifier struct {
	event *dompay.WebhookEvent
}

func (f fakeVerifier) VerifySignature(_ []byte, sig string) bool { return sig == "good" }

func (f fakeVerifier) ParseWebhook([]byte) (*dompay.WebhookEvent, error) {
	if f.event == nil {
		return nil, errors.New("bad json")
	}
	return f.event, nil
}

type memoryLog struct {
	mu         sync.Mutex
	deliveries []dompay.WebhookDelivery
}

func (l *memoryLog) Record(_ context.Context, d dompay.WebhookDelivery) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deliveries = append(l.deliveries, d)
	return nil
}

type fixture struct {
	store    *memory.Store
	provider *fakeProvider
	settle   *SettlementHandler
	init     *InitializePaymentUseCase
	verify   *VerifyPaymentUseCase
	orderID  string
}

const orderTotal = 11000

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	o, err := domorder.New(domorder.Draft{
		ID: "ord-1", Code: "ORD-TEST0001", CustomerID: "cust-1", ShippingAddressID: "addr-1",
		Lines:  []domorder.Line{{ID: "l1", ProductID: "p1", ProductName: "Tee", Quantity: 2, UnitPrice: 5000}},
		Totals: domorder.Totals{SubTotal: 8621, Shipping: 862, Tax: 1517, Total: orderTotal},
	})
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	err = store.Do(context.Background(), func(ctx context.Context, tx uow.Tx) error {
		return tx.Orders().Insert(ctx, o)
	})
	if err != nil {
		t.Fatalf("insert order: %v", err)
	}

	f := &fixture{store: store, provider: &fakeProvider{}, orderID: o.ID}
	f.settle = NewSettlementHandler(store, nil, nil)
	f.init = NewInitializePaymentUseCase(store, f.provider, id.NewUUIDGenerator(), nil, 0, nil)
	f.verify = NewVerifyPaymentUseCase(store, f.provider, f.settle, 0, nil)
	return f
}

func (f *fixture) initialize(t *testing.T) string {
	t.Helper()
	res, err := f.init.Execute(context.Background(), InitializeInput{OrderID: f.orderID, Email: "a@b.co", Amount: orderTotal})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return res.Reference
}

func (f *fixture) state(t *testing.T, reference string) (dompay.Status, domorder.Status) {
	t.Helper()
	var ps dompay.Status
	var os domorder.Status
	err := f.store.Do(context.Background(), func(ctx context.Context, tx uow.Tx) error {
		o, err := tx.Orders().Get(ctx, f.orderID)
		if err != nil {
			return err
		}
		os = o.Status
		if reference == "" {
			return nil
		}
		p, err := tx.Payments().GetByReference(ctx, reference)
		if err != nil {
			return err
		}
		ps = p.Status
		return nil
	})
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	return ps, os
}

func TestInitializeCreatesPendingPayment(t *testing.T) {
	f := newFixture(t)
	res, err := f.init.Execute(context.Background(), InitializeInput{OrderID: f.orderID, Email: " A@B.co ", Amount: orderTotal})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if res.Reference == "" || res.AuthorizationURL == "" || res.AccessCode == "" {
		t.Fatalf("result = %+v", res)
	}
	ps, os := f.state(t, res.Reference)
	if ps != dompay.StatusPending || os != domorder.StatusPaymentPending {
		t.Fatalf("payment=%s order=%s", ps, os)
	}

	// A second attempt against the same order is allowed.
	if _, err := f.init.Execute(context.Background(), InitializeInput{OrderID: f.orderID, Email: "a@b.co", Amount: orderTotal}); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestInitializeRejections(t *testing.T) {
	cases := []struct {
		name    string
		in      InitializeInput
		initErr error
		code    apperr.Code
		calls   int
	}{
		{"missing order", InitializeInput{Email: "a@b.co", Amount: orderTotal}, nil, apperr.CodeValidation, 0},
		{"missing email", InitializeInput{OrderID: "ord-1", Amount: orderTotal}, nil, apperr.CodeValidation, 0},
		{"amount mismatch", InitializeInput{OrderID: "ord-1", Email: "a@b.co", Amount: orderTotal - 1}, nil, apperr.CodeValidation, 0},
		{"unknown order", InitializeInput{OrderID: "nope", Email: "a@b.co", Amount: orderTotal}, nil, apperr.CodeNotFound, 0},
		{"provider down", InitializeInput{OrderID: "ord-1", Email: "a@b.co", Amount: orderTotal}, dompay.ErrProvider, apperr.CodeExternalService, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.provider.initErr = tc.initErr
			_, err := f.init.Execute(context.Background(), tc.in)
			if got := apperr.CodeOf(err); got != tc.code {
				t.Fatalf("code = %s (%v), want %s", got, err, tc.code)
			}
			if f.provider.initCalls != tc.calls {
				t.Fatalf("provider calls = %d", f.provider.initCalls)
			}
			if _, os := f.state(t, ""); os != domorder.StatusCreated {
				t.Fatalf("order status changed to %s", os)
			}
		})
	}
}

func TestConfirmationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ref := f.initialize(t)
	ctx := context.Background()

	out, err := f.settle.HandlePaymentConfirmation(ctx, ref, "txn-1", orderTotal)
	if err != nil || !out.Changed || out.Payment.TransactionID != "txn-1" {
		t.Fatalf("confirm = %+v, %v", out, err)
	}
	out, err = f.settle.HandlePaymentConfirmation(ctx, ref, "txn-2", 0)
	if err != nil || out.Changed || out.Payment.TransactionID != "txn-1" {
		t.Fatalf("replay = %+v, %v", out, err)
	}
	ps, os := f.state(t, ref)
	if ps != dompay.StatusSettled || os != domorder.StatusPaymentSettled {
		t.Fatalf("payment=%s order=%s", ps, os)
	}

	if _, err := f.settle.HandlePaymentFailure(ctx, ref, "late failure"); apperr.CodeOf(err) != apperr.CodeConflict {
		t.Fatalf("failure after settle = %v", err)
	}
	if _, err := f.init.Execute(ctx, InitializeInput{OrderID: f.orderID, Email: "a@b.co", Amount: orderTotal}); apperr.CodeOf(err) != apperr.CodeConflict {
		t.Fatalf("initialize after settle = %v", err)
	}
}

func TestFailureKeepsOrderPayable(t *testing.T) {
	f := newFixture(t)
	ref := f.initialize(t)
	ctx := context.Background()

	out, err := f.settle.HandlePaymentFailure(ctx, ref, "insufficient funds")
	if err != nil || !out.Changed || out.Payment.FailureMessage != "insufficient funds" {
		t.Fatalf("fail = %+v, %v", out, err)
	}
	if out, err = f.settle.HandlePaymentFailure(ctx, ref, "again"); err != nil || out.Changed {
		t.Fatalf("repeat = %+v, %v", out, err)
	}
	ps, os := f.state(t, ref)
	if ps != dompay.StatusDeclined || os != domorder.StatusPaymentPending {
		t.Fatalf("payment=%s order=%s", ps, os)
	}
	if _, err := f.settle.HandlePaymentConfirmation(ctx, ref, "txn", 0); apperr.CodeOf(err) != apperr.CodeConflict {
		t.Fatalf("confirm after decline = %v", err)
	}

	retry := f.initialize(t)
	if _, err := f.settle.HandlePaymentConfirmation(ctx, retry, "txn-9", orderTotal); err != nil {
		t.Fatalf("confirm retry: %v", err)
	}
	if _, os := f.state(t, retry); os != domorder.StatusPaymentSettled {
		t.Fatalf("order = %s", os)
	}
}

func TestConfirmationWithWrongAmountDeclines(t *testing.T) {
	f := newFixture(t)
	ref := f.initialize(t)

	out, err := f.settle.HandlePaymentConfirmation(context.Background(), ref, "txn-1", 100)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if out.Payment.Status != dompay.StatusDeclined || out.Payment.FailureMessage != reasonAmountMismatch {
		t.Fatalf("payment = %+v", out.Payment)
	}
	if _, os := f.state(t, ref); os != domorder.StatusPaymentPending {
		t.Fatalf("order = %s", os)
	}
}

func TestUnknownReference(t *testing.T) {
	f := newFixture(t)
	if _, err := f.settle.HandlePaymentConfirmation(context.Background(), "missing", "t", 0); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("err = %v", err)
	}
}

func TestWebhook(t *testing.T) {
	f := newFixture(t)
	ref := f.initialize(t)
	log := &memoryLog{}
	event := &dompay.WebhookEvent{Type: dompay.WebhookChargeSuccess, Reference: ref, TransactionID: "txn-7", Amount: orderTotal}
	uc := NewProcessWebhookUseCase("fake", fakeVerifier{event: event}, f.settle, log, nil)
	ctx := context.Background()

	if _, err := uc.Execute(ctx, WebhookInput{Payload: []byte(`{}`), Signature: "forged"}); apperr.CodeOf(err) != apperr.CodeInvalidSignature {
		t.Fatalf("forged = %v", err)
	}
	if len(log.deliveries) != 0 {
		t.Fatalf("forged webhook was logged")
	}
	if ps, _ := f.state(t, ref); ps != dompay.StatusPending {
		t.Fatalf("payment = %s", ps)
	}

	res, err := uc.Execute(ctx, WebhookInput{Payload: []byte(`{}`), Signature: "good"})
	if err != nil || res.Outcome != OutcomeSettled {
		t.Fatalf("webhook = %+v, %v", res, err)
	}
	res, err = uc.Execute(ctx, WebhookInput{Payload: []byte(`{}`), Signature: "good"})
	if err != nil || res.Outcome != OutcomeDuplicate {
		t.Fatalf("redelivery = %+v, %v", res, err)
	}
	if len(log.deliveries) != 2 || log.deliveries[0].Reference != ref {
		t.Fatalf("deliveries = %+v", log.deliveries)
	}

	unknown := NewProcessWebhookUseCase("fake", fakeVerifier{event: &dompay.WebhookEvent{Type: dompay.WebhookChargeSuccess, Reference: "nope"}}, f.settle, log, nil)
	if _, err := unknown.Execute(ctx, WebhookInput{Signature: "good"}); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("unknown reference = %v", err)
	}
	ignored := NewProcessWebhookUseCase("fake", fakeVerifier{event: &dompay.WebhookEvent{Type: "transfer.success"}}, f.settle, log, nil)
	if res, err := ignored.Execute(ctx, WebhookInput{Signature: "good"}); err != nil || res.Outcome != OutcomeIgnored {
		t.Fatalf("ignored = %+v, %v", res, err)
	}
	malformed := NewProcessWebhookUseCase("fake", fakeVerifier{}, f.settle, log, nil)
	if _, err := malformed.Execute(ctx, WebhookInput{Signature: "good"}); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("malformed = %v", err)
	}
}

func TestVerifyAsksProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("success settles", func(t *testing.T) {
		f := newFixture(t)
		f.initialize(t)
		f.provider.verification = dompay.Verification{Status: dompay.VerificationSuccess, TransactionID: "txn-1", Amount: orderTotal}
		res, err := f.verify.Execute(ctx, VerifyInput{OrderID: f.orderID})
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if res.PaymentStatus != dompay.StatusSettled || res.OrderStatus != domorder.StatusPaymentSettled {
			t.Fatalf("result = %+v", res)
		}
	})

	t.Run("pending leaves state", func(t *testing.T) {
		f := newFixture(t)
		ref := f.initialize(t)
		f.provider.verification = dompay.Verification{Status: dompay.VerificationPending}
		res, err := f.verify.Execute(ctx, VerifyInput{Reference: ref})
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if res.PaymentStatus != dompay.StatusPending || res.OrderStatus != domorder.StatusPaymentPending {
			t.Fatalf("result = %+v", res)
		}
	})

	t.Run("abandoned declines", func(t *testing.T) {
		f := newFixture(t)
		ref := f.initialize(t)
		f.provider.verification = dompay.Verification{Status: dompay.VerificationAbandoned}
		res, err := f.verify.Execute(ctx, VerifyInput{Reference: ref, OrderID: f.orderID})
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if res.PaymentStatus != dompay.StatusDeclined || res.OrderStatus != domorder.StatusPaymentPending {
			t.Fatalf("result = %+v", res)
		}
	})

	t.Run("provider error", func(t *testing.T) {
		f := newFixture(t)
		ref := f.initialize(t)
		f.provider.verifyErr = dompay.ErrProvider
		if _, err := f.verify.Execute(ctx, VerifyInput{Reference: ref}); apperr.CodeOf(err) != apperr.CodeExternalService {
			t.Fatalf("err = %v", err)
		}
		if ps, _ := f.state(t, ref); ps != dompay.StatusPending {
			t.Fatalf("payment = %s", ps)
		}
	})

	t.Run("no payment yet", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.verify.Execute(ctx, VerifyInput{OrderID: f.orderID}); apperr.CodeOf(err) != apperr.CodeNotFound {
			t.Fatalf("err = %v", err)
		}
	})
}

// watchedUnit counts order reads and writes made through the memory store.
type watchedUnit struct {
	*memory.Store
	mu      sync.Mutex
	locked  int
	updates int
}

func (w *watchedUnit) Do(ctx context.Context, fn func(ctx context.Context, tx uow.Tx) error) error {
	return w.Store.Do(ctx, func(ctx context.Context, tx uow.Tx) error {
		return fn(ctx, watchedTx{Tx: tx, unit: w})
	})
}

type watchedTx struct {
	uow.Tx
	unit *watchedUnit
}

func (w watchedTx) Orders() domorder.Repository {
	return watchedOrders{Repository: w.Tx.Orders(), unit: w.unit}
}

type watchedOrders struct {
	domorder.Repository
	unit *watchedUnit
}

func (r watchedOrders) GetForUpdate(ctx context.Context, id string) (*domorder.Order, error) {
	r.unit.mu.Lock()
	r.unit.locked++
	r.unit.mu.Unlock()
	return r.Repository.GetForUpdate(ctx, id)
}

func (r watchedOrders) Update(ctx context.Context, o *domorder.Order) error {
	r.unit.mu.Lock()
	r.unit.updates++
	r.unit.mu.Unlock()
	return r.Repository.Update(ctx, o)
}

func TestSecondPaymentOnSettledOrder(t *testing.T) {
	f := newFixture(t)
	first := f.initialize(t)
	second := f.initialize(t)
	ctx := context.Background()

	out, err := f.settle.HandlePaymentConfirmation(ctx, first, "txn-a", orderTotal)
	if err != nil || out.OrderAlreadySettled {
		t.Fatalf("first = %+v, %v", out, err)
	}
	out, err = f.settle.HandlePaymentConfirmation(ctx, second, "txn-b", orderTotal)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !out.Changed || !out.OrderAlreadySettled || out.Payment.Status != dompay.StatusSettled {
		t.Fatalf("second = %+v", out)
	}
	if _, os := f.state(t, second); os != domorder.StatusPaymentSettled {
		t.Fatalf("order = %s", os)
	}

	// Replaying the second confirmation is a plain no-op.
	out, err = f.settle.HandlePaymentConfirmation(ctx, second, "txn-b", 0)
	if err != nil || out.Changed || out.OrderAlreadySettled {
		t.Fatalf("replay = %+v, %v", out, err)
	}
}

func TestLateFailureOfOtherPaymentKeepsOrderSettled(t *testing.T) {
	f := newFixture(t)
	settled := f.initialize(t)
	other := f.initialize(t)
	ctx := context.Background()

	unit := &watchedUnit{Store: f.store}
	settle := NewSettlementHandler(unit, nil, nil)

	if _, err := settle.HandlePaymentConfirmation(ctx, settled, "txn-a", orderTotal); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if unit.locked != 1 || unit.updates != 1 {
		t.Fatalf("confirm locked=%d updates=%d", unit.locked, unit.updates)
	}

	out, err := settle.HandlePaymentFailure(ctx, other, "card declined")
	if err != nil || !out.Changed {
		t.Fatalf("fail = %+v, %v", out, err)
	}
	if unit.locked != 2 {
		t.Fatalf("failure did not lock the order: locked=%d", unit.locked)
	}
	if unit.updates != 1 {
		t.Fatalf("failure rewrote an unchanged order: updates=%d", unit.updates)
	}
	ps, os := f.state(t, other)
	if ps != dompay.StatusDeclined || os != domorder.StatusPaymentSettled {
		t.Fatalf("payment=%s order=%s", ps, os)
	}
}

type busyUnit struct{}

func (busyUnit) Do(context.Context, func(context.Context, uow.Tx) error) error {
	return fmt.Errorf("postgres: commit: %w", uow.ErrLockTimeout)
}

func TestLockTimeoutIsConflict(t *testing.T) {
	settle := NewSettlementHandler(busyUnit{}, nil, nil)
	ctx := context.Background()

	if _, err := settle.HandlePaymentConfirmation(ctx, "ref", "txn", 0); apperr.CodeOf(err) != apperr.CodeConflict {
		t.Fatalf("confirm = %v", err)
	}
	_, err := settle.HandlePaymentFailure(ctx, "ref", "")
	if apperr.CodeOf(err) != apperr.CodeConflict || !errors.Is(err, uow.ErrLockTimeout) {
		t.Fatalf("fail = %v", err)
	}

	initialize := NewInitializePaymentUseCase(busyUnit{}, &fakeProvider{}, id.NewUUIDGenerator(), nil, 0, nil)
	if _, err := initialize.Execute(ctx, InitializeInput{OrderID: "ord-1", Email: "a@b.co", Amount: orderTotal}); apperr.CodeOf(err) != apperr.CodeConflict {
		t.Fatalf("initialize = %v", err)
	}
}
