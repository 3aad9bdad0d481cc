package billing

import (
	"context"
	"sort"
	"time"

	"github.com/amt/backend/internal/domain/billing"
	"github.com/amt/backend/internal/domain/ledger"
	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory repository fakes. The services under test only care about what
// comes back, so map-backed stores are enough; ordering guarantees are
// reproduced where the contract requires them.

type fakeUnitOfWork struct{}

func (f *fakeUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeContractRepo struct {
	contracts map[uuid.UUID]*billing.Contract
}

func newFakeContractRepo() *fakeContractRepo {
	return &fakeContractRepo{contracts: make(map[uuid.UUID]*billing.Contract)}
}

func (r *fakeContractRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.Contract, error) {
	c, ok := r.contracts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (r *fakeContractRepo) FindByNumber(ctx context.Context, number string) (*billing.Contract, error) {
	for _, c := range r.contracts {
		if c.Number == number {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeContractRepo) FindAll(ctx context.Context) ([]*billing.Contract, error) {
	out := make([]*billing.Contract, 0, len(r.contracts))
	for _, c := range r.contracts {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeContractRepo) Save(ctx context.Context, contract *billing.Contract) error {
	r.contracts[contract.ID] = contract
	return nil
}

func (r *fakeContractRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.contracts, id)
	return nil
}

type fakeLineRepo struct {
	lines map[uuid.UUID]*billing.BillingLine
}

func newFakeLineRepo() *fakeLineRepo {
	return &fakeLineRepo{lines: make(map[uuid.UUID]*billing.BillingLine)}
}

func (r *fakeLineRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.BillingLine, error) {
	l, ok := r.lines[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return l, nil
}

func (r *fakeLineRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.BillingLine, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeLineRepo) FindByContract(ctx context.Context, contractID uuid.UUID) ([]*billing.BillingLine, error) {
	var out []*billing.BillingLine
	for _, l := range r.lines {
		if l.ContractID == contractID {
			out = append(out, l)
		}
	}
	sortFIFO(out)
	return out, nil
}

func (r *fakeLineRepo) FindByContractForUpdate(ctx context.Context, contractID uuid.UUID) ([]*billing.BillingLine, error) {
	return r.FindByContract(ctx, contractID)
}

func (r *fakeLineRepo) FindOpenByContract(ctx context.Context, contractID uuid.UUID) ([]*billing.BillingLine, error) {
	var out []*billing.BillingLine
	for _, l := range r.lines {
		if l.ContractID == contractID && l.Balance.GreaterThan(decimal.Zero) {
			out = append(out, l)
		}
	}
	sortFIFO(out)
	return out, nil
}

func (r *fakeLineRepo) FindAll(ctx context.Context, filter billing.BillingLineFilter) ([]*billing.BillingLine, error) {
	var out []*billing.BillingLine
	for _, l := range r.lines {
		if filter.ContractID != nil && l.ContractID != *filter.ContractID {
			continue
		}
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		out = append(out, l)
	}
	sortFIFO(out)
	return out, nil
}

func (r *fakeLineRepo) FindUnsettled(ctx context.Context) ([]*billing.BillingLine, error) {
	var out []*billing.BillingLine
	for _, l := range r.lines {
		if l.Status != billing.BillingLineStatusPaid {
			out = append(out, l)
		}
	}
	sortFIFO(out)
	return out, nil
}

func (r *fakeLineRepo) Save(ctx context.Context, line *billing.BillingLine) error {
	r.lines[line.ID] = line
	return nil
}

func (r *fakeLineRepo) SaveAll(ctx context.Context, lines []*billing.BillingLine) error {
	for _, l := range lines {
		r.lines[l.ID] = l
	}
	return nil
}

func (r *fakeLineRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.lines, id)
	return nil
}

func (r *fakeLineRepo) DeleteAll(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(r.lines, id)
	}
	return nil
}

func (r *fakeLineRepo) CountByContract(ctx context.Context, contractID uuid.UUID) (int64, error) {
	var n int64
	for _, l := range r.lines {
		if l.ContractID == contractID {
			n++
		}
	}
	return n, nil
}

func sortFIFO(lines []*billing.BillingLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].DueDate.Equal(lines[j].DueDate) {
			return lines[i].DueDate.Before(lines[j].DueDate)
		}
		return lines[i].PeriodStart.Before(lines[j].PeriodStart)
	})
}

type fakePaymentRepo struct {
	payments map[uuid.UUID]*billing.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*billing.Payment)}
}

func (r *fakePaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (r *fakePaymentRepo) FindByContract(ctx context.Context, contractID uuid.UUID) ([]*billing.Payment, error) {
	var out []*billing.Payment
	for _, p := range r.payments {
		if p.ContractID == contractID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*billing.Payment, error) {
	var out []*billing.Payment
	for _, id := range ids {
		if p, ok := r.payments[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) Save(ctx context.Context, payment *billing.Payment) error {
	r.payments[payment.ID] = payment
	return nil
}

func (r *fakePaymentRepo) SaveAll(ctx context.Context, payments []*billing.Payment) error {
	for _, p := range payments {
		r.payments[p.ID] = p
	}
	return nil
}

func (r *fakePaymentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.payments, id)
	return nil
}

type fakeAllocationRepo struct {
	allocations map[uuid.UUID]*billing.Allocation
}

func newFakeAllocationRepo() *fakeAllocationRepo {
	return &fakeAllocationRepo{allocations: make(map[uuid.UUID]*billing.Allocation)}
}

func (r *fakeAllocationRepo) FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]*billing.Allocation, error) {
	var out []*billing.Allocation
	for _, a := range r.allocations {
		if a.PaymentID == paymentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAllocationRepo) FindByBillingLine(ctx context.Context, lineID uuid.UUID) ([]*billing.Allocation, error) {
	var out []*billing.Allocation
	for _, a := range r.allocations {
		if a.BillingLineID == lineID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAllocationRepo) Save(ctx context.Context, allocation *billing.Allocation) error {
	r.allocations[allocation.ID] = allocation
	return nil
}

func (r *fakeAllocationRepo) SaveAll(ctx context.Context, allocations []*billing.Allocation) error {
	for _, a := range allocations {
		r.allocations[a.ID] = a
	}
	return nil
}

func (r *fakeAllocationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.allocations, id)
	return nil
}

func (r *fakeAllocationRepo) DeleteByPayment(ctx context.Context, paymentID uuid.UUID) error {
	for id, a := range r.allocations {
		if a.PaymentID == paymentID {
			delete(r.allocations, id)
		}
	}
	return nil
}

func (r *fakeAllocationRepo) DeleteAll(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(r.allocations, id)
	}
	return nil
}

type fakeAccountRepo struct {
	accounts map[uuid.UUID]*ledger.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]*ledger.Account)}
}

func (r *fakeAccountRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return a, nil
}

func (r *fakeAccountRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeAccountRepo) FindActive(ctx context.Context) ([]*ledger.Account, error) {
	var out []*ledger.Account
	for _, a := range r.accounts {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) Save(ctx context.Context, account *ledger.Account) error {
	r.accounts[account.ID] = account
	return nil
}

func (r *fakeAccountRepo) SumBalanceByCurrency(ctx context.Context, currency valueobject.Currency) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range r.accounts {
		if a.IsActive && a.Currency == currency {
			sum = sum.Add(a.Balance)
		}
	}
	return sum, nil
}

type fakeLedgerRepo struct {
	entries map[uuid.UUID]*ledger.AccountTransaction
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{entries: make(map[uuid.UUID]*ledger.AccountTransaction)}
}

func (r *fakeLedgerRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.AccountTransaction, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return e, nil
}

func (r *fakeLedgerRepo) FindByAccount(ctx context.Context, accountID uuid.UUID, filter ledger.TransactionFilter) ([]*ledger.AccountTransaction, error) {
	var out []*ledger.AccountTransaction
	for _, e := range r.entries {
		if e.AccountID != accountID {
			continue
		}
		if filter.Type != nil && e.Type != *filter.Type {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TransactionDate.Before(out[j].TransactionDate)
	})
	return out, nil
}

func (r *fakeLedgerRepo) FindByRelatedPayment(ctx context.Context, paymentID uuid.UUID) ([]*ledger.AccountTransaction, error) {
	var out []*ledger.AccountTransaction
	for _, e := range r.entries {
		if e.RelatedPaymentID != nil && *e.RelatedPaymentID == paymentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) Save(ctx context.Context, tx *ledger.AccountTransaction) error {
	r.entries[tx.ID] = tx
	return nil
}

func (r *fakeLedgerRepo) SaveAll(ctx context.Context, txs []*ledger.AccountTransaction) error {
	for _, tx := range txs {
		r.entries[tx.ID] = tx
	}
	return nil
}

func (r *fakeLedgerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.entries, id)
	return nil
}

// fixture bundles everything a billing application test needs
type fixture struct {
	contracts   *fakeContractRepo
	lines       *fakeLineRepo
	payments    *fakePaymentRepo
	allocations *fakeAllocationRepo
	accounts    *fakeAccountRepo
	ledger      *fakeLedgerRepo
	uow         *fakeUnitOfWork
}

func newFixture() *fixture {
	return &fixture{
		contracts:   newFakeContractRepo(),
		lines:       newFakeLineRepo(),
		payments:    newFakePaymentRepo(),
		allocations: newFakeAllocationRepo(),
		accounts:    newFakeAccountRepo(),
		ledger:      newFakeLedgerRepo(),
		uow:         &fakeUnitOfWork{},
	}
}

func (f *fixture) seedContract(number string, start, end time.Time, rent float64, dueDay int) *billing.Contract {
	contract, err := billing.NewContract(number,
		start, start, end,
		valueobject.NewMoneyKGSFromFloat(rent), dueDay)
	if err != nil {
		panic(err)
	}
	f.contracts.contracts[contract.ID] = contract
	return contract
}

func (f *fixture) seedAccount(name string) *ledger.Account {
	account, err := ledger.NewAccount(name, ledger.AccountTypeCash, valueobject.KGS)
	if err != nil {
		panic(err)
	}
	f.accounts.accounts[account.ID] = account
	return account
}
