package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	"github.com/shopspring/decimal"
)

type recordingSink struct {
	events []models.Event
}

func (r *recordingSink) Enqueue(events ...models.Event) {
	r.events = append(r.events, events...)
}

func seed(t *testing.T, m *Memory) (*models.Session, *models.Player, *models.Player) {
	t.Helper()
	s := &models.Session{ID: "s1", Code: "ABC123", Status: models.InProgress}
	a := &models.Player{ID: "a", SessionID: "s1", Name: "Ann", Balance: decimal.NewFromInt(1500), JoinedAt: time.Unix(1, 0)}
	b := &models.Player{ID: "b", SessionID: "s1", Name: "Bo", Balance: decimal.NewFromInt(1500), JoinedAt: time.Unix(2, 0)}
	err := m.Atomic(context.Background(), func(tx Tx) error {
		ctx := context.Background()
		if err := tx.InsertSession(ctx, s); err != nil {
			return err
		}
		if err := tx.InsertPlayer(ctx, a); err != nil {
			return err
		}
		return tx.InsertPlayer(ctx, b)
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s, a, b
}

func TestMemoryCommitAndRollback(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	m := NewMemory(sink)
	seed(t, m)

	boom := errors.New("boom")
	err := m.Atomic(ctx, func(tx Tx) error {
		p, err := tx.Player(ctx, "a")
		if err != nil {
			return err
		}
		p.Balance = decimal.Zero
		if err := tx.SavePlayer(ctx, p); err != nil {
			return err
		}
		tx.Emit(models.Event{Type: models.BalanceUpdated, SessionCode: "ABC123"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(sink.events) != 0 {
		t.Errorf("rolled back unit published %d events", len(sink.events))
	}

	err = m.Atomic(ctx, func(tx Tx) error {
		p, err := tx.Player(ctx, "a")
		if err != nil {
			return err
		}
		if !p.Balance.Equal(decimal.NewFromInt(1500)) {
			t.Errorf("balance leaked from rolled back unit: %s", p.Balance)
		}
		if p.Version != 1 {
			t.Errorf("version = %d, want 1", p.Version)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMemoryReadYourWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	seed(t, m)

	err := m.Atomic(ctx, func(tx Tx) error {
		o := &models.Ownership{ID: "o1", SessionID: "s1", PropertyID: 4, PlayerID: "a"}
		if err := tx.InsertOwnership(ctx, o); err != nil {
			return err
		}
		got, err := tx.OwnershipByProperty(ctx, "s1", 4)
		if err != nil {
			t.Fatalf("staged ownership not visible: %v", err)
		}
		got.PlayerID = "b"
		if err := tx.SaveOwnership(ctx, got); err != nil {
			return err
		}
		mine, _ := tx.OwnershipsByPlayer(ctx, "a")
		theirs, _ := tx.OwnershipsByPlayer(ctx, "b")
		if len(mine) != 0 || len(theirs) != 1 {
			t.Errorf("a holds %d, b holds %d", len(mine), len(theirs))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMemoryLostUpdateIsConflict(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	seed(t, m)

	err := m.Atomic(ctx, func(tx Tx) error {
		p, err := tx.Player(ctx, "a")
		if err != nil {
			return err
		}
		// a concurrent unit commits first
		inner := m.Atomic(ctx, func(tx2 Tx) error {
			q, err := tx2.Player(ctx, "a")
			if err != nil {
				return err
			}
			q.Balance = q.Balance.Sub(decimal.NewFromInt(100))
			return tx2.SavePlayer(ctx, q)
		})
		if inner != nil {
			t.Fatalf("inner commit: %v", inner)
		}
		p.Balance = p.Balance.Sub(decimal.NewFromInt(200))
		return tx.SavePlayer(ctx, p)
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	_ = m.Atomic(ctx, func(tx Tx) error {
		p, _ := tx.Player(ctx, "a")
		if !p.Balance.Equal(decimal.NewFromInt(1400)) {
			t.Errorf("balance = %s, want 1400", p.Balance)
		}
		return nil
	})
}

func TestMemoryStaleReadIsConflict(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	seed(t, m)

	// reading b and writing only a must still fail when b changed underneath
	err := m.Atomic(ctx, func(tx Tx) error {
		if _, err := tx.Player(ctx, "b"); err != nil {
			return err
		}
		if err := m.Atomic(ctx, func(tx2 Tx) error {
			q, _ := tx2.Player(ctx, "b")
			q.Bankrupt = true
			return tx2.SavePlayer(ctx, q)
		}); err != nil {
			t.Fatal(err)
		}
		p, _ := tx.Player(ctx, "a")
		p.Balance = decimal.Zero
		return tx.SavePlayer(ctx, p)
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestMemoryPhantomOwnership(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	seed(t, m)

	err := m.Atomic(ctx, func(tx Tx) error {
		if _, err := tx.OwnershipByProperty(ctx, "s1", 36); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected bank held property, got %v", err)
		}
		if err := m.Atomic(ctx, func(tx2 Tx) error {
			return tx2.InsertOwnership(ctx, &models.Ownership{ID: "first", SessionID: "s1", PropertyID: 36, PlayerID: "b"})
		}); err != nil {
			t.Fatal(err)
		}
		return tx.InsertOwnership(ctx, &models.Ownership{ID: "second", SessionID: "s1", PropertyID: 36, PlayerID: "a"})
	})
	if !retryable(err) {
		t.Fatalf("expected a retryable failure, got %v", err)
	}
}

func TestMemoryEventSequence(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	m := NewMemory(sink)
	seed(t, m)

	for i := 0; i < 3; i++ {
		err := m.Atomic(ctx, func(tx Tx) error {
			tx.Emit(models.Event{Type: models.BalanceUpdated, SessionCode: "ABC123"})
			tx.Emit(models.Event{Type: models.BalanceUpdated, SessionCode: "OTHER1"})
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	var abc, other []uint64
	for _, ev := range sink.events {
		if ev.SessionCode == "ABC123" {
			abc = append(abc, ev.Seq)
		} else {
			other = append(other, ev.Seq)
		}
	}
	for i, seq := range abc {
		if seq != uint64(i+1) || other[i] != uint64(i+1) {
			t.Fatalf("sequences not dense per session: %v %v", abc, other)
		}
	}
}

func TestMemoryDeleteSessionCascades(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	s, _, _ := seed(t, m)

	err := m.Atomic(ctx, func(tx Tx) error {
		if err := tx.InsertOwnership(ctx, &models.Ownership{ID: "o1", SessionID: "s1", PropertyID: 2, PlayerID: "a"}); err != nil {
			return err
		}
		return tx.AppendTransaction(ctx, &models.Transaction{ID: "t1", SessionID: "s1", Amount: decimal.NewFromInt(60)})
	})
	if err != nil {
		t.Fatal(err)
	}

	err = m.Atomic(ctx, func(tx Tx) error {
		cur, err := tx.Session(ctx, s.ID)
		if err != nil {
			return err
		}
		return tx.DeleteSession(ctx, cur)
	})
	if err != nil {
		t.Fatal(err)
	}

	_ = m.Atomic(ctx, func(tx Tx) error {
		if _, err := tx.SessionByCode(ctx, "ABC123"); !errors.Is(err, ErrNotFound) {
			t.Errorf("session survived: %v", err)
		}
		if _, err := tx.Player(ctx, "a"); !errors.Is(err, ErrNotFound) {
			t.Errorf("player survived: %v", err)
		}
		if _, err := tx.Ownership(ctx, "o1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("ownership survived: %v", err)
		}
		if txs, _ := tx.Transactions(ctx, "s1"); len(txs) != 0 {
			t.Errorf("%d ledger entries survived", len(txs))
		}
		return nil
	})
}

func TestMemoryTransactionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	seed(t, m)

	for _, id := range []string{"t1", "t2", "t3"} {
		id := id
		if err := m.Atomic(ctx, func(tx Tx) error {
			return tx.AppendTransaction(ctx, &models.Transaction{ID: id, SessionID: "s1"})
		}); err != nil {
			t.Fatal(err)
		}
	}
	_ = m.Atomic(ctx, func(tx Tx) error {
		txs, _ := tx.Transactions(ctx, "s1")
		if len(txs) != 3 || txs[0].ID != "t3" || txs[2].ID != "t1" {
			t.Errorf("unexpected order: %+v", txs)
		}
		if txs[0].Seq <= txs[1].Seq {
			t.Errorf("seq not increasing with commit order")
		}
		return nil
	})
}

type flakyStore struct {
	failures int
	calls    int
}

func (f *flakyStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	f.calls++
	if f.calls <= f.failures {
		return ErrConflict
	}
	return nil
}

func (f *flakyStore) Close() error { return nil }

func TestRunRetries(t *testing.T) {
	ctx := context.Background()
	noop := func(tx Tx) error { return nil }

	f := &flakyStore{failures: 2}
	if err := Run(ctx, f, 2, noop); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}

	f = &flakyStore{failures: 5}
	err := Run(ctx, f, 2, noop)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3", f.calls)
	}
}

func TestRunWrapsForeignErrors(t *testing.T) {
	m := NewMemory(nil)
	err := Run(context.Background(), m, 0, func(tx Tx) error { return errors.New("disk on fire") })
	if !errors.Is(err, apperr.ErrInternal) {
		t.Fatalf("expected internal, got %v", err)
	}

	err = Run(context.Background(), m, 0, func(tx Tx) error { return apperr.InvalidTransaction("nope") })
	if !errors.Is(err, apperr.ErrInvalidTransaction) {
		t.Fatalf("expected domain error to pass through, got %v", err)
	}
}
