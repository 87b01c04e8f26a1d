package store

import (
	"context"
	"errors"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
)

// Postgres runs every unit of work in a REPEATABLE READ transaction. Row
// writes carry a version predicate so a lost update surfaces as ErrConflict
// instead of overwriting a concurrent commit.
type Postgres struct {
	db   *pg.DB
	sink EventSink
}

func NewPostgres(db *pg.DB, sink EventSink) *Postgres {
	return &Postgres{db: db, sink: sink}
}

func (s *Postgres) Close() error {
	return s.db.Close()
}

func (s *Postgres) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	var events []models.Event
	err := s.db.RunInTransaction(ctx, func(tx *pg.Tx) error {
		if _, err := tx.ExecContext(ctx, "SET TRANSACTION ISOLATION LEVEL REPEATABLE READ"); err != nil {
			return err
		}
		ptx := &pgTx{tx: tx}
		if err := fn(ptx); err != nil {
			return err
		}
		if err := ptx.sequence(ctx); err != nil {
			return err
		}
		events = ptx.events
		return nil
	})
	if err != nil {
		return translate(err)
	}
	if s.sink != nil && len(events) > 0 {
		s.sink.Enqueue(events...)
	}
	return nil
}

// translate maps driver failures onto store errors and passes the rest through.
func translate(err error) error {
	if errors.Is(err, pg.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr pg.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case "40001", "40P01":
			return ErrConflict
		case "23505":
			return ErrDuplicate
		}
	}
	return err
}

type pgTx struct {
	tx      *pg.Tx
	events  []models.Event
	// retired holds the last event number of sessions deleted in this unit.
	retired map[string]uint64
}

func (t *pgTx) selectOne(ctx context.Context, model interface{}, apply func(q *orm.Query) *orm.Query) error {
	return translate(apply(t.tx.ModelContext(ctx, model)).Select())
}

// update writes model if its row still holds version, then bumps the caller's copy.
func (t *pgTx) update(ctx context.Context, model interface{}, version *int) error {
	seen := *version
	*version = seen + 1
	res, err := t.tx.ModelContext(ctx, model).WherePK().Where("version = ?", seen).Update()
	if err != nil {
		*version = seen
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		*version = seen
		return ErrConflict
	}
	return nil
}

func (t *pgTx) insert(ctx context.Context, model interface{}, version *int) error {
	*version = 1
	if _, err := t.tx.ModelContext(ctx, model).Insert(); err != nil {
		*version = 0
		return translate(err)
	}
	return nil
}

func (t *pgTx) Session(ctx context.Context, id string) (*models.Session, error) {
	s := &models.Session{ID: id}
	if err := t.selectOne(ctx, s, (*orm.Query).WherePK); err != nil {
		return nil, err
	}
	return s, nil
}

func (t *pgTx) SessionByCode(ctx context.Context, code string) (*models.Session, error) {
	s := new(models.Session)
	err := t.selectOne(ctx, s, func(q *orm.Query) *orm.Query {
		return q.Where("code = ?", code)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (t *pgTx) InsertSession(ctx context.Context, s *models.Session) error {
	return t.insert(ctx, s, &s.Version)
}

func (t *pgTx) SaveSession(ctx context.Context, s *models.Session) error {
	return t.update(ctx, s, &s.Version)
}

func (t *pgTx) DeleteSession(ctx context.Context, s *models.Session) error {
	for _, model := range []interface{}{
		(*models.Transaction)(nil),
		(*models.Ownership)(nil),
		(*models.Player)(nil),
	} {
		if _, err := t.tx.ModelContext(ctx, model).Where("session_id = ?", s.ID).Delete(); err != nil {
			return translate(err)
		}
	}
	res, err := t.tx.ModelContext(ctx, s).WherePK().Where("version = ?", s.Version).Delete()
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return ErrConflict
	}
	if t.retired == nil {
		t.retired = make(map[string]uint64)
	}
	t.retired[s.Code] = s.EventSeq
	return nil
}

func (t *pgTx) Player(ctx context.Context, id string) (*models.Player, error) {
	p := &models.Player{ID: id}
	if err := t.selectOne(ctx, p, (*orm.Query).WherePK); err != nil {
		return nil, err
	}
	return p, nil
}

func (t *pgTx) PlayersBySession(ctx context.Context, sessionID string) ([]*models.Player, error) {
	var out []*models.Player
	err := t.tx.ModelContext(ctx, &out).
		Where("session_id = ?", sessionID).
		Order("joined_at ASC", "id ASC").
		Select()
	return out, translate(err)
}

func (t *pgTx) InsertPlayer(ctx context.Context, p *models.Player) error {
	return t.insert(ctx, p, &p.Version)
}

func (t *pgTx) SavePlayer(ctx context.Context, p *models.Player) error {
	return t.update(ctx, p, &p.Version)
}

func (t *pgTx) Ownership(ctx context.Context, id string) (*models.Ownership, error) {
	o := &models.Ownership{ID: id}
	if err := t.selectOne(ctx, o, (*orm.Query).WherePK); err != nil {
		return nil, err
	}
	return o, nil
}

func (t *pgTx) OwnershipByProperty(ctx context.Context, sessionID string, propertyID int) (*models.Ownership, error) {
	o := new(models.Ownership)
	err := t.selectOne(ctx, o, func(q *orm.Query) *orm.Query {
		return q.Where("session_id = ?", sessionID).Where("property_id = ?", propertyID)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (t *pgTx) OwnershipsByPlayer(ctx context.Context, playerID string) ([]*models.Ownership, error) {
	var out []*models.Ownership
	err := t.tx.ModelContext(ctx, &out).
		Where("player_id = ?", playerID).
		Order("property_id ASC").
		Select()
	return out, translate(err)
}

func (t *pgTx) OwnershipsBySession(ctx context.Context, sessionID string) ([]*models.Ownership, error) {
	var out []*models.Ownership
	err := t.tx.ModelContext(ctx, &out).
		Where("session_id = ?", sessionID).
		Order("property_id ASC").
		Select()
	return out, translate(err)
}

func (t *pgTx) InsertOwnership(ctx context.Context, o *models.Ownership) error {
	return t.insert(ctx, o, &o.Version)
}

func (t *pgTx) SaveOwnership(ctx context.Context, o *models.Ownership) error {
	return t.update(ctx, o, &o.Version)
}

func (t *pgTx) DeleteOwnership(ctx context.Context, o *models.Ownership) error {
	res, err := t.tx.ModelContext(ctx, o).WherePK().Where("version = ?", o.Version).Delete()
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (t *pgTx) AppendTransaction(ctx context.Context, tr *models.Transaction) error {
	_, err := t.tx.ModelContext(ctx, tr).Insert()
	return translate(err)
}

func (t *pgTx) Transactions(ctx context.Context, sessionID string) ([]*models.Transaction, error) {
	var out []*models.Transaction
	err := t.tx.ModelContext(ctx, &out).
		Where("session_id = ?", sessionID).
		Order("seq DESC").
		Select()
	return out, translate(err)
}

func (t *pgTx) Emit(event models.Event) {
	t.events = append(t.events, event)
}

// sequence reserves per-session event numbers inside the committing
// transaction, so concurrent commits on one session number disjoint ranges.
func (t *pgTx) sequence(ctx context.Context) error {
	counts := make(map[string]uint64)
	var order []string
	for _, ev := range t.events {
		if counts[ev.SessionCode] == 0 {
			order = append(order, ev.SessionCode)
		}
		counts[ev.SessionCode]++
	}

	next := make(map[string]uint64, len(order))
	for _, code := range order {
		var last uint64
		_, err := t.tx.QueryOneContext(ctx, pg.Scan(&last),
			"UPDATE sessions SET event_seq = event_seq + ? WHERE code = ? RETURNING event_seq",
			counts[code], code)
		if errors.Is(err, pg.ErrNoRows) {
			last = t.retired[code] + counts[code]
		} else if err != nil {
			return err
		}
		next[code] = last - counts[code] + 1
	}
	for i := range t.events {
		code := t.events[i].SessionCode
		t.events[i].Seq = next[code]
		next[code]++
	}
	return nil
}
