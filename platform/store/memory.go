package store

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/DedS3t/monopoly-economy/app/models"
)

// absent is the version recorded for a read that found nothing.
const absent = -1

// Memory is an in-process Store. Units of work run optimistically: reads
// record the version they saw, writes are buffered, and commit validates the
// whole read set under one lock before applying anything.
type Memory struct {
	mu           sync.RWMutex
	sessions     map[string]*models.Session
	players      map[string]*models.Player
	ownerships   map[string]*models.Ownership
	transactions []*models.Transaction
	// scans counts membership changes per range key so a unit of work that
	// listed a range notices rows appearing in or leaving it.
	scans    map[string]uint64
	eventSeq map[string]uint64
	txSeq    int64
	sink     EventSink
}

func NewMemory(sink EventSink) *Memory {
	return &Memory{
		sessions:   make(map[string]*models.Session),
		players:    make(map[string]*models.Player),
		ownerships: make(map[string]*models.Ownership),
		scans:      make(map[string]uint64),
		eventSeq:   make(map[string]uint64),
		sink:       sink,
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := newMemTx(m)
	if err := fn(tx); err != nil {
		return err
	}
	events, err := m.commit(tx)
	if err != nil {
		return err
	}
	if m.sink != nil && len(events) > 0 {
		m.sink.Enqueue(events...)
	}
	return nil
}

func sessionKey(id string) string   { return "s:" + id }
func playerKey(id string) string    { return "p:" + id }
func ownershipKey(id string) string { return "o:" + id }

func codeScan(code string) string         { return "code:" + code }
func sessionPlayersScan(id string) string { return "session-players:" + id }
func sessionOwnedScan(id string) string   { return "session-owned:" + id }
func playerOwnedScan(id string) string    { return "player-owned:" + id }
func sessionLedgerScan(id string) string  { return "session-ledger:" + id }
func propertyScan(sid string, pid int) string {
	return "property:" + sid + ":" + strconv.Itoa(pid)
}

// versionOf reports the committed version of a record key. Callers hold m.mu.
func (m *Memory) versionOf(key string) int {
	id := key[2:]
	switch key[0] {
	case 's':
		if s, ok := m.sessions[id]; ok {
			return s.Version
		}
	case 'p':
		if p, ok := m.players[id]; ok {
			return p.Version
		}
	case 'o':
		if o, ok := m.ownerships[id]; ok {
			return o.Version
		}
	}
	return absent
}

func (m *Memory) commit(tx *memTx) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validate(tx); err != nil {
		return nil, err
	}

	for id := range tx.deletedSessions {
		m.dropSession(id)
	}
	for id, s := range tx.sessions {
		s.Version++
		m.sessions[id] = s
		if tx.newSessions[id] {
			m.scans[codeScan(s.Code)]++
		}
	}
	for id, p := range tx.players {
		p.Version++
		m.players[id] = p
		if tx.newPlayers[id] {
			m.scans[sessionPlayersScan(p.SessionID)]++
		}
	}
	for id := range tx.deletedOwnerships {
		if o, ok := m.ownerships[id]; ok {
			m.touchOwnership(o)
			delete(m.ownerships, id)
		}
	}
	for id, o := range tx.ownerships {
		prev, existed := m.ownerships[id]
		switch {
		case !existed:
			m.touchOwnership(o)
		case prev.PlayerID != o.PlayerID:
			m.scans[playerOwnedScan(prev.PlayerID)]++
			m.scans[playerOwnedScan(o.PlayerID)]++
		}
		o.Version++
		m.ownerships[id] = o
	}
	for _, t := range tx.transactions {
		m.txSeq++
		t.Seq = m.txSeq
		m.transactions = append(m.transactions, t)
		m.scans[sessionLedgerScan(t.SessionID)]++
	}

	events := tx.events
	for i := range events {
		m.eventSeq[events[i].SessionCode]++
		events[i].Seq = m.eventSeq[events[i].SessionCode]
	}
	for _, code := range tx.deletedCodes {
		delete(m.eventSeq, code)
	}
	return events, nil
}

func (m *Memory) touchOwnership(o *models.Ownership) {
	m.scans[sessionOwnedScan(o.SessionID)]++
	m.scans[playerOwnedScan(o.PlayerID)]++
	m.scans[propertyScan(o.SessionID, o.PropertyID)]++
}

func (m *Memory) dropSession(id string) {
	s, ok := m.sessions[id]
	if !ok {
		return
	}
	for pid, p := range m.players {
		if p.SessionID == id {
			delete(m.players, pid)
		}
	}
	for oid, o := range m.ownerships {
		if o.SessionID == id {
			m.touchOwnership(o)
			delete(m.ownerships, oid)
		}
	}
	kept := m.transactions[:0]
	for _, t := range m.transactions {
		if t.SessionID != id {
			kept = append(kept, t)
		}
	}
	m.transactions = kept
	m.scans[codeScan(s.Code)]++
	m.scans[sessionPlayersScan(id)]++
	m.scans[sessionLedgerScan(id)]++
	delete(m.sessions, id)
}

func (m *Memory) validate(tx *memTx) error {
	for key, seen := range tx.reads {
		if m.versionOf(key) != seen {
			return ErrConflict
		}
	}
	for key, seen := range tx.scanReads {
		if m.scans[key] != seen {
			return ErrConflict
		}
	}

	for id := range tx.deletedSessions {
		if _, ok := m.sessions[id]; !ok {
			return ErrConflict
		}
	}
	for id, s := range tx.sessions {
		if tx.newSessions[id] {
			if _, ok := m.sessions[id]; ok {
				return ErrDuplicate
			}
			for _, other := range m.sessions {
				if other.Code == s.Code {
					return ErrDuplicate
				}
			}
			continue
		}
		if m.versionOf(sessionKey(id)) != s.Version {
			return ErrConflict
		}
	}
	for id, p := range tx.players {
		if tx.newPlayers[id] {
			if _, ok := m.players[id]; ok {
				return ErrDuplicate
			}
			continue
		}
		if m.versionOf(playerKey(id)) != p.Version {
			return ErrConflict
		}
	}
	for id, seen := range tx.deletedOwnerships {
		if m.versionOf(ownershipKey(id)) != seen {
			return ErrConflict
		}
	}
	for id, o := range tx.ownerships {
		if !tx.newOwnerships[id] {
			if m.versionOf(ownershipKey(id)) != o.Version {
				return ErrConflict
			}
			continue
		}
		if _, ok := m.ownerships[id]; ok {
			return ErrDuplicate
		}
		for oid, other := range m.ownerships {
			if tx.deletedOwnerships[oid] != 0 || oid == id {
				continue
			}
			if other.SessionID == o.SessionID && other.PropertyID == o.PropertyID {
				return ErrDuplicate
			}
		}
	}
	return nil
}

// memTx buffers one unit of work against a Memory store.
type memTx struct {
	m *Memory

	reads     map[string]int
	scanReads map[string]uint64

	sessions   map[string]*models.Session
	players    map[string]*models.Player
	ownerships map[string]*models.Ownership

	newSessions   map[string]bool
	newPlayers    map[string]bool
	newOwnerships map[string]bool

	deletedSessions map[string]bool
	deletedCodes    []string
	// deletedOwnerships maps id to the version being deleted, which is
	// never zero for a committed row.
	deletedOwnerships map[string]int

	transactions []*models.Transaction
	events       []models.Event
}

func newMemTx(m *Memory) *memTx {
	return &memTx{
		m:                 m,
		reads:             make(map[string]int),
		scanReads:         make(map[string]uint64),
		sessions:          make(map[string]*models.Session),
		players:           make(map[string]*models.Player),
		ownerships:        make(map[string]*models.Ownership),
		newSessions:       make(map[string]bool),
		newPlayers:        make(map[string]bool),
		newOwnerships:     make(map[string]bool),
		deletedSessions:   make(map[string]bool),
		deletedOwnerships: make(map[string]int),
	}
}

// read records the first version seen for key.
func (tx *memTx) read(key string, version int) {
	if _, ok := tx.reads[key]; !ok {
		tx.reads[key] = version
	}
}

func (tx *memTx) scan(key string) {
	if _, ok := tx.scanReads[key]; !ok {
		tx.scanReads[key] = tx.m.scans[key]
	}
}

func cloneSession(s *models.Session) *models.Session       { c := *s; return &c }
func clonePlayer(p *models.Player) *models.Player          { c := *p; return &c }
func cloneOwnership(o *models.Ownership) *models.Ownership { c := *o; return &c }

func (tx *memTx) Session(ctx context.Context, id string) (*models.Session, error) {
	if tx.deletedSessions[id] {
		return nil, ErrNotFound
	}
	if s, ok := tx.sessions[id]; ok {
		return cloneSession(s), nil
	}
	tx.m.mu.RLock()
	defer tx.m.mu.RUnlock()
	s, ok := tx.m.sessions[id]
	if !ok {
		tx.read(sessionKey(id), absent)
		return nil, ErrNotFound
	}
	tx.read(sessionKey(id), s.Version)
	return cloneSession(s), nil
}

func (tx *memTx) SessionByCode(ctx context.Context, code string) (*models.Session, error) {
	for id, s := range tx.sessions {
		if s.Code == code && !tx.deletedSessions[id] {
			return cloneSession(s), nil
		}
	}
	tx.m.mu.RLock()
	defer tx.m.mu.RUnlock()
	tx.scan(codeScan(code))
	for id, s := range tx.m.sessions {
		if s.Code != code {
			continue
		}
		if tx.deletedSessions[id] {
			return nil, ErrNotFound
		}
		tx.read(sessionKey(id), s.Version)
		return cloneSession(s), nil
	}
	return nil, ErrNotFound
}

func (tx *memTx) InsertSession(ctx context.Context, s *models.Session) error {
	if _, ok := tx.sessions[s.ID]; ok {
		return ErrDuplicate
	}
	s.Version = 0
	tx.sessions[s.ID] = cloneSession(s)
	tx.newSessions[s.ID] = true
	return nil
}

func (tx *memTx) SaveSession(ctx context.Context, s *models.Session) error {
	if tx.deletedSessions[s.ID] {
		return ErrNotFound
	}
	tx.sessions[s.ID] = cloneSession(s)
	return nil
}

func (tx *memTx) DeleteSession(ctx context.Context, s *models.Session) error {
	if tx.newSessions[s.ID] {
		delete(tx.sessions, s.ID)
		delete(tx.newSessions, s.ID)
		return nil
	}
	tx.read(sessionKey(s.ID), s.Version)
	delete(tx.sessions, s.ID)
	tx.deletedSessions[s.ID] = true
	tx.deletedCodes = append(tx.deletedCodes, s.Code)
	for id, p := range tx.players {
		if p.SessionID == s.ID {
			delete(tx.players, id)
		}
	}
	for id, o := range tx.ownerships {
		if o.SessionID == s.ID {
			delete(tx.ownerships, id)
		}
	}
	kept := tx.transactions[:0]
	for _, t := range tx.transactions {
		if t.SessionID != s.ID {
			kept = append(kept, t)
		}
	}
	tx.transactions = kept
	return nil
}

func (tx *memTx) Player(ctx context.Context, id string) (*models.Player, error) {
	if p, ok := tx.players[id]; ok {
		return clonePlayer(p), nil
	}
	tx.m.mu.RLock()
	defer tx.m.mu.RUnlock()
	p, ok := tx.m.players[id]
	if !ok || tx.deletedSessions[p.SessionID] {
		tx.read(playerKey(id), tx.m.versionOf(playerKey(id)))
		return nil, ErrNotFound
	}
	tx.read(playerKey(id), p.Version)
	return clonePlayer(p), nil
}

func (tx *memTx) PlayersBySession(ctx context.Context, sessionID string) ([]*models.Player, error) {
	if tx.deletedSessions[sessionID] {
		return nil, nil
	}
	var out []*models.Player
	seen := make(map[string]bool)

	tx.m.mu.RLock()
	tx.scan(sessionPlayersScan(sessionID))
	for id, p := range tx.m.players {
		if p.SessionID != sessionID {
			continue
		}
		seen[id] = true
		if staged, ok := tx.players[id]; ok {
			out = append(out, clonePlayer(staged))
			continue
		}
		tx.read(playerKey(id), p.Version)
		out = append(out, clonePlayer(p))
	}
	tx.m.mu.RUnlock()

	for id, p := range tx.players {
		if p.SessionID == sessionID && !seen[id] {
			out = append(out, clonePlayer(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

func (tx *memTx) InsertPlayer(ctx context.Context, p *models.Player) error {
	if _, ok := tx.players[p.ID]; ok {
		return ErrDuplicate
	}
	p.Version = 0
	tx.players[p.ID] = clonePlayer(p)
	tx.newPlayers[p.ID] = true
	return nil
}

func (tx *memTx) SavePlayer(ctx context.Context, p *models.Player) error {
	if tx.deletedSessions[p.SessionID] {
		return ErrNotFound
	}
	tx.players[p.ID] = clonePlayer(p)
	return nil
}

func (tx *memTx) Ownership(ctx context.Context, id string) (*models.Ownership, error) {
	if _, gone := tx.deletedOwnerships[id]; gone {
		return nil, ErrNotFound
	}
	if o, ok := tx.ownerships[id]; ok {
		return cloneOwnership(o), nil
	}
	tx.m.mu.RLock()
	defer tx.m.mu.RUnlock()
	o, ok := tx.m.ownerships[id]
	if !ok || tx.deletedSessions[o.SessionID] {
		tx.read(ownershipKey(id), tx.m.versionOf(ownershipKey(id)))
		return nil, ErrNotFound
	}
	tx.read(ownershipKey(id), o.Version)
	return cloneOwnership(o), nil
}

func (tx *memTx) OwnershipByProperty(ctx context.Context, sessionID string, propertyID int) (*models.Ownership, error) {
	list, err := tx.ownershipsWhere(propertyScan(sessionID, propertyID), func(o *models.Ownership) bool {
		return o.SessionID == sessionID && o.PropertyID == propertyID
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

func (tx *memTx) OwnershipsByPlayer(ctx context.Context, playerID string) ([]*models.Ownership, error) {
	return tx.ownershipsWhere(playerOwnedScan(playerID), func(o *models.Ownership) bool {
		return o.PlayerID == playerID
	})
}

func (tx *memTx) OwnershipsBySession(ctx context.Context, sessionID string) ([]*models.Ownership, error) {
	if tx.deletedSessions[sessionID] {
		return nil, nil
	}
	return tx.ownershipsWhere(sessionOwnedScan(sessionID), func(o *models.Ownership) bool {
		return o.SessionID == sessionID
	})
}

// ownershipsWhere merges committed rows with this unit's staged writes. A row
// matches on its staged state when it has one.
func (tx *memTx) ownershipsWhere(scanKey string, match func(*models.Ownership) bool) ([]*models.Ownership, error) {
	var out []*models.Ownership
	seen := make(map[string]bool)

	tx.m.mu.RLock()
	tx.scan(scanKey)
	for id, o := range tx.m.ownerships {
		if _, gone := tx.deletedOwnerships[id]; gone || tx.deletedSessions[o.SessionID] {
			continue
		}
		if staged, ok := tx.ownerships[id]; ok {
			seen[id] = true
			if match(staged) {
				out = append(out, cloneOwnership(staged))
			}
			continue
		}
		if match(o) {
			tx.read(ownershipKey(id), o.Version)
			out = append(out, cloneOwnership(o))
		}
	}
	tx.m.mu.RUnlock()

	for id, o := range tx.ownerships {
		if !seen[id] && match(o) {
			out = append(out, cloneOwnership(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PropertyID < out[j].PropertyID })
	return out, nil
}

func (tx *memTx) InsertOwnership(ctx context.Context, o *models.Ownership) error {
	for _, staged := range tx.ownerships {
		if staged.SessionID == o.SessionID && staged.PropertyID == o.PropertyID {
			return ErrDuplicate
		}
	}
	o.Version = 0
	tx.ownerships[o.ID] = cloneOwnership(o)
	tx.newOwnerships[o.ID] = true
	return nil
}

func (tx *memTx) SaveOwnership(ctx context.Context, o *models.Ownership) error {
	if _, gone := tx.deletedOwnerships[o.ID]; gone {
		return ErrNotFound
	}
	tx.ownerships[o.ID] = cloneOwnership(o)
	return nil
}

func (tx *memTx) DeleteOwnership(ctx context.Context, o *models.Ownership) error {
	if tx.newOwnerships[o.ID] {
		delete(tx.ownerships, o.ID)
		delete(tx.newOwnerships, o.ID)
		return nil
	}
	delete(tx.ownerships, o.ID)
	tx.deletedOwnerships[o.ID] = o.Version
	return nil
}

func (tx *memTx) AppendTransaction(ctx context.Context, t *models.Transaction) error {
	c := *t
	tx.transactions = append(tx.transactions, &c)
	return nil
}

func (tx *memTx) Transactions(ctx context.Context, sessionID string) ([]*models.Transaction, error) {
	var out []*models.Transaction
	tx.m.mu.RLock()
	tx.scan(sessionLedgerScan(sessionID))
	for _, t := range tx.m.transactions {
		if t.SessionID == sessionID {
			c := *t
			out = append(out, &c)
		}
	}
	tx.m.mu.RUnlock()
	for _, t := range tx.transactions {
		if t.SessionID == sessionID {
			c := *t
			out = append(out, &c)
		}
	}
	// Committed rows are already in commit order; reverse for newest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (tx *memTx) Emit(event models.Event) {
	tx.events = append(tx.events, event)
}
