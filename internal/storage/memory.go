package storage

import (
	"context"
	"sort"
	"sync"

	expmodels "dicri/internal/expediente/models"
	indmodels "dicri/internal/indicio/models"
	id "dicri/pkg/domain"
	"dicri/pkg/platform/sentinel"
	"dicri/pkg/requestcontext"
)

type indicioKey struct {
	expedienteID  id.ExpedienteID
	numeroIndicio string
}

// InMemoryStore keeps records in maps. Each expediente has its own mutex held
// across check-then-write sequences, so writes to different expedientes do
// not wait on each other; mu guards the maps themselves and is held only for
// short reads and writes.
type InMemoryStore struct {
	mu          sync.RWMutex
	expedientes map[id.ExpedienteID]*expmodels.Expediente
	numeros     map[string]id.ExpedienteID
	indicios    map[id.IndicioID]*indmodels.Indicio
	indicioKeys map[indicioKey]id.IndicioID
	historial   []*expmodels.HistorialEntry

	nextExpediente id.ExpedienteID
	nextIndicio    id.IndicioID
	nextHistorial  id.HistorialID

	locks sync.Map // id.ExpedienteID -> *sync.Mutex

	historyHook func(expmodels.HistorialEntry) error
}

// InMemoryOption configures an InMemoryStore.
type InMemoryOption func(*InMemoryStore)

// WithHistoryAppendHook installs a hook called just before a history row is
// appended. A non-nil error aborts the whole transition.
func WithHistoryAppendHook(hook func(expmodels.HistorialEntry) error) InMemoryOption {
	return func(s *InMemoryStore) {
		s.historyHook = hook
	}
}

func NewInMemoryStore(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		expedientes: make(map[id.ExpedienteID]*expmodels.Expediente),
		numeros:     make(map[string]id.ExpedienteID),
		indicios:    make(map[id.IndicioID]*indmodels.Indicio),
		indicioKeys: make(map[indicioKey]id.IndicioID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) lockFor(expedienteID id.ExpedienteID) func() {
	m, _ := s.locks.LoadOrStore(expedienteID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// snapshot returns a copy with the derived indicio count. Caller holds mu.
func (s *InMemoryStore) snapshot(e *expmodels.Expediente) *expmodels.Expediente {
	cp := *e
	cp.CantidadIndicios = s.countLocked(e.ID)
	return &cp
}

func (s *InMemoryStore) countLocked(expedienteID id.ExpedienteID) int {
	n := 0
	for _, in := range s.indicios {
		if in.ExpedienteID == expedienteID {
			n++
		}
	}
	return n
}

func (s *InMemoryStore) CreateExpediente(_ context.Context, e *expmodels.Expediente) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.numeros[e.NumeroExpediente]; taken {
		return sentinel.ErrAlreadyUsed
	}
	s.nextExpediente++
	e.ID = s.nextExpediente
	cp := *e
	s.expedientes[e.ID] = &cp
	s.numeros[e.NumeroExpediente] = e.ID
	return nil
}

func (s *InMemoryStore) GetExpediente(_ context.Context, expedienteID id.ExpedienteID) (*expmodels.Expediente, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expedientes[expedienteID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.snapshot(e), nil
}

func (s *InMemoryStore) UpdateExpedienteFields(ctx context.Context, expedienteID id.ExpedienteID, fields expmodels.ExpedienteFields, check ExpedienteCheck) (*expmodels.Expediente, error) {
	unlock := s.lockFor(expedienteID)
	defer unlock()

	current, err := s.GetExpediente(ctx, expedienteID)
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(current); err != nil {
			return nil, err
		}
	}
	current.ApplyFields(fields, requestcontext.Now(ctx))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expedientes[expedienteID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	stored := *current
	stored.CantidadIndicios = 0
	s.expedientes[expedienteID] = &stored
	return s.snapshot(&stored), nil
}

func (s *InMemoryStore) TransitionExpediente(ctx context.Context, expedienteID id.ExpedienteID, expected expmodels.Estado, t *expmodels.Transition) (*expmodels.Expediente, error) {
	unlock := s.lockFor(expedienteID)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expedientes[expedienteID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if e.EstadoID != expected {
		return nil, sentinel.ErrInvalidState
	}
	if t.RequireIndicios && s.countLocked(expedienteID) == 0 {
		return nil, sentinel.ErrPreconditionFailed
	}

	// Stage both writes and commit only when nothing failed.
	next := *e
	next.ApplyTransition(t)
	entry := t.History
	entry.ExpedienteID = expedienteID
	if s.historyHook != nil {
		if err := s.historyHook(entry); err != nil {
			return nil, err
		}
	}
	s.nextHistorial++
	entry.ID = s.nextHistorial
	s.expedientes[expedienteID] = &next
	s.historial = append(s.historial, &entry)
	t.History = entry
	return s.snapshot(&next), nil
}

// DeleteExpediente removes the expediente with its indicios and history.
func (s *InMemoryStore) DeleteExpediente(_ context.Context, expedienteID id.ExpedienteID) (int64, error) {
	unlock := s.lockFor(expedienteID)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expedientes[expedienteID]
	if !ok {
		return 0, nil
	}
	delete(s.expedientes, expedienteID)
	delete(s.numeros, e.NumeroExpediente)
	// IDs are never reused, so later callers for this id only ever see not found.
	s.locks.Delete(expedienteID)
	for indID, in := range s.indicios {
		if in.ExpedienteID == expedienteID {
			delete(s.indicios, indID)
			delete(s.indicioKeys, indicioKey{expedienteID, in.NumeroIndicio})
		}
	}
	kept := s.historial[:0]
	for _, h := range s.historial {
		if h.ExpedienteID != expedienteID {
			kept = append(kept, h)
		}
	}
	s.historial = kept
	return 1, nil
}

// ListExpedientes orders by FechaRegistro DESC, then ID DESC for stability.
func (s *InMemoryStore) ListExpedientes(_ context.Context, filter expmodels.ListFilter, page expmodels.Page) ([]*expmodels.Expediente, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reviewed map[id.ExpedienteID]bool
	if !filter.CoordinadorID.IsNil() {
		reviewed = make(map[id.ExpedienteID]bool)
		for _, h := range s.historial {
			if h.UsuarioID == filter.CoordinadorID && isReviewAccion(h.Accion) {
				reviewed[h.ExpedienteID] = true
			}
		}
	}

	var matched []*expmodels.Expediente
	for _, e := range s.expedientes {
		if reviewed != nil && !reviewed[e.ID] {
			continue
		}
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].FechaRegistro.Equal(matched[j].FechaRegistro) {
			return matched[i].FechaRegistro.After(matched[j].FechaRegistro)
		}
		return matched[i].ID > matched[j].ID
	})

	page = page.Normalize()
	total := len(matched)
	start := max(min(page.Offset(), total), 0)
	end := min(start+page.Size, total)
	items := make([]*expmodels.Expediente, 0, end-start)
	for _, e := range matched[start:end] {
		items = append(items, s.snapshot(e))
	}
	return items, total, nil
}

func isReviewAccion(accion string) bool {
	switch accion {
	case expmodels.AccionAprobar, expmodels.AccionRechazar, expmodels.AccionDevolverBorrador:
		return true
	}
	return false
}

func (s *InMemoryStore) CountIndicios(_ context.Context, expedienteID id.ExpedienteID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(expedienteID), nil
}

func (s *InMemoryStore) CreateIndicio(ctx context.Context, in *indmodels.Indicio, check IndicioCheck) error {
	unlock := s.lockFor(in.ExpedienteID)
	defer unlock()

	parent, err := s.GetExpediente(ctx, in.ExpedienteID)
	if err != nil {
		return err
	}
	if check != nil {
		if err := check(parent, in); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := indicioKey{in.ExpedienteID, in.NumeroIndicio}
	if _, taken := s.indicioKeys[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	if _, ok := s.expedientes[in.ExpedienteID]; !ok {
		return sentinel.ErrNotFound
	}
	s.nextIndicio++
	in.ID = s.nextIndicio
	cp := *in
	s.indicios[in.ID] = &cp
	s.indicioKeys[key] = in.ID
	return nil
}

func (s *InMemoryStore) GetIndicio(_ context.Context, indicioID id.IndicioID) (*indmodels.Indicio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.indicios[indicioID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *in
	return &cp, nil
}

// lockIndicio resolves the parent of indicioID and takes the parent's lock.
// The parent is re-read after locking so the check sees current state.
func (s *InMemoryStore) lockIndicio(ctx context.Context, indicioID id.IndicioID) (*indmodels.Indicio, *expmodels.Expediente, func(), error) {
	in, err := s.GetIndicio(ctx, indicioID)
	if err != nil {
		return nil, nil, nil, err
	}
	unlock := s.lockFor(in.ExpedienteID)
	parent, err := s.GetExpediente(ctx, in.ExpedienteID)
	if err != nil {
		unlock()
		return nil, nil, nil, err
	}
	in, err = s.GetIndicio(ctx, indicioID)
	if err != nil {
		unlock()
		return nil, nil, nil, err
	}
	return in, parent, unlock, nil
}

func (s *InMemoryStore) UpdateIndicio(ctx context.Context, indicioID id.IndicioID, attrs indmodels.Attributes, check IndicioCheck) (*indmodels.Indicio, error) {
	in, parent, unlock, err := s.lockIndicio(ctx, indicioID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if check != nil {
		if err := check(parent, in); err != nil {
			return nil, err
		}
	}
	in.ApplyAttributes(attrs, requestcontext.Now(ctx))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indicios[indicioID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	stored := *in
	s.indicios[indicioID] = &stored
	return in, nil
}

func (s *InMemoryStore) DeleteIndicio(ctx context.Context, indicioID id.IndicioID, check IndicioCheck) error {
	in, parent, unlock, err := s.lockIndicio(ctx, indicioID)
	if err != nil {
		return err
	}
	defer unlock()

	if check != nil {
		if err := check(parent, in); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indicios[indicioID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.indicios, indicioID)
	delete(s.indicioKeys, indicioKey{in.ExpedienteID, in.NumeroIndicio})
	return nil
}

// ListIndiciosByExpediente orders by NumeroIndicio, then ID.
func (s *InMemoryStore) ListIndiciosByExpediente(_ context.Context, expedienteID id.ExpedienteID) ([]*indmodels.Indicio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]*indmodels.Indicio, 0)
	for _, in := range s.indicios {
		if in.ExpedienteID == expedienteID {
			cp := *in
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].NumeroIndicio != items[j].NumeroIndicio {
			return items[i].NumeroIndicio < items[j].NumeroIndicio
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// ListHistorial returns matching rows oldest first.
func (s *InMemoryStore) ListHistorial(_ context.Context, filter expmodels.HistorialFilter) ([]*expmodels.HistorialEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]*expmodels.HistorialEntry, 0)
	for _, h := range s.historial {
		if filter.Matches(*h) {
			cp := *h
			items = append(items, &cp)
		}
	}
	return items, nil
}
