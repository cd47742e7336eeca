package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	expmodels "dicri/internal/expediente/models"
	id "dicri/pkg/domain"
	"dicri/pkg/platform/sentinel"
	txcontext "dicri/pkg/platform/tx"
	"dicri/pkg/requestcontext"
)

const defaultStoreTimeout = 5 * time.Second

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore persists records in PostgreSQL. Every write that depends on
// current state locks the expediente row with SELECT ... FOR UPDATE inside a
// transaction, so concurrent writers on one expediente serialize while
// different expedientes proceed independently.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithTimeout bounds each store call that arrives without a deadline.
func WithTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, timeout: defaultStoreTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostgresStore) q(ctx context.Context) txcontext.Querier {
	return txcontext.QuerierFrom(ctx, s.db)
}

func (s *PostgresStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// inTx runs fn inside a transaction, joining one already carried by ctx.
func (s *PostgresStore) inTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	err := txcontext.Run(ctx, s.db, fn)
	if err != nil && !isClassified(err) {
		return classify(err)
	}
	return err
}

func isClassified(err error) bool {
	return errors.Is(err, sentinel.ErrUnavailable) ||
		errors.Is(err, sentinel.ErrNotFound) ||
		errors.Is(err, sentinel.ErrAlreadyUsed)
}

// classify marks transport failures and timeouts as sentinel.ErrUnavailable
// and translates constraint violations into sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", sentinel.ErrAlreadyUsed, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", sentinel.ErrNotFound, pgErr.ConstraintName)
		}
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		pgconn.Timeout(err) ||
		pgconn.SafeToRetry(err) ||
		errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return err
}

const expedienteColumns = `
	e.expediente_id, e.numero_expediente, e.numero_mp, e.titulo_expediente, e.descripcion,
	e.lugar_incidente, e.fecha_incidente, e.prioridad, e.observaciones, e.estado_id,
	e.tecnico_registra_id, e.fecha_registro, e.fecha_aprobacion, e.fecha_modificacion,
	(SELECT COUNT(*) FROM indicios i WHERE i.expediente_id = e.expediente_id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpediente(row rowScanner) (*expmodels.Expediente, error) {
	var e expmodels.Expediente
	var prioridad string
	err := row.Scan(
		&e.ID, &e.NumeroExpediente, &e.NumeroMP, &e.TituloExpediente, &e.Descripcion,
		&e.LugarIncidente, &e.FechaIncidente, &prioridad, &e.Observaciones, &e.EstadoID,
		&e.TecnicoRegistraID, &e.FechaRegistro, &e.FechaAprobacion, &e.FechaModificacion,
		&e.CantidadIndicios,
	)
	if err != nil {
		return nil, err
	}
	e.Prioridad = expmodels.Prioridad(prioridad)
	return &e, nil
}

func (s *PostgresStore) CreateExpediente(ctx context.Context, e *expmodels.Expediente) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	query := `
		INSERT INTO expedientes (
			numero_expediente, numero_mp, titulo_expediente, descripcion, lugar_incidente,
			fecha_incidente, prioridad, observaciones, estado_id, tecnico_registra_id, fecha_registro
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING expediente_id
	`
	var newID int64
	err := s.q(ctx).QueryRowContext(ctx, query,
		e.NumeroExpediente, e.NumeroMP, e.TituloExpediente, e.Descripcion, e.LugarIncidente,
		e.FechaIncidente, string(e.Prioridad), e.Observaciones, int(e.EstadoID),
		int64(e.TecnicoRegistraID), e.FechaRegistro,
	).Scan(&newID)
	if err != nil {
		return classify(fmt.Errorf("insert expediente: %w", err))
	}
	e.ID = id.ExpedienteID(newID)
	return nil
}

func (s *PostgresStore) GetExpediente(ctx context.Context, expedienteID id.ExpedienteID) (*expmodels.Expediente, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.getExpediente(ctx, s.q(ctx), expedienteID, false)
}

func (s *PostgresStore) getExpediente(ctx context.Context, q txcontext.Querier, expedienteID id.ExpedienteID, forUpdate bool) (*expmodels.Expediente, error) {
	query := `SELECT ` + expedienteColumns + ` FROM expedientes e WHERE e.expediente_id = $1`
	if forUpdate {
		query += ` FOR UPDATE OF e`
	}
	e, err := scanExpediente(q.QueryRowContext(ctx, query, int64(expedienteID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, classify(fmt.Errorf("find expediente: %w", err))
	}
	return e, nil
}

func (s *PostgresStore) UpdateExpedienteFields(ctx context.Context, expedienteID id.ExpedienteID, fields expmodels.ExpedienteFields, check ExpedienteCheck) (*expmodels.Expediente, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var updated *expmodels.Expediente
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		current, err := s.getExpediente(ctx, tx, expedienteID, true)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(current); err != nil {
				return err
			}
		}
		current.ApplyFields(fields, requestcontext.Now(ctx))

		query := `
			UPDATE expedientes SET
				numero_mp = $1, titulo_expediente = $2, descripcion = $3, lugar_incidente = $4,
				fecha_incidente = $5, prioridad = $6, observaciones = $7, fecha_modificacion = $8
			WHERE expediente_id = $9
		`
		_, err = tx.ExecContext(ctx, query,
			current.NumeroMP, current.TituloExpediente, current.Descripcion, current.LugarIncidente,
			current.FechaIncidente, string(current.Prioridad), current.Observaciones, current.FechaModificacion,
			int64(expedienteID),
		)
		if err != nil {
			return classify(fmt.Errorf("update expediente: %w", err))
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) TransitionExpediente(ctx context.Context, expedienteID id.ExpedienteID, expected expmodels.Estado, t *expmodels.Transition) (*expmodels.Expediente, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var result *expmodels.Expediente
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		current, err := s.getExpediente(ctx, tx, expedienteID, true)
		if err != nil {
			return err
		}
		if current.EstadoID != expected {
			return sentinel.ErrInvalidState
		}
		if t.RequireIndicios {
			// The row lock is held, so this count sees every committed indicio
			// delete that raced with the caller's earlier read.
			var n int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM indicios WHERE expediente_id = $1`, int64(expedienteID),
			).Scan(&n); err != nil {
				return classify(fmt.Errorf("count indicios: %w", err))
			}
			if n == 0 {
				return sentinel.ErrPreconditionFailed
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE expedientes
			SET estado_id = $1, fecha_aprobacion = COALESCE($2, fecha_aprobacion)
			WHERE expediente_id = $3
		`, int(t.To), t.FechaAprobacion, int64(expedienteID))
		if err != nil {
			return classify(fmt.Errorf("update estado: %w", err))
		}

		h := t.History
		var historialID int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO historial_aprobaciones (
				expediente_id, usuario_id, estado_anterior, estado_nuevo, accion,
				comentarios, justificacion_rechazo, fecha_accion
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING historial_id
		`, int64(expedienteID), int64(h.UsuarioID), int(h.EstadoAnterior), int(h.EstadoNuevo), h.Accion,
			nullIfEmpty(h.Comentarios), nullIfEmpty(h.JustificacionRechazo), h.FechaAccion,
		).Scan(&historialID)
		if err != nil {
			return classify(fmt.Errorf("insert historial: %w", err))
		}
		t.History.ID = id.HistorialID(historialID)
		t.History.ExpedienteID = expedienteID

		current.ApplyTransition(t)
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteExpediente relies on ON DELETE CASCADE for indicios and history.
func (s *PostgresStore) DeleteExpediente(ctx context.Context, expedienteID id.ExpedienteID) (int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM expedientes WHERE expediente_id = $1`, int64(expedienteID))
	if err != nil {
		return 0, classify(fmt.Errorf("delete expediente: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(fmt.Errorf("delete expediente rows affected: %w", err))
	}
	return n, nil
}

func buildListWhere(filter expmodels.ListFilter) (string, []any) {
	var conds []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if len(filter.Estados) > 0 {
		estados := make([]int64, len(filter.Estados))
		for i, e := range filter.Estados {
			estados[i] = int64(e)
		}
		conds = append(conds, "e.estado_id = ANY("+next(pq.Array(estados))+")")
	}
	if !filter.TecnicoID.IsNil() {
		conds = append(conds, "e.tecnico_registra_id = "+next(int64(filter.TecnicoID)))
	}
	if !filter.CoordinadorID.IsNil() {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM historial_aprobaciones h
			WHERE h.expediente_id = e.expediente_id
			  AND h.usuario_id = `+next(int64(filter.CoordinadorID))+`
			  AND h.accion = ANY(`+next(pq.Array([]string{
			expmodels.AccionAprobar, expmodels.AccionRechazar, expmodels.AccionDevolverBorrador,
		}))+`))`)
	}
	if filter.FechaInicio != nil {
		conds = append(conds, "e.fecha_registro >= "+next(*filter.FechaInicio))
	}
	if filter.FechaFin != nil {
		conds = append(conds, "e.fecha_registro <= "+next(*filter.FechaFin))
	}
	if filter.Prioridad != "" {
		conds = append(conds, "e.prioridad = "+next(string(filter.Prioridad)))
	}
	if q := strings.TrimSpace(filter.Busqueda); q != "" {
		p := next("%" + escapeLike(q) + "%")
		conds = append(conds, "(e.numero_expediente ILIKE "+p+" OR e.titulo_expediente ILIKE "+p+" OR e.descripcion ILIKE "+p+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ListExpedientes orders by fecha_registro DESC, expediente_id DESC so pages
// are stable for a fixed filter.
func (s *PostgresStore) ListExpedientes(ctx context.Context, filter expmodels.ListFilter, page expmodels.Page) ([]*expmodels.Expediente, int, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	page = page.Normalize()

	where, args := buildListWhere(filter)

	var total int
	if err := s.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM expedientes e`+where, args...).Scan(&total); err != nil {
		return nil, 0, classify(fmt.Errorf("count expedientes: %w", err))
	}

	limitArg := "$" + strconv.Itoa(len(args)+1)
	offsetArg := "$" + strconv.Itoa(len(args)+2)
	query := `SELECT ` + expedienteColumns + ` FROM expedientes e` + where +
		` ORDER BY e.fecha_registro DESC, e.expediente_id DESC LIMIT ` + limitArg + ` OFFSET ` + offsetArg
	rows, err := s.q(ctx).QueryContext(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, classify(fmt.Errorf("list expedientes: %w", err))
	}
	defer rows.Close()

	items := make([]*expmodels.Expediente, 0, page.Size)
	for rows.Next() {
		e, err := scanExpediente(rows)
		if err != nil {
			return nil, 0, classify(fmt.Errorf("scan expediente: %w", err))
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify(fmt.Errorf("iterate expedientes: %w", err))
	}
	return items, total, nil
}

func (s *PostgresStore) CountIndicios(ctx context.Context, expedienteID id.ExpedienteID) (int, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	var n int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM indicios WHERE expediente_id = $1`, int64(expedienteID),
	).Scan(&n)
	if err != nil {
		return 0, classify(fmt.Errorf("count indicios: %w", err))
	}
	return n, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *PostgresStore) ListHistorial(ctx context.Context, filter expmodels.HistorialFilter) ([]*expmodels.HistorialEntry, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var conds []string
	var args []any
	if !filter.ExpedienteID.IsNil() {
		args = append(args, int64(filter.ExpedienteID))
		conds = append(conds, "expediente_id = $"+strconv.Itoa(len(args)))
	}
	if filter.FechaInicio != nil {
		args = append(args, *filter.FechaInicio)
		conds = append(conds, "fecha_accion >= $"+strconv.Itoa(len(args)))
	}
	if filter.FechaFin != nil {
		args = append(args, *filter.FechaFin)
		conds = append(conds, "fecha_accion <= $"+strconv.Itoa(len(args)))
	}
	query := `
		SELECT historial_id, expediente_id, usuario_id, estado_anterior, estado_nuevo, accion,
			COALESCE(comentarios, ''), COALESCE(justificacion_rechazo, ''), fecha_accion
		FROM historial_aprobaciones`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY fecha_accion ASC, historial_id ASC"

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("list historial: %w", err))
	}
	defer rows.Close()

	items := make([]*expmodels.HistorialEntry, 0)
	for rows.Next() {
		var h expmodels.HistorialEntry
		if err := rows.Scan(&h.ID, &h.ExpedienteID, &h.UsuarioID, &h.EstadoAnterior, &h.EstadoNuevo,
			&h.Accion, &h.Comentarios, &h.JustificacionRechazo, &h.FechaAccion); err != nil {
			return nil, classify(fmt.Errorf("scan historial: %w", err))
		}
		items = append(items, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("iterate historial: %w", err))
	}
	return items, nil
}
