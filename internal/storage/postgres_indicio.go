package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	expmodels "dicri/internal/expediente/models"
	indmodels "dicri/internal/indicio/models"
	id "dicri/pkg/domain"
	"dicri/pkg/platform/sentinel"
	txcontext "dicri/pkg/platform/tx"
	"dicri/pkg/requestcontext"
)

const indicioColumns = `
	indicio_id, expediente_id, numero_indicio, categoria_id, nombre_objeto, descripcion, color,
	tamano_alto, tamano_ancho, tamano_largo, unidad_medida, peso, unidad_peso, ubicacion_hallazgo,
	latitud_gps, longitud_gps, estado_conservacion, fecha_recoleccion, ruta_fotografia, observaciones,
	tecnico_registra_id, fecha_registro, fecha_modificacion`

func scanIndicio(row rowScanner) (*indmodels.Indicio, error) {
	var in indmodels.Indicio
	err := row.Scan(
		&in.ID, &in.ExpedienteID, &in.NumeroIndicio, &in.CategoriaID, &in.NombreObjeto, &in.Descripcion, &in.Color,
		&in.TamanoAlto, &in.TamanoAncho, &in.TamanoLargo, &in.UnidadMedida, &in.Peso, &in.UnidadPeso, &in.UbicacionHallazgo,
		&in.LatitudGPS, &in.LongitudGPS, &in.EstadoConservacion, &in.FechaRecoleccion, &in.RutaFotografia, &in.Observaciones,
		&in.TecnicoRegistraID, &in.FechaRegistro, &in.FechaModificacion,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (s *PostgresStore) CreateIndicio(ctx context.Context, in *indmodels.Indicio, check IndicioCheck) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		parent, err := s.getExpediente(ctx, tx, in.ExpedienteID, true)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(parent, in); err != nil {
				return err
			}
		}

		query := `
			INSERT INTO indicios (
				expediente_id, numero_indicio, categoria_id, nombre_objeto, descripcion, color,
				tamano_alto, tamano_ancho, tamano_largo, unidad_medida, peso, unidad_peso, ubicacion_hallazgo,
				latitud_gps, longitud_gps, estado_conservacion, fecha_recoleccion, ruta_fotografia, observaciones,
				tecnico_registra_id, fecha_registro
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
			RETURNING indicio_id
		`
		var newID int64
		err = tx.QueryRowContext(ctx, query,
			int64(in.ExpedienteID), in.NumeroIndicio, in.CategoriaID, in.NombreObjeto, in.Descripcion, in.Color,
			in.TamanoAlto, in.TamanoAncho, in.TamanoLargo, in.UnidadMedida, in.Peso, in.UnidadPeso, in.UbicacionHallazgo,
			in.LatitudGPS, in.LongitudGPS, in.EstadoConservacion, in.FechaRecoleccion, in.RutaFotografia, in.Observaciones,
			int64(in.TecnicoRegistraID), in.FechaRegistro,
		).Scan(&newID)
		if err != nil {
			return classify(fmt.Errorf("insert indicio: %w", err))
		}
		in.ID = id.IndicioID(newID)
		return nil
	})
}

func (s *PostgresStore) GetIndicio(ctx context.Context, indicioID id.IndicioID) (*indmodels.Indicio, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.getIndicio(ctx, s.q(ctx), indicioID, false)
}

func (s *PostgresStore) getIndicio(ctx context.Context, q txcontext.Querier, indicioID id.IndicioID, forUpdate bool) (*indmodels.Indicio, error) {
	query := `SELECT ` + indicioColumns + ` FROM indicios WHERE indicio_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	in, err := scanIndicio(q.QueryRowContext(ctx, query, int64(indicioID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, classify(fmt.Errorf("find indicio: %w", err))
	}
	return in, nil
}

// lockIndicio locks the parent expediente first, then the indicio, matching
// the lock order used by transitions.
func (s *PostgresStore) lockIndicio(ctx context.Context, tx *sql.Tx, indicioID id.IndicioID) (*indmodels.Indicio, *expmodels.Expediente, error) {
	var expedienteID int64
	err := tx.QueryRowContext(ctx, `SELECT expediente_id FROM indicios WHERE indicio_id = $1`, int64(indicioID)).Scan(&expedienteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, sentinel.ErrNotFound
		}
		return nil, nil, classify(fmt.Errorf("resolve indicio parent: %w", err))
	}
	parent, err := s.getExpediente(ctx, tx, id.ExpedienteID(expedienteID), true)
	if err != nil {
		return nil, nil, err
	}
	in, err := s.getIndicio(ctx, tx, indicioID, true)
	if err != nil {
		return nil, nil, err
	}
	return in, parent, nil
}

func (s *PostgresStore) UpdateIndicio(ctx context.Context, indicioID id.IndicioID, attrs indmodels.Attributes, check IndicioCheck) (*indmodels.Indicio, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var updated *indmodels.Indicio
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		in, parent, err := s.lockIndicio(ctx, tx, indicioID)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(parent, in); err != nil {
				return err
			}
		}
		in.ApplyAttributes(attrs, requestcontext.Now(ctx))

		query := `
			UPDATE indicios SET
				categoria_id = $1, nombre_objeto = $2, descripcion = $3, color = $4,
				tamano_alto = $5, tamano_ancho = $6, tamano_largo = $7, unidad_medida = $8,
				peso = $9, unidad_peso = $10, ubicacion_hallazgo = $11, latitud_gps = $12,
				longitud_gps = $13, estado_conservacion = $14, fecha_recoleccion = $15,
				ruta_fotografia = $16, observaciones = $17, fecha_modificacion = $18
			WHERE indicio_id = $19
		`
		_, err = tx.ExecContext(ctx, query,
			in.CategoriaID, in.NombreObjeto, in.Descripcion, in.Color,
			in.TamanoAlto, in.TamanoAncho, in.TamanoLargo, in.UnidadMedida,
			in.Peso, in.UnidadPeso, in.UbicacionHallazgo, in.LatitudGPS,
			in.LongitudGPS, in.EstadoConservacion, in.FechaRecoleccion,
			in.RutaFotografia, in.Observaciones, in.FechaModificacion,
			int64(indicioID),
		)
		if err != nil {
			return classify(fmt.Errorf("update indicio: %w", err))
		}
		updated = in
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) DeleteIndicio(ctx context.Context, indicioID id.IndicioID, check IndicioCheck) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		in, parent, err := s.lockIndicio(ctx, tx, indicioID)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(parent, in); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM indicios WHERE indicio_id = $1`, int64(indicioID)); err != nil {
			return classify(fmt.Errorf("delete indicio: %w", err))
		}
		return nil
	})
}

func (s *PostgresStore) ListIndiciosByExpediente(ctx context.Context, expedienteID id.ExpedienteID) ([]*indmodels.Indicio, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+indicioColumns+` FROM indicios WHERE expediente_id = $1 ORDER BY numero_indicio, indicio_id`,
		int64(expedienteID),
	)
	if err != nil {
		return nil, classify(fmt.Errorf("list indicios: %w", err))
	}
	defer rows.Close()

	items := make([]*indmodels.Indicio, 0)
	for rows.Next() {
		in, err := scanIndicio(rows)
		if err != nil {
			return nil, classify(fmt.Errorf("scan indicio: %w", err))
		}
		items = append(items, in)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("iterate indicios: %w", err))
	}
	return items, nil
}
