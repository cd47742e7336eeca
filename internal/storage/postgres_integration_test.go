//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	expmodels "dicri/internal/expediente/models"
	"dicri/pkg/platform/tx"
	"dicri/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	recordStoreSuite
	postgres *containers.PostgresContainer
	pg       *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.now = time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	s.Require().NoError(s.postgres.TruncateTables(context.Background(),
		"historial_aprobaciones", "indicios", "expedientes"))
	s.pg = NewPostgres(s.postgres.DB, WithTimeout(5*time.Second))
	s.store = s.pg
}

// TestHistoryFailureRollsBackState makes the history INSERT violate its CHECK
// constraint and verifies the estado UPDATE in the same transaction is gone.
func (s *PostgresStoreSuite) TestHistoryFailureRollsBackState() {
	ctx := context.Background()
	e := s.createExpediente("EXP-ATOM-1")
	s.createIndicio(e.ID, "A1")

	rules := expmodels.TransitionRules{EnforceReviewState: true}
	t, err := rules.ApplyTransition(e, expmodels.TransitionCommand{Op: expmodels.OpSubmit, UsuarioID: 10}, s.now)
	s.Require().NoError(err)
	t.History.Accion = ""

	_, err = s.store.TransitionExpediente(ctx, e.ID, e.EstadoID, t)
	s.Require().Error(err)

	current, err := s.store.GetExpediente(ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(expmodels.EstadoBorrador, current.EstadoID)
	history, err := s.store.ListHistorial(ctx, expmodels.HistorialFilter{ExpedienteID: e.ID})
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *PostgresStoreSuite) TestJoinsAmbientTransaction() {
	ctx := context.Background()
	sqlTx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)

	txCtx := tx.WithTx(ctx, sqlTx)
	e := s.newExpediente("EXP-TX-1")
	s.Require().NoError(s.store.CreateExpediente(txCtx, e))
	s.Require().NoError(sqlTx.Rollback())

	_, err = s.store.GetExpediente(ctx, e.ID)
	s.Error(err)
}

func (s *PostgresStoreSuite) TestHistoryIsAppendOnly() {
	ctx := context.Background()
	e := s.createExpediente("EXP-AO-1")
	s.createIndicio(e.ID, "A1")
	_, err := s.transition(e, expmodels.OpSubmit)
	s.Require().NoError(err)

	_, err = s.postgres.DB.ExecContext(ctx,
		"UPDATE historial_aprobaciones SET accion = 'Aprobar' WHERE expediente_id = $1", int64(e.ID))
	s.Error(err)
}
