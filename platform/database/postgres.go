package database

import (
	"context"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/platform/config"
	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
	log "github.com/sirupsen/logrus"
)

func PostgreSQLConnection(cfg config.Config) *pg.DB {
	return pg.Connect(&pg.Options{
		User:     cfg.DBUser,
		Addr:     cfg.DBAddr,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
	})
}

var tables = []interface{}{
	(*models.Property)(nil),
	(*models.Session)(nil),
	(*models.Player)(nil),
	(*models.Ownership)(nil),
	(*models.Transaction)(nil),
}

var indexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ownerships_session_property ON ownerships (session_id, property_id)`,
	`CREATE INDEX IF NOT EXISTS ownerships_player ON ownerships (player_id)`,
	`CREATE INDEX IF NOT EXISTS players_session ON players (session_id)`,
	`CREATE INDEX IF NOT EXISTS transactions_session_seq ON transactions (session_id, seq DESC)`,
}

// Migrate creates missing tables and indexes and seeds the board catalog.
func Migrate(ctx context.Context, db *pg.DB, board []models.Property) error {
	for _, model := range tables {
		err := db.ModelContext(ctx, model).CreateTable(&orm.CreateTableOptions{IfNotExists: true})
		if err != nil {
			return err
		}
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if len(board) == 0 {
		return nil
	}
	res, err := db.ModelContext(ctx, &board).OnConflict("(id) DO NOTHING").Insert()
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"component": "database", "seeded": res.RowsAffected()}).Info("schema ready")
	return nil
}
