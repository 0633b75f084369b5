// Package pgrepo is the Postgres-backed snapshot.Repository: each zone's
// NPC/object group is a single jsonb row, keyed by zone file name.
// Grounded on the teacher's internal/persist/db.go (pgxpool construction,
// ping-on-connect) and internal/persist/character_repo.go (per-entity
// JSON column save/load), generalized from per-character inventory rows
// to whole-group snapshot rows. Migrations are goose-managed, grounded on
// internal/persist/migrations.go.
package pgrepo

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ninesuns/jianghu/internal/config"
	"github.com/ninesuns/jianghu/internal/snapshot"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Repository is a pgx/v5 pool-backed snapshot.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// Open connects, pings, and migrates the snapshot schema up to date.
func Open(ctx context.Context, cfg config.PersistConfig) (*Repository, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Repository{pool: pool}, nil
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Repository) Close() { r.pool.Close() }

func (r *Repository) SaveNpcGroup(ctx context.Context, zoneFile string, items []snapshot.NpcSaveItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal npc group %s: %w", zoneFile, err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO npc_snapshots (zone_file, items, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (zone_file) DO UPDATE SET items = $2, updated_at = now()`,
		zoneFile, data)
	return err
}

func (r *Repository) LoadNpcGroup(ctx context.Context, zoneFile string) ([]snapshot.NpcSaveItem, bool, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT items FROM npc_snapshots WHERE zone_file = $1`, zoneFile).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var items []snapshot.NpcSaveItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("unmarshal npc group %s: %w", zoneFile, err)
	}
	return items, true, nil
}

func (r *Repository) SaveObjGroup(ctx context.Context, zoneFile string, items []snapshot.ObjSaveItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal obj group %s: %w", zoneFile, err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO obj_snapshots (zone_file, items, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (zone_file) DO UPDATE SET items = $2, updated_at = now()`,
		zoneFile, data)
	return err
}

func (r *Repository) LoadObjGroup(ctx context.Context, zoneFile string) ([]snapshot.ObjSaveItem, bool, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT items FROM obj_snapshots WHERE zone_file = $1`, zoneFile).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var items []snapshot.ObjSaveItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("unmarshal obj group %s: %w", zoneFile, err)
	}
	return items, true, nil
}

func (r *Repository) ClearAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `TRUNCATE npc_snapshots, obj_snapshots`)
	return err
}

var _ snapshot.Repository = (*Repository)(nil)
