package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"log/slog"

	"github.com/memoralabs/memora/memora"
	"github.com/memoralabs/memora/memora/database/models"
	"github.com/uptrace/bun"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultConnTimeout = 5 * time.Second

// DB holds every persistence handle the service uses: the Mongo database
// for content documents (claim requests, memories, orders) and the
// Postgres pool/bun pair for staff accounts and the audit trail. It is
// created once in main and injected; nothing reads it as a global.
type DB struct {
	mongoClient *mongo.Client
	mongoDB     *mongo.Database
	pool        *pgxpool.Pool
	bunDB       *bun.DB
}

func New(ctx context.Context, mongoCfg memora.MongoConfig, pgCfg memora.PostgresConfig) (*DB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()

	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(mongoCfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(buildConnString(pgCfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if pgCfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(pgCfg.PoolSize)
	}
	if pgCfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(pgCfg.MaxIdleConns)
	}
	if pgCfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(pgCfg.MaxLifetime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &DB{
		mongoClient: mongoClient,
		mongoDB:     mongoClient.Database(mongoCfg.Database),
		pool:        pool,
		bunDB:       newBunDB(pool),
	}, nil
}

func buildConnString(cfg memora.PostgresConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

func newBunDB(pool *pgxpool.Pool) *bun.DB {
	sslMode := os.Getenv("PG_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pool.Config().ConnConfig.User,
		pool.Config().ConnConfig.Password,
		pool.Config().ConnConfig.Host,
		pool.Config().ConnConfig.Port,
		pool.Config().ConnConfig.Database,
		sslMode,
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Mongo returns the content document database.
func (db *DB) Mongo() *mongo.Database {
	return db.mongoDB
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) GetPool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) ExecWithLog(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	start := time.Now()
	result, err := db.pool.Exec(ctx, sql, args...)
	duration := time.Since(start)

	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "exec"),
			slog.String("query", sql),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return result, err
	}

	slog.Debug("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "exec"),
		slog.String("query", sql),
		slog.Duration("took", duration),
		slog.Int64("affected_rows", result.RowsAffected()),
	)
	return result, nil
}

// InitializeSchema creates the Postgres tables/indexes and Mongo indexes
// the service relies on. Safe to run on every start.
func (db *DB) InitializeSchema(ctx context.Context) error {
	tables := []interface{}{
		(*models.Staff)(nil),
		(*models.SecurityEvent)(nil),
	}

	for _, model := range tables {
		query := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists()

		if _, err := query.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_security_events_type ON security_events(event_type);",
		"CREATE INDEX IF NOT EXISTS idx_security_events_tenant ON security_events(tenant);",
		"CREATE INDEX IF NOT EXISTS idx_security_events_timestamp ON security_events(timestamp);",
		"CREATE INDEX IF NOT EXISTS idx_staff_email ON staff(email);",
		"CREATE INDEX IF NOT EXISTS idx_staff_role ON staff(role);",
	}

	for _, idx := range indexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := db.ensureMongoIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create mongo indexes: %w", err)
	}

	return nil
}

func (db *DB) ensureMongoIndexes(ctx context.Context) error {
	type collIndex struct {
		collection string
		keys       bson.D
		unique     bool
	}

	wanted := []collIndex{
		{"claim_requests", bson.D{{Key: "request_key", Value: 1}}, true},
		{"claim_requests", bson.D{{Key: "tenant", Value: 1}, {Key: "status", Value: 1}}, false},
		{"memories", bson.D{{Key: "public_page_id", Value: 1}}, true},
		{"memories", bson.D{{Key: "owner_uid", Value: 1}}, false},
		{"orders", bson.D{{Key: "tenant", Value: 1}, {Key: "created_at", Value: -1}}, false},
		{"orders", bson.D{{Key: "customer_email", Value: 1}}, false},
	}

	for _, w := range wanted {
		opts := options.Index()
		if w.unique {
			opts = opts.SetUnique(true)
		}
		_, err := db.mongoDB.Collection(w.collection).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    w.keys,
			Options: opts,
		})
		if err != nil {
			return fmt.Errorf("index on %s: %w", w.collection, err)
		}
	}

	return nil
}

// Ping verifies all backing stores are reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.mongoClient.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pgxpool ping failed: %w", err)
	}
	if err := db.bunDB.PingContext(ctx); err != nil {
		return fmt.Errorf("bun ping failed: %w", err)
	}
	return nil
}

func (db *DB) Close(ctx context.Context) {
	if db.mongoClient != nil {
		if err := db.mongoClient.Disconnect(ctx); err != nil {
			slog.Warn("Mongo disconnect failed", slog.Any("error", err))
		}
	}
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}
