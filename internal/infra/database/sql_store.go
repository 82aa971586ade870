package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/domain/entity"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// SQLStore runs the repositories on a database/sql engine with real
// transactions. Writes execute inside the open transaction as they are
// staged, so they are visible to later reads of the same transaction and
// durable only after COMMIT.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	var format sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		format = sq.Dollar
	}
	return &SQLStore{
		db:      db,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
	}
}

func (s *SQLStore) Name() string { return string(s.dialect) }

// Connect pins one pooled connection for the lifetime of a unit of work.
func (s *SQLStore) Connect(ctx context.Context) (Conn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", mapSQLError(err))
	}
	return &sqlConn{store: s, conn: conn}, nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlConn struct {
	store *SQLStore
	conn  *sql.Conn
}

func (c *sqlConn) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", mapSQLError(err))
	}
	return &sqlTx{sqlSession: &sqlSession{store: c.store, q: tx, inTx: true}, tx: tx}, nil
}

func (c *sqlConn) Session() Session {
	return &sqlSession{store: c.store, q: c.conn}
}

func (c *sqlConn) Close() error {
	return c.conn.Close()
}

type sqlSession struct {
	store *SQLStore
	q     querier
	inTx  bool
}

func (s *sqlSession) Products() EntityStore[entity.Product] {
	return &sqlTable[entity.Product]{session: s, schema: productSQLSchema}
}

func (s *sqlSession) Orders() EntityStore[entity.Order] {
	return &sqlTable[entity.Order]{session: s, schema: orderSQLSchema}
}

func (s *sqlSession) OrderItems() EntityStore[entity.OrderItem] {
	return &sqlTable[entity.OrderItem]{session: s, schema: orderItemSQLSchema}
}

func (s *sqlSession) Outbox() EntityStore[outbound.OutboxMessage] {
	return &sqlTable[outbound.OutboxMessage]{session: s, schema: outboxSQLSchema}
}

type sqlTx struct {
	*sqlSession
	tx   *sql.Tx
	done bool
}

// Flush has nothing to push: statements already ran inside the transaction.
func (t *sqlTx) Flush(ctx context.Context) error {
	if t.done {
		return outbound.ErrTransactionNotOpen
	}
	return ctx.Err()
}

func (t *sqlTx) Commit(ctx context.Context) error {
	if t.done {
		return outbound.ErrTransactionNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", mapSQLError(err))
	}
	return nil
}

func (t *sqlTx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

type sqlSchema[T any] struct {
	table string
	// columns excludes the id column and matches the order of values.
	columns []string
	// lockForUpdate makes transactional reads take a row lock where the
	// dialect supports it.
	lockForUpdate bool
	id            func(T) int64
	assignID      func(*T, int64)
	values        func(T) []any
	scan          func(rowScanner) (T, error)
}

type sqlTable[T any] struct {
	session *sqlSession
	schema  sqlSchema[T]
}

func (t *sqlTable[T]) selectColumns() []string {
	return append([]string{"id"}, t.schema.columns...)
}

func (t *sqlTable[T]) knownColumn(name string) bool {
	if name == "id" {
		return true
	}
	for _, c := range t.schema.columns {
		if c == name {
			return true
		}
	}
	return false
}

func (t *sqlTable[T]) GetByID(ctx context.Context, id int64) (T, error) {
	var zero T
	q := t.session.store.builder.
		Select(t.selectColumns()...).
		From(t.schema.table).
		Where(sq.Eq{"id": id})
	if t.session.inTx && t.schema.lockForUpdate && t.session.store.dialect == DialectPostgres {
		q = q.Suffix("FOR UPDATE")
	}
	query, args, err := q.ToSql()
	if err != nil {
		return zero, err
	}

	e, err := t.schema.scan(t.session.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("%s %d: %w", t.schema.table, id, outbound.ErrNotFound)
	}
	if err != nil {
		return zero, fmt.Errorf("select %s: %w", t.schema.table, mapSQLError(err))
	}
	return e, nil
}

func (t *sqlTable[T]) Find(ctx context.Context, criteria outbound.Criteria) ([]T, error) {
	q := t.session.store.builder.
		Select(t.selectColumns()...).
		From(t.schema.table).
		OrderBy("id")
	if len(criteria) > 0 {
		for column := range criteria {
			if !t.knownColumn(column) {
				return nil, fmt.Errorf("%s.%s: %w", t.schema.table, column, outbound.ErrUnknownColumn)
			}
		}
		q = q.Where(sq.Eq(criteria))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := t.session.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.schema.table, mapSQLError(err))
	}
	defer func() { _ = rows.Close() }()

	var out []T
	for rows.Next() {
		e, err := t.schema.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.schema.table, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", t.schema.table, mapSQLError(err))
	}
	return out, nil
}

func (t *sqlTable[T]) Insert(ctx context.Context, e T) (T, error) {
	var zero T
	query, args, err := t.session.store.builder.
		Insert(t.schema.table).
		Columns(t.schema.columns...).
		Values(t.schema.values(e)...).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return zero, err
	}

	var id int64
	if err := t.session.q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return zero, fmt.Errorf("insert %s: %w", t.schema.table, mapSQLError(err))
	}
	t.schema.assignID(&e, id)
	return e, nil
}

func (t *sqlTable[T]) Update(ctx context.Context, e T) error {
	id := t.schema.id(e)
	q := t.session.store.builder.Update(t.schema.table)
	for i, v := range t.schema.values(e) {
		q = q.Set(t.schema.columns[i], v)
	}
	query, args, err := q.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	res, err := t.session.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.schema.table, mapSQLError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", t.schema.table, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", t.schema.table, id, outbound.ErrNotFound)
	}
	return nil
}

func (t *sqlTable[T]) Delete(ctx context.Context, id int64) error {
	query, args, err := t.session.store.builder.
		Delete(t.schema.table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := t.session.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", t.schema.table, mapSQLError(err))
	}
	return nil
}

// mapSQLError turns engine-specific contention errors into
// outbound.ErrConcurrencyConflict so callers can retry.
func mapSQLError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %w", outbound.ErrConcurrencyConflict, err)
		}
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %w", outbound.ErrConcurrencyConflict, err)
		}
	}
	return err
}
