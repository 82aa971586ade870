package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/domain/entity"
)

// MemoryStore is a map-backed engine without native transactions. It
// simulates them: every transaction buffers its writes in a private overlay
// that is validated with per-row versions and applied under a single lock on
// commit. Nothing a transaction writes is visible to others before that.
type MemoryStore struct {
	mu         sync.RWMutex
	products   *memTable[entity.Product]
	orders     *memTable[entity.Order]
	orderItems *memTable[entity.OrderItem]
	outbox     *memTable[outbound.OutboxMessage]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:   newMemTable("products", productMemSchema),
		orders:     newMemTable("orders", orderMemSchema),
		orderItems: newMemTable("order_items", orderItemMemSchema),
		outbox:     newMemTable("outbox", outboxMemSchema),
	}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Connect(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memConn{store: s}, nil
}

type memConn struct {
	store  *MemoryStore
	closed bool
}

func (c *memConn) Begin(ctx context.Context) (Tx, error) {
	if c.closed {
		return nil, errConnClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newMemTx(c.store, true), nil
}

func (c *memConn) Session() Session {
	return newMemTx(c.store, false)
}

func (c *memConn) Close() error {
	c.closed = true
	return nil
}

type memSchema[T any] struct {
	id        func(T) int64
	assignID  func(*T, int64)
	columns   map[string]func(T) any
	normalize func(T) T
}

type memRow[T any] struct {
	value   T
	version uint64
}

type memTable[T any] struct {
	name   string
	schema memSchema[T]
	seq    atomic.Int64
	rows   map[int64]memRow[T]
}

func newMemTable[T any](name string, schema memSchema[T]) *memTable[T] {
	return &memTable[T]{name: name, schema: schema, rows: make(map[int64]memRow[T])}
}

// txTable is the type-erased view the transaction needs at commit time.
type txTable interface {
	validateLocked() error
	applyLocked()
	discard()
}

type memTx struct {
	store      *MemoryStore
	writable   bool
	done       bool
	products   *memTxTable[entity.Product]
	orders     *memTxTable[entity.Order]
	orderItems *memTxTable[entity.OrderItem]
	outbox     *memTxTable[outbound.OutboxMessage]
}

func newMemTx(s *MemoryStore, writable bool) *memTx {
	tx := &memTx{store: s, writable: writable}
	tx.products = newMemTxTable(tx, s.products)
	tx.orders = newMemTxTable(tx, s.orders)
	tx.orderItems = newMemTxTable(tx, s.orderItems)
	tx.outbox = newMemTxTable(tx, s.outbox)
	return tx
}

func (tx *memTx) Products() EntityStore[entity.Product]       { return tx.products }
func (tx *memTx) Orders() EntityStore[entity.Order]           { return tx.orders }
func (tx *memTx) OrderItems() EntityStore[entity.OrderItem]   { return tx.orderItems }
func (tx *memTx) Outbox() EntityStore[outbound.OutboxMessage] { return tx.outbox }

func (tx *memTx) tables() []txTable {
	return []txTable{tx.products, tx.orders, tx.orderItems, tx.outbox}
}

func (tx *memTx) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx.done {
		return outbound.ErrTransactionNotOpen
	}
	return nil
}

func (tx *memTx) validateLocked() error {
	for _, t := range tx.tables() {
		if err := t.validateLocked(); err != nil {
			return err
		}
	}
	return nil
}

// Flush checks the staged writes against the committed versions so a
// conflict is reported as early as possible. The overlay itself is only
// applied on Commit.
func (tx *memTx) Flush(ctx context.Context) error {
	if err := tx.check(ctx); err != nil {
		return err
	}
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	return tx.validateLocked()
}

func (tx *memTx) Commit(ctx context.Context) error {
	if err := tx.check(ctx); err != nil {
		return err
	}
	tx.store.mu.Lock()
	if err := tx.validateLocked(); err != nil {
		tx.store.mu.Unlock()
		return err
	}
	for _, t := range tx.tables() {
		t.applyLocked()
	}
	tx.store.mu.Unlock()

	tx.finish()
	return nil
}

func (tx *memTx) Rollback(context.Context) error {
	if tx.done {
		return nil
	}
	tx.finish()
	return nil
}

func (tx *memTx) finish() {
	tx.done = true
	for _, t := range tx.tables() {
		t.discard()
	}
}

type memWrite[T any] struct {
	value    T
	inserted bool
	deleted  bool
	// base is the committed row version the write was derived from.
	base uint64
}

type memTxTable[T any] struct {
	tx     *memTx
	table  *memTable[T]
	writes map[int64]*memWrite[T]
	reads  map[int64]uint64
}

func newMemTxTable[T any](tx *memTx, table *memTable[T]) *memTxTable[T] {
	return &memTxTable[T]{
		tx:     tx,
		table:  table,
		writes: make(map[int64]*memWrite[T]),
		reads:  make(map[int64]uint64),
	}
}

func (t *memTxTable[T]) notFound(id int64) error {
	return fmt.Errorf("%s %d: %w", t.table.name, id, outbound.ErrNotFound)
}

func (t *memTxTable[T]) checkWrite(ctx context.Context) error {
	if err := t.tx.check(ctx); err != nil {
		return err
	}
	if !t.tx.writable {
		return outbound.ErrTransactionNotOpen
	}
	return nil
}

func (t *memTxTable[T]) committed(id int64) (memRow[T], bool) {
	t.tx.store.mu.RLock()
	defer t.tx.store.mu.RUnlock()
	row, ok := t.table.rows[id]
	return row, ok
}

func (t *memTxTable[T]) GetByID(ctx context.Context, id int64) (T, error) {
	var zero T
	if err := t.tx.check(ctx); err != nil {
		return zero, err
	}
	if w, ok := t.writes[id]; ok {
		if w.deleted {
			return zero, t.notFound(id)
		}
		return w.value, nil
	}
	row, ok := t.committed(id)
	if !ok {
		return zero, t.notFound(id)
	}
	t.reads[id] = row.version
	return row.value, nil
}

func (t *memTxTable[T]) Find(ctx context.Context, criteria outbound.Criteria) ([]T, error) {
	if err := t.tx.check(ctx); err != nil {
		return nil, err
	}
	for column := range criteria {
		if _, ok := t.table.schema.columns[column]; !ok {
			return nil, fmt.Errorf("%s.%s: %w", t.table.name, column, outbound.ErrUnknownColumn)
		}
	}

	matched := make(map[int64]T)
	t.tx.store.mu.RLock()
	for id, row := range t.table.rows {
		if _, staged := t.writes[id]; staged {
			continue
		}
		if t.matches(row.value, criteria) {
			matched[id] = row.value
			t.reads[id] = row.version
		}
	}
	t.tx.store.mu.RUnlock()

	for id, w := range t.writes {
		if !w.deleted && t.matches(w.value, criteria) {
			matched[id] = w.value
		}
	}

	ids := make([]int64, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = matched[id]
	}
	return out, nil
}

func (t *memTxTable[T]) matches(value T, criteria outbound.Criteria) bool {
	for column, want := range criteria {
		if !criterionMatches(t.table.schema.columns[column](value), want) {
			return false
		}
	}
	return true
}

func (t *memTxTable[T]) Insert(ctx context.Context, e T) (T, error) {
	if err := t.checkWrite(ctx); err != nil {
		var zero T
		return zero, err
	}
	if t.table.schema.normalize != nil {
		e = t.table.schema.normalize(e)
	}
	id := t.table.seq.Add(1)
	t.table.schema.assignID(&e, id)
	t.writes[id] = &memWrite[T]{value: e, inserted: true}
	return e, nil
}

func (t *memTxTable[T]) Update(ctx context.Context, e T) error {
	if err := t.checkWrite(ctx); err != nil {
		return err
	}
	if t.table.schema.normalize != nil {
		e = t.table.schema.normalize(e)
	}
	id := t.table.schema.id(e)
	if w, ok := t.writes[id]; ok {
		if w.deleted {
			return t.notFound(id)
		}
		w.value = e
		return nil
	}
	row, ok := t.committed(id)
	if !ok {
		return t.notFound(id)
	}
	base, seen := t.reads[id]
	if !seen {
		base = row.version
	}
	t.writes[id] = &memWrite[T]{value: e, base: base}
	return nil
}

func (t *memTxTable[T]) Delete(ctx context.Context, id int64) error {
	if err := t.checkWrite(ctx); err != nil {
		return err
	}
	if w, ok := t.writes[id]; ok {
		if w.inserted {
			delete(t.writes, id)
		} else {
			w.deleted = true
		}
		return nil
	}
	row, ok := t.committed(id)
	if !ok {
		return nil
	}
	base, seen := t.reads[id]
	if !seen {
		base = row.version
	}
	t.writes[id] = &memWrite[T]{deleted: true, base: base}
	return nil
}

func (t *memTxTable[T]) validateLocked() error {
	for id, w := range t.writes {
		if w.inserted {
			continue
		}
		row, ok := t.table.rows[id]
		if !ok || row.version != w.base {
			return fmt.Errorf("%s %d: %w", t.table.name, id, outbound.ErrConcurrencyConflict)
		}
	}
	return nil
}

func (t *memTxTable[T]) applyLocked() {
	for id, w := range t.writes {
		switch {
		case w.deleted:
			delete(t.table.rows, id)
		case w.inserted:
			t.table.rows[id] = memRow[T]{value: w.value, version: 1}
		default:
			t.table.rows[id] = memRow[T]{value: w.value, version: t.table.rows[id].version + 1}
		}
	}
}

func (t *memTxTable[T]) discard() {
	clear(t.writes)
	clear(t.reads)
}

// criterionMatches compares a column value with a criteria value. Integer
// kinds compare numerically and slice criteria match any of their elements.
func criterionMatches(got, want any) bool {
	wv := reflect.ValueOf(want)
	if wv.Kind() == reflect.Slice && wv.Type().Elem().Kind() != reflect.Uint8 {
		for i := 0; i < wv.Len(); i++ {
			if scalarEqual(got, wv.Index(i).Interface()) {
				return true
			}
		}
		return false
	}
	return scalarEqual(got, want)
}

func scalarEqual(a, b any) bool {
	ai, aInt := asInt64(a)
	bi, bInt := asInt64(b)
	if aInt && bInt {
		return ai == bi
	}
	return a == b
}

func asInt64(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(rv.Uint()), true
	default:
		return 0, false
	}
}

var productMemSchema = memSchema[entity.Product]{
	id:       entity.Product.ID,
	assignID: (*entity.Product).AssignID,
	columns: map[string]func(entity.Product) any{
		"id":          func(p entity.Product) any { return p.ID() },
		"name":        func(p entity.Product) any { return p.Name() },
		"price_cents": func(p entity.Product) any { return p.PriceCents() },
		"stock":       func(p entity.Product) any { return p.Stock() },
		"category":    func(p entity.Product) any { return p.Category() },
	},
}

var orderMemSchema = memSchema[entity.Order]{
	id:       entity.Order.ID,
	assignID: (*entity.Order).AssignID,
	columns: map[string]func(entity.Order) any{
		"id":            func(o entity.Order) any { return o.ID() },
		"customer_name": func(o entity.Order) any { return o.CustomerName() },
		"status":        func(o entity.Order) any { return o.StatusName() },
		"total_cents":   func(o entity.Order) any { return o.TotalCents() },
	},
	// lines live in the order_items table
	normalize: entity.Order.WithoutItems,
}

var orderItemMemSchema = memSchema[entity.OrderItem]{
	id:       entity.OrderItem.ID,
	assignID: (*entity.OrderItem).AssignID,
	columns: map[string]func(entity.OrderItem) any{
		"id":               func(i entity.OrderItem) any { return i.ID() },
		"order_id":         func(i entity.OrderItem) any { return i.OrderID() },
		"product_id":       func(i entity.OrderItem) any { return i.ProductID() },
		"product_name":     func(i entity.OrderItem) any { return i.ProductName() },
		"quantity":         func(i entity.OrderItem) any { return i.Quantity() },
		"unit_price_cents": func(i entity.OrderItem) any { return i.UnitPriceCents() },
	},
}

var outboxMemSchema = memSchema[outbound.OutboxMessage]{
	id:       func(m outbound.OutboxMessage) int64 { return m.ID },
	assignID: func(m *outbound.OutboxMessage, id int64) { m.ID = id },
	columns: map[string]func(outbound.OutboxMessage) any{
		"id":           func(m outbound.OutboxMessage) any { return m.ID },
		"event_id":     func(m outbound.OutboxMessage) any { return m.EventID },
		"aggregate_id": func(m outbound.OutboxMessage) any { return m.AggregateID },
		"event_type":   func(m outbound.OutboxMessage) any { return m.EventType },
		"topic":        func(m outbound.OutboxMessage) any { return m.Topic },
		"status":       func(m outbound.OutboxMessage) any { return m.Status },
		"attempts":     func(m outbound.OutboxMessage) any { return m.Attempts },
	},
}
