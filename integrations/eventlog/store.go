package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rwaledger/core/events"
	"rwaledger/core/types"
	"rwaledger/observability"
)

// ErrDSNRequired is returned when no database location is configured.
var ErrDSNRequired = errors.New("eventlog: dsn required")

const defaultQueryLimit = 100

// Record is the persisted form of one committed ledger event.
type Record struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Sequence     uint64    `gorm:"uniqueIndex"`
	Type         string    `gorm:"index"`
	AssetID      uint64    `gorm:"index"`
	Account      string    `gorm:"index"`
	Counterparty string    `gorm:"index"`
	Attributes   string    `gorm:"type:text"`
	Timestamp    int64
	CreatedAt    time.Time
}

// TableName pins the table name independent of the struct name.
func (Record) TableName() string { return "ledger_events" }

// Filter narrows Query results. Zero values match everything.
type Filter struct {
	Type          string
	AssetID       uint64
	Account       string
	AfterSequence uint64
	Limit         int
}

// Store indexes committed events in sqlite for later querying.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to the sqlite database at dsn and migrates the schema.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, ErrDSNRequired
	}
	db, err := gorm.Open(sqlite.Open(trimmed), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return New(db, logger)
}

// New wraps an existing gorm handle.
func New(db *gorm.DB, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("eventlog: nil database")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate event log: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Emit satisfies events.Emitter. Failures are logged and counted; they never
// reach the ledger.
func (s *Store) Emit(evt events.Event) {
	payload := events.Payload(evt)
	if payload == nil {
		return
	}
	if err := s.Append(context.Background(), payload); err != nil {
		observability.Events().RecordSinkFailure("eventlog")
		s.logger.Warn("event log append failed",
			slog.String("type", payload.Type),
			slog.Uint64("sequence", payload.Sequence),
			slog.String("error", err.Error()))
	}
}

// Append stores evt. Replaying an already stored sequence is a no-op.
func (s *Store) Append(ctx context.Context, evt *types.Event) error {
	if evt == nil {
		return nil
	}
	record, err := toRecord(evt)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "sequence"}}, DoNothing: true}).
		Create(record).Error
}

// Query returns events matching filter in sequence order.
func (s *Store) Query(ctx context.Context, filter Filter) ([]*types.Event, error) {
	query := s.db.WithContext(ctx).Model(&Record{})
	if t := strings.TrimSpace(filter.Type); t != "" {
		query = query.Where("type = ?", t)
	}
	if filter.AssetID != 0 {
		query = query.Where("asset_id = ?", filter.AssetID)
	}
	if account := strings.TrimSpace(filter.Account); account != "" {
		query = query.Where("account = ? OR counterparty = ?", account, account)
	}
	if filter.AfterSequence > 0 {
		query = query.Where("sequence > ?", filter.AfterSequence)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = defaultQueryLimit
	}
	var records []Record
	if err := query.Order("sequence ASC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query event log: %w", err)
	}
	out := make([]*types.Event, 0, len(records))
	for i := range records {
		evt, err := records[i].event()
		if err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, nil
}

// LastSequence returns the highest stored sequence, or zero when empty.
func (s *Store) LastSequence(ctx context.Context) (uint64, error) {
	var last sql.NullInt64
	row := s.db.WithContext(ctx).Model(&Record{}).Select("MAX(sequence)").Row()
	if err := row.Scan(&last); err != nil {
		return 0, fmt.Errorf("last sequence: %w", err)
	}
	return uint64(last.Int64), nil
}

func toRecord(evt *types.Event) (*Record, error) {
	attrs, err := json.Marshal(evt.Attributes)
	if err != nil {
		return nil, fmt.Errorf("encode attributes: %w", err)
	}
	record := &Record{
		ID:         uuid.New(),
		Sequence:   evt.Sequence,
		Type:       evt.Type,
		Attributes: string(attrs),
		Timestamp:  evt.Timestamp,
	}
	if raw, ok := evt.Attributes["assetId"]; ok {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			record.AssetID = id
		}
	}
	for _, key := range []string{"investor", "account", "from"} {
		if v := evt.Attributes[key]; v != "" {
			record.Account = v
			break
		}
	}
	record.Counterparty = evt.Attributes["to"]
	return record, nil
}

func (r *Record) event() (*types.Event, error) {
	attrs := map[string]string{}
	if r.Attributes != "" {
		if err := json.Unmarshal([]byte(r.Attributes), &attrs); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", r.Sequence, err)
		}
	}
	return &types.Event{Type: r.Type, Attributes: attrs, Sequence: r.Sequence, Timestamp: r.Timestamp}, nil
}
