package sink

import (
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/model"
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	log "github.com/sirupsen/logrus"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS flow_verdicts (
    Timestamp        DateTime,
    Source           String,
    FlowKey          String,
    Label            UInt8,
    LabelName        String,
    Confidence       Float64,
    PacketCount      UInt64,
    ByteCount        UInt64,
    Duration         Float64,
    AvgPacketSize    Float64,
    BytesPerSecond   Float64,
    PacketsPerSecond Float64,
    FlowDuration     Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Source, Timestamp);
`

// ClickHouseWriter implements model.VerdictWriter for ClickHouse.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects and ensures the verdict table exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	return &ClickHouseWriter{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	return conn, nil
}

// Write inserts the verdicts of one capture in a single batch.
func (w *ClickHouseWriter) Write(ctx context.Context, source string, verdicts []model.Verdict) error {
	if len(verdicts) == 0 {
		return nil
	}

	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO flow_verdicts")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	now := time.Now()
	for _, v := range verdicts {
		if err := batch.Append(verdictRow(now, source, v)...); err != nil {
			return fmt.Errorf("failed to append verdict to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Wrote %d verdicts to ClickHouse for '%s'", len(verdicts), source)
	return nil
}

// verdictRow orders a verdict's values like the flow_verdicts columns.
func verdictRow(ts time.Time, source string, v model.Verdict) []interface{} {
	f := v.Features
	return []interface{}{
		ts,
		source,
		v.Key.Value,
		uint8(v.Result.Label),
		model.LabelName(v.Result.Label),
		v.Result.Confidence,
		uint64(f.PacketCount),
		uint64(f.ByteCount),
		f.Duration,
		f.AvgPacketSize,
		f.BytesPerSecond,
		f.PacketsPerSecond,
		f.FlowDuration,
	}
}

func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}
