package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ayushman2046/Vendor-orders/internal/domain"
	"github.com/ayushman2046/Vendor-orders/internal/pipeline"
	"github.com/ayushman2046/Vendor-orders/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type EventRepository interface {
	SaveEvent(ctx context.Context, record *domain.OrderEventRecord) error
	GetVendorMetrics(ctx context.Context, vendorID string) (*domain.VendorMetrics, error)
}

type eventRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewEventRepository(pool *pgxpool.Pool, logger *zap.Logger) EventRepository {
	return &eventRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("event_repository"),
	}
}

// SaveEvent inserts one record inside a transaction. The INSERT ...
// RETURNING round trip surfaces constraint and encoding errors before
// commit. Failures come back as *pipeline.RetryableError or
// *pipeline.ConflictError so the caller can pick the ack policy.
func (r *eventRepo) SaveEvent(ctx context.Context, record *domain.OrderEventRecord) error {
	ctx, span := r.tracer.Start(ctx, "EventRepository.SaveEvent")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", record.OrderID),
		attribute.String("vendor_id", record.VendorID),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to begin transaction",
			zap.Error(err),
		)

		return &pipeline.RetryableError{Op: "begin", Err: err}
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)

		if err := tx.Rollback(cleanupCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(cleanupCtx, r.logger, "Failed to rollback transaction", zap.Error(err))
		}
	}()

	query := `
		INSERT INTO order_events (order_id, vendor_id, event_type, payload, timestamp, total_amount, high_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	if err := tx.QueryRow(
		ctx,
		query,
		record.OrderID,
		record.VendorID,
		record.EventType,
		record.Payload,
		record.Timestamp,
		record.TotalAmount,
		record.HighValue,
	).Scan(&record.ID); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert order event",
			zap.String("order_id", record.OrderID),
			zap.Error(err),
		)

		return classify("insert", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)

		mylogger.Error(ctx, r.logger, "Failed to commit transaction", zap.Error(err))
		return classify("commit", err)
	}

	return nil
}

func (r *eventRepo) GetVendorMetrics(ctx context.Context, vendorID string) (*domain.VendorMetrics, error) {
	ctx, span := r.tracer.Start(ctx, "EventRepository.GetVendorMetrics")
	defer span.End()

	span.SetAttributes(
		attribute.String("vendor_id", vendorID),
	)

	metrics := &domain.VendorMetrics{
		VendorID:        vendorID,
		Last7DaysVolume: make(map[string]int64),
	}

	query := `
		SELECT COUNT(*),
			COALESCE(SUM(total_amount), 0),
			COUNT(*) FILTER (WHERE high_value)
		FROM order_events
		WHERE vendor_id = $1
	`

	if err := r.pool.QueryRow(ctx, query, vendorID).Scan(
		&metrics.TotalOrders,
		&metrics.TotalRevenue,
		&metrics.HighValueOrders,
	); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query vendor totals",
			zap.String("vendor_id", vendorID),
			zap.Error(err),
		)

		return nil, err
	}

	volumeQuery := `
		SELECT timestamp::date AS day, COUNT(*)
		FROM order_events
		WHERE vendor_id = $1 AND timestamp::date >= $2::date
		GROUP BY timestamp::date
	`

	// the window bound is a calendar date, so a row from any time of
	// day seven days ago still counts
	sevenDaysAgo := time.Now().UTC().AddDate(0, 0, -7).Format("2006-01-02")

	rows, err := r.pool.Query(ctx, volumeQuery, vendorID, sevenDaysAgo)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query daily volume",
			zap.String("vendor_id", vendorID),
			zap.Error(err),
		)

		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var day time.Time
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			span.RecordError(err)
			return nil, err
		}

		metrics.Last7DaysVolume[day.Format("2006-01-02")] = count
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return metrics, nil
}

// classify splits store failures into the two kinds the read loop acts
// on. Postgres data and constraint violations can never succeed on
// redelivery; everything else (connection loss, timeouts, admin
// shutdown) is worth retrying.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code[:2] {
		case "22", "23", "42", "54":
			return &pipeline.ConflictError{Op: op, Err: err}
		}
	}

	return &pipeline.RetryableError{Op: op, Err: err}
}
