package telemetry

import (
	"context"
	"fmt"

	"github.com/pharmacy/backend/internal/domain/inventory"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// MeterName is the instrumentation name for inventory instruments
const MeterName = "pharmacy-inventory"

// LowStockCounter counts active products at or below their reorder point
type LowStockCounter interface {
	CountLowStock(ctx context.Context) (int64, error)
}

// InventoryMetrics records stock movement outcomes.
type InventoryMetrics struct {
	movements  *Counter
	rejections *Counter
	quantity   *Histogram
	lowStock   metric.Int64ObservableGauge
	meter      metric.Meter
	logger     *zap.Logger

	registration metric.Registration
}

// NewInventoryMetrics creates the movement instruments on meter
func NewInventoryMetrics(meter metric.Meter, logger *zap.Logger) (*InventoryMetrics, error) {
	movements, err := NewCounter(meter, "inventory_movements_total",
		"Committed stock movements", "{movement}")
	if err != nil {
		return nil, err
	}
	rejections, err := NewCounter(meter, "inventory_movement_rejections_total",
		"Stock movements refused before commit", "{movement}")
	if err != nil {
		return nil, err
	}
	quantity, err := NewHistogram(meter, HistogramOpts{
		Name:        "inventory_movement_quantity",
		Description: "Units moved per committed stock movement",
		Unit:        "{unit}",
		Boundaries:  QuantityBuckets,
	})
	if err != nil {
		return nil, err
	}
	lowStock, err := meter.Int64ObservableGauge("inventory_low_stock_products",
		metric.WithDescription("Active products at or below their reorder point"),
		metric.WithUnit("{product}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create low stock gauge: %w", err)
	}

	return &InventoryMetrics{
		movements:  movements,
		rejections: rejections,
		quantity:   quantity,
		lowStock:   lowStock,
		meter:      meter,
		logger:     logger,
	}, nil
}

// RecordMovement counts one committed movement and its quantity
func (m *InventoryMetrics) RecordMovement(ctx context.Context, movementType inventory.MovementType, quantity int) {
	attr := AttrMovementType.String(string(movementType))
	m.movements.Inc(ctx, attr)
	m.quantity.Record(ctx, float64(quantity), attr)
}

// RecordRejection counts one refused movement by its error code
func (m *InventoryMetrics) RecordRejection(ctx context.Context, movementType inventory.MovementType, reason string) {
	m.rejections.Inc(ctx, AttrMovementType.String(string(movementType)), AttrReason.String(reason))
}

// ObserveLowStock reports counter.CountLowStock on each collection.
// Calling it again replaces the previous source.
func (m *InventoryMetrics) ObserveLowStock(counter LowStockCounter) error {
	if m.registration != nil {
		if err := m.registration.Unregister(); err != nil {
			return err
		}
	}

	reg, err := m.meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		n, err := counter.CountLowStock(ctx)
		if err != nil {
			m.logger.Warn("Failed to count low stock products", zap.Error(err))
			return nil
		}
		o.ObserveInt64(m.lowStock, n)
		return nil
	}, m.lowStock)
	if err != nil {
		return fmt.Errorf("failed to register low stock callback: %w", err)
	}
	m.registration = reg
	return nil
}

// Stop unregisters the low stock callback
func (m *InventoryMetrics) Stop() error {
	if m.registration == nil {
		return nil
	}
	err := m.registration.Unregister()
	m.registration = nil
	return err
}
