package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// CheckoutMetrics tracks the storefront's business metrics: checkout
// outcomes, cart merges and the post-payment persistence failures that
// operators must reconcile by hand.
type CheckoutMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	checkoutAttemptsTotal   *Counter
	paymentDeclinedTotal    *Counter
	ordersRecordedTotal     *Counter
	postPaymentPersistTotal *Counter
	cartMergesTotal         *Counter
	orderAmountHistogram    *Histogram
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewCheckoutMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// NewCheckoutMetrics creates a new CheckoutMetrics instance.
func NewCheckoutMetrics(meter metric.Meter, logger *zap.Logger) (*CheckoutMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cm := &CheckoutMetrics{
		meter:  meter,
		logger: logger,
	}

	var err error
	if cm.checkoutAttemptsTotal, err = NewCounter(meter,
		"checkout_attempts_total",
		"Total number of checkout attempts",
		"{attempt}"); err != nil {
		return nil, err
	}
	if cm.paymentDeclinedTotal, err = NewCounter(meter,
		"checkout_payment_declined_total",
		"Total number of declined payments",
		"{payment}"); err != nil {
		return nil, err
	}
	if cm.ordersRecordedTotal, err = NewCounter(meter,
		"orders_recorded_total",
		"Total number of orders recorded after confirmed payment",
		"{order}"); err != nil {
		return nil, err
	}
	if cm.postPaymentPersistTotal, err = NewCounter(meter,
		"checkout_post_payment_persist_failures_total",
		"Payments confirmed by the provider whose order could not be recorded",
		"{failure}"); err != nil {
		return nil, err
	}
	if cm.cartMergesTotal, err = NewCounter(meter,
		"cart_merges_total",
		"Total number of guest-into-account cart merges",
		"{merge}"); err != nil {
		return nil, err
	}
	if cm.orderAmountHistogram, err = NewHistogram(meter, HistogramOpts{
		Name:        "order_amount",
		Description: "Distribution of recorded order totals",
		Unit:        "USD",
	}); err != nil {
		return nil, err
	}

	return cm, nil
}

// RecordCheckoutAttempt records a checkout attempt
func (cm *CheckoutMetrics) RecordCheckoutAttempt(ctx context.Context) {
	cm.checkoutAttemptsTotal.Inc(ctx)
}

// RecordPaymentDeclined records a declined payment
func (cm *CheckoutMetrics) RecordPaymentDeclined(ctx context.Context, reason string) {
	cm.paymentDeclinedTotal.Inc(ctx, AttrDeclineReason.String(reason))
}

// RecordOrderRecorded records a successfully persisted order
func (cm *CheckoutMetrics) RecordOrderRecorded(ctx context.Context, amount float64) {
	cm.ordersRecordedTotal.Inc(ctx)
	cm.orderAmountHistogram.Record(ctx, amount)
}

// RecordPostPaymentPersistFailure records a payment that succeeded at the
// provider but whose order write failed. These are never retried
// automatically; the counter exists so operators notice.
func (cm *CheckoutMetrics) RecordPostPaymentPersistFailure(ctx context.Context, attrs ...attribute.KeyValue) {
	cm.postPaymentPersistTotal.Inc(ctx, attrs...)
	cm.logger.Error("Post-payment persistence failure recorded")
}

// RecordCartMerge records a guest-into-account cart merge
func (cm *CheckoutMetrics) RecordCartMerge(ctx context.Context) {
	cm.cartMergesTotal.Inc(ctx)
}
