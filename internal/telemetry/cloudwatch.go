// Package telemetry publishes service metrics to AWS CloudWatch.
//
// Metrics emitted:
//   - APIRequestCount: Dims {Method, Endpoint, Status}
//   - APILatency:      Dims {Method, Endpoint}
//   - ITNReceived:     Dims {Outcome, PaymentStatus}
//
// Datums are buffered in memory and sent in batches so that request handling
// never waits on CloudWatch except when a batch fills.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric names.
const (
	MetricAPIRequestCount = "APIRequestCount"
	MetricAPILatency      = "APILatency"
	MetricITNReceived     = "ITNReceived"
)

// Dimension names.
const (
	DimMethod        = "Method"
	DimEndpoint      = "Endpoint"
	DimStatus        = "Status"
	DimOutcome       = "Outcome"
	DimPaymentStatus = "PaymentStatus"
)

// maxBatchSize bounds the datums sent per PutMetricData call.
const maxBatchSize = 150

// flushTimeout bounds a flush triggered by a full buffer.
const flushTimeout = 2 * time.Second

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics buffers API and notification metrics and publishes them
// to a CloudWatch namespace. It is safe for concurrent use.
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	buffer []cwtypes.MetricDatum
}

// NewCloudWatchMetrics creates a CloudWatchMetrics that publishes to namespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordRequest buffers a request count and a latency datum.
func (m *CloudWatchMetrics) RecordRequest(method, endpoint, status string, duration time.Duration) {
	ts := aws.Time(m.now())

	m.add(
		cwtypes.MetricDatum{
			MetricName: aws.String(MetricAPIRequestCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Timestamp:  ts,
			Dimensions: []cwtypes.Dimension{
				{Name: aws.String(DimMethod), Value: aws.String(method)},
				{Name: aws.String(DimEndpoint), Value: aws.String(endpoint)},
				{Name: aws.String(DimStatus), Value: aws.String(status)},
			},
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(MetricAPILatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Timestamp:  ts,
			Dimensions: []cwtypes.Dimension{
				{Name: aws.String(DimMethod), Value: aws.String(method)},
				{Name: aws.String(DimEndpoint), Value: aws.String(endpoint)},
			},
		},
	)
}

// RecordNotification buffers one ITNReceived datum for a processed payment
// notification. paymentStatus is empty when the payload could not be parsed.
func (m *CloudWatchMetrics) RecordNotification(_ context.Context, outcome, paymentStatus string) {
	if paymentStatus == "" {
		paymentStatus = "NONE"
	}

	m.add(cwtypes.MetricDatum{
		MetricName: aws.String(MetricITNReceived),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Timestamp:  aws.Time(m.now()),
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String(DimOutcome), Value: aws.String(outcome)},
			{Name: aws.String(DimPaymentStatus), Value: aws.String(paymentStatus)},
		},
	})
}

func (m *CloudWatchMetrics) add(datums ...cwtypes.MetricDatum) {
	m.mu.Lock()
	m.buffer = append(m.buffer, datums...)
	full := len(m.buffer) >= maxBatchSize
	m.mu.Unlock()

	if full {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := m.Flush(ctx); err != nil {
			m.logger.Error("failed to publish metrics", "error", err.Error())
		}
	}
}

// Flush sends all buffered datums. Datums from a failed batch are dropped;
// the error of the last failing call is returned.
func (m *CloudWatchMetrics) Flush(ctx context.Context) error {
	m.mu.Lock()
	pending := m.buffer
	m.buffer = nil
	m.mu.Unlock()

	var lastErr error
	for start := 0; start < len(pending); start += maxBatchSize {
		end := min(start+maxBatchSize, len(pending))

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: pending[start:end],
		})
		if err != nil {
			m.logger.Error("failed to put metric data",
				"error", err.Error(),
				"datums", end-start,
			)
			lastErr = err
		}
	}

	return lastErr
}

// Pending reports the number of buffered datums.
func (m *CloudWatchMetrics) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buffer)
}
