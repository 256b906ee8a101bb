// Package metrics publishes order business counters to CloudWatch.
package metrics

import (
	"context"
	"log/slog"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/imrishuroy/restaurant-orderflow/internal/aws"
)

// Metric names.
const (
	MetricOrdersCreated      = "OrdersCreated"
	MetricOrderRevenue       = "OrderRevenue"
	MetricOrderStatusChanged = "OrderStatusChanged"
)

const putTimeout = 2 * time.Second

// CloudWatch records counters with PutMetricData. Errors are logged, never returned:
// a metrics outage must not affect order handling.
type CloudWatch struct {
	client    aws.CloudWatchAPI
	namespace string
	log       *slog.Logger
	nowFunc   func() time.Time
}

func NewCloudWatch(client aws.CloudWatchAPI, namespace string, log *slog.Logger) *CloudWatch {
	return &CloudWatch{
		client:    client,
		namespace: namespace,
		log:       log.With("component", "metrics"),
		nowFunc:   time.Now,
	}
}

// OrderCreated counts one order and adds its total to the revenue metric.
func (c *CloudWatch) OrderCreated(ctx context.Context, total float64) {
	now := c.nowFunc()
	c.put(ctx,
		cwtypes.MetricDatum{
			MetricName: sdkaws.String(MetricOrdersCreated),
			Unit:       cwtypes.StandardUnitCount,
			Value:      sdkaws.Float64(1),
			Timestamp:  &now,
		},
		cwtypes.MetricDatum{
			MetricName: sdkaws.String(MetricOrderRevenue),
			Unit:       cwtypes.StandardUnitNone,
			Value:      sdkaws.Float64(total),
			Timestamp:  &now,
		},
	)
}

// StatusChanged counts a status change, dimensioned by the new status.
func (c *CloudWatch) StatusChanged(ctx context.Context, status string) {
	now := c.nowFunc()
	c.put(ctx, cwtypes.MetricDatum{
		MetricName: sdkaws.String(MetricOrderStatusChanged),
		Unit:       cwtypes.StandardUnitCount,
		Value:      sdkaws.Float64(1),
		Timestamp:  &now,
		Dimensions: []cwtypes.Dimension{
			{Name: sdkaws.String("Status"), Value: sdkaws.String(status)},
		},
	})
}

func (c *CloudWatch) put(ctx context.Context, data ...cwtypes.MetricDatum) {
	// the request may already be finished; metrics still get their own budget
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), putTimeout)
	defer cancel()

	_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(c.namespace),
		MetricData: data,
	})
	if err != nil {
		c.log.Warn("put metric data failed", "namespace", c.namespace, "error", err)
	}
}
