// Package aws implements the Tool Catalog's AWS adapter: CloudWatch metric
// lookups and EC2 NAT gateway description, used to correlate a finding
// with egress/throughput anomalies outside the cluster. Metric lookups are
// cached by (metric, time window) for up to catalog.MetricCacheTTL.
package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	smithy "github.com/aws/smithy-go"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
)

const DefaultTimeout = 20 * time.Second

type Client struct {
	cw      *cloudwatch.Client
	ec2     *ec2.Client
	cache   *catalog.MetricCache
	Timeout time.Duration
}

func NewClient(ctx context.Context, region string) (*Client, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws client: loading config: %w", err)
	}
	return &Client{
		cw:      cloudwatch.NewFromConfig(cfg),
		ec2:     ec2.NewFromConfig(cfg),
		cache:   catalog.NewMetricCache(catalog.MetricCacheTTL),
		Timeout: DefaultTimeout,
	}, nil
}

func descriptor(name string, category catalog.Category, schema string) catalog.Descriptor {
	return catalog.Descriptor{Name: name, Category: category, TargetSystem: "aws", InputSchema: json.RawMessage(schema)}
}

func decodeArgs(raw json.RawMessage, dst any) *catalog.ToolError {
	if err := json.Unmarshal(raw, dst); err != nil {
		return catalog.NewToolError(catalog.ErrorKindValidation, fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

func payload(v any) catalog.Result {
	b, err := json.Marshal(v)
	if err != nil {
		return catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindFatal, err.Error())}
	}
	body, truncated, reason := catalog.TruncatePayload(string(b))
	return catalog.Result{OK: true, Payload: body, Truncated: truncated, TruncatedReason: reason}
}

func classifyAWSErr(err error) *catalog.ToolError {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "Throttling", "RequestLimitExceeded":
			return catalog.NewToolError(catalog.ErrorKindThrottled, apiErr.ErrorMessage())
		case "UnauthorizedOperation", "AccessDenied":
			return catalog.NewToolError(catalog.ErrorKindUnauthorized, apiErr.ErrorMessage())
		case "ResourceNotFound", "InvalidNatGatewayID.NotFound":
			return catalog.NewToolError(catalog.ErrorKindNotFound, apiErr.ErrorMessage())
		}
	}
	if strings.Contains(err.Error(), "context deadline exceeded") {
		return catalog.NewToolError(catalog.ErrorKindTimeout, err.Error())
	}
	return catalog.NewToolError(catalog.ErrorKindUpstream, err.Error())
}

func RegisterTools(c *catalog.Catalog, client *Client) {
	c.Register(catalog.Tool{
		Descriptor: descriptor("cw_get_metric", catalog.CategoryRead, `{"type":"object","properties":{"namespace":{"type":"string"},"metric_name":{"type":"string"},"dimension_name":{"type":"string"},"dimension_value":{"type":"string"},"window_minutes":{"type":"integer"},"stat":{"type":"string"}},"required":["namespace","metric_name","dimension_name","dimension_value"]}`),
		Invoke:     client.cwGetMetric,
	})
	c.Register(catalog.Tool{
		Descriptor: descriptor("ec2_describe_nat", catalog.CategoryRead, `{"type":"object","properties":{"vpc_id":{"type":"string"}},"required":["vpc_id"]}`),
		Invoke:     client.ec2DescribeNAT,
	})
}

type metricArgs struct {
	Namespace      string `json:"namespace"`
	MetricName     string `json:"metric_name"`
	DimensionName  string `json:"dimension_name"`
	DimensionValue string `json:"dimension_value"`
	WindowMinutes  int32  `json:"window_minutes,omitempty"`
	Stat           string `json:"stat,omitempty"`
}

func (c *Client) cwGetMetric(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args metricArgs
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}
	if args.WindowMinutes <= 0 {
		args.WindowMinutes = 15
	}
	if args.Stat == "" {
		args.Stat = "Average"
	}

	cacheKey := fmt.Sprintf("%s|%s|%s|%s|%d|%s", args.Namespace, args.MetricName, args.DimensionName, args.DimensionValue, args.WindowMinutes, args.Stat)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	end := time.Now().UTC()
	start := end.Add(-time.Duration(args.WindowMinutes) * time.Minute)

	out, err := c.cw.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(args.Namespace),
		MetricName: aws.String(args.MetricName),
		Dimensions: []cwtypes.Dimension{{Name: aws.String(args.DimensionName), Value: aws.String(args.DimensionValue)}},
		StartTime:  aws.Time(start),
		EndTime:    aws.Time(end),
		Period:     aws.Int32(60),
		Statistics: []cwtypes.Statistic{cwtypes.Statistic(args.Stat)},
	})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyAWSErr(err)}
	}

	result := payload(out.Datapoints)
	c.cache.Put(cacheKey, result)
	return result
}

func (c *Client) ec2DescribeNAT(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		VPCID string `json:"vpc_id"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	cacheKey := "ec2_describe_nat|" + args.VPCID
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	out, err := c.ec2.DescribeNatGateways(ctx, &ec2.DescribeNatGatewaysInput{
		Filter: []ec2types.Filter{{Name: aws.String("vpc-id"), Values: []string{args.VPCID}}},
	})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyAWSErr(err)}
	}

	result := payload(out.NatGateways)
	c.cache.Put(cacheKey, result)
	return result
}
