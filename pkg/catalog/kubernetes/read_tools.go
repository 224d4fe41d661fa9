package kubernetes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
)

// listPodsArgs filters server-side by label selector when given: server-side
// filtering first, client-side fallback, so a noisy namespace never blows
// the context window.
type listPodsArgs struct {
	Namespace     string `json:"namespace"`
	LabelSelector string `json:"label_selector,omitempty"`
	FieldSelector string `json:"field_selector,omitempty"`
}

// RegisterReadTools adds every read-category tool to c.
func RegisterReadTools(c *catalog.Catalog, client *Client) {
	c.Register(catalog.Tool{
		Descriptor: Descriptor("list_pods", catalog.CategoryRead, `{"type":"object","properties":{"namespace":{"type":"string"},"label_selector":{"type":"string"},"field_selector":{"type":"string"}},"required":["namespace"]}`),
		Invoke:     client.listPods,
	})
	c.Register(catalog.Tool{
		Descriptor: Descriptor("get_pod", catalog.CategoryRead, `{"type":"object","properties":{"namespace":{"type":"string"},"name":{"type":"string"}},"required":["namespace","name"]}`),
		Invoke:     client.getPod,
	})
	c.Register(catalog.Tool{
		Descriptor: Descriptor("get_events", catalog.CategoryRead, `{"type":"object","properties":{"namespace":{"type":"string"},"field_selector":{"type":"string"}},"required":["namespace"]}`),
		Invoke:     client.getEvents,
	})
	c.Register(catalog.Tool{
		Descriptor: Descriptor("get_logs", catalog.CategoryRead, `{"type":"object","properties":{"namespace":{"type":"string"},"pod":{"type":"string"},"container":{"type":"string"},"tail_lines":{"type":"integer"}},"required":["namespace","pod"]}`),
		Invoke:     client.getLogs,
	})
	c.Register(catalog.Tool{
		Descriptor: Descriptor("top_pods", catalog.CategoryRead, `{"type":"object","properties":{"namespace":{"type":"string"}},"required":["namespace"]}`),
		Invoke:     client.topPods,
	})
	c.Register(catalog.Tool{
		Descriptor: Descriptor("list_nodes", catalog.CategoryRead, `{"type":"object","properties":{}}`),
		Invoke:     client.listNodes,
	})
	c.Register(catalog.Tool{
		Descriptor: Descriptor("list_deployments", catalog.CategoryRead, `{"type":"object","properties":{"namespace":{"type":"string"}},"required":["namespace"]}`),
		Invoke:     client.listDeployments,
	})
}

// Descriptor builds a tool Descriptor with the kubernetes target system,
// kept as a small local helper since every tool in this package shares it.
func Descriptor(name string, category catalog.Category, schema string) catalog.Descriptor {
	return catalog.Descriptor{
		Name:         name,
		Category:     category,
		TargetSystem: "kubernetes",
		InputSchema:  json.RawMessage(schema),
	}
}

// decodeArgs rejects unknown fields so the LLM cannot smuggle extra
// parameters an adapter silently ignores.
func decodeArgs(raw json.RawMessage, dst any) *catalog.ToolError {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
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

func classifyK8sErr(err error) *catalog.ToolError {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return catalog.NewToolError(catalog.ErrorKindNotFound, msg)
	case strings.Contains(msg, "forbidden") || strings.Contains(msg, "Unauthorized"):
		return catalog.NewToolError(catalog.ErrorKindUnauthorized, msg)
	case strings.Contains(msg, "the server is currently unable") || strings.Contains(msg, "too many requests"):
		return catalog.NewToolError(catalog.ErrorKindThrottled, msg)
	case strings.Contains(msg, "context deadline exceeded"):
		return catalog.NewToolError(catalog.ErrorKindTimeout, msg)
	default:
		return catalog.NewToolError(catalog.ErrorKindUpstream, msg)
	}
}

func (c *Client) listPods(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args listPodsArgs
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	opts := metav1.ListOptions{LabelSelector: args.LabelSelector, FieldSelector: args.FieldSelector}
	list, err := c.Clientset.CoreV1().Pods(args.Namespace).List(ctx, opts)
	if err != nil {
		return catalog.Result{OK: false, Err: classifyK8sErr(err)}
	}

	// Client-side fallback: if the caller gave no server-side selector and
	// the namespace is large, cap what we return rather than flooding the
	// session with hundreds of pod records the model will never read.
	const clientSideCap = 200
	items := list.Items
	truncatedByCap := false
	if args.LabelSelector == "" && args.FieldSelector == "" && len(items) > clientSideCap {
		items = items[:clientSideCap]
		truncatedByCap = true
	}

	summaries := make([]podSummary, 0, len(items))
	for _, p := range items {
		summaries = append(summaries, summarizePod(&p))
	}

	res := payload(summaries)
	if truncatedByCap {
		res.Truncated = true
		res.TruncatedReason = fmt.Sprintf("namespace had %d pods, returned first %d (refine with label_selector)", len(list.Items), clientSideCap)
	}
	return res
}

type podSummary struct {
	Name      string `json:"name"`
	Phase     string `json:"phase"`
	Ready     string `json:"ready"`
	Restarts  int32  `json:"restarts"`
	Node      string `json:"node"`
	StartTime string `json:"start_time,omitempty"`
}

func summarizePod(p *corev1.Pod) podSummary {
	ready, total, restarts := 0, len(p.Status.ContainerStatuses), int32(0)
	for _, cs := range p.Status.ContainerStatuses {
		if cs.Ready {
			ready++
		}
		restarts += cs.RestartCount
	}
	s := podSummary{
		Name:     p.Name,
		Phase:    string(p.Status.Phase),
		Ready:    fmt.Sprintf("%d/%d", ready, total),
		Restarts: restarts,
		Node:     p.Spec.NodeName,
	}
	if p.Status.StartTime != nil {
		s.StartTime = p.Status.StartTime.Format("2006-01-02T15:04:05Z07:00")
	}
	return s
}

func (c *Client) getPod(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Namespace string `json:"namespace"`
		Name      string `json:"name"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	p, err := c.Clientset.CoreV1().Pods(args.Namespace).Get(ctx, args.Name, metav1.GetOptions{})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyK8sErr(err)}
	}
	return payload(p)
}

func (c *Client) getEvents(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Namespace     string `json:"namespace"`
		FieldSelector string `json:"field_selector,omitempty"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	list, err := c.Clientset.CoreV1().Events(args.Namespace).List(ctx, metav1.ListOptions{FieldSelector: args.FieldSelector})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyK8sErr(err)}
	}
	return payload(list.Items)
}

func (c *Client) getLogs(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Namespace string `json:"namespace"`
		Pod       string `json:"pod"`
		Container string `json:"container,omitempty"`
		TailLines int64  `json:"tail_lines,omitempty"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}
	if args.TailLines <= 0 {
		args.TailLines = 200
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	opts := &corev1.PodLogOptions{Container: args.Container, TailLines: &args.TailLines}
	req := c.Clientset.CoreV1().Pods(args.Namespace).GetLogs(args.Pod, opts)
	stream, err := req.Stream(ctx)
	if err != nil {
		return catalog.Result{OK: false, Err: classifyK8sErr(err)}
	}
	defer stream.Close()

	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, readErr := stream.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if readErr != nil {
			break
		}
	}

	body, truncated, reason := catalog.TruncatePayload(string(buf))
	return catalog.Result{OK: true, Payload: body, Truncated: truncated, TruncatedReason: reason}
}

func (c *Client) topPods(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Namespace string `json:"namespace"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	list, err := c.Metrics.MetricsV1beta1().PodMetricses(args.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyK8sErr(err)}
	}
	return payload(list.Items)
}

func (c *Client) listNodes(ctx context.Context, raw json.RawMessage) catalog.Result {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	list, err := c.Clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyK8sErr(err)}
	}
	return payload(list.Items)
}

func (c *Client) listDeployments(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Namespace string `json:"namespace"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	list, err := c.Clientset.AppsV1().Deployments(args.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyK8sErr(err)}
	}
	return payload(list.Items)
}
