package kubernetes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
)

// RegisterWriteTools adds every write/destructive-category tool to c.
// These are the only tools the Safety Hook Chain's validator rule table
// needs to reason about in depth (see pkg/safety).
func RegisterWriteTools(c *catalog.Catalog, client *Client) {
	c.Register(catalog.Tool{
		Descriptor: Descriptor("rollout_restart", catalog.CategoryWrite, `{"type":"object","properties":{"namespace":{"type":"string"},"deployment":{"type":"string"}},"required":["namespace","deployment"]}`),
		Invoke:     client.rolloutRestart,
	})
	c.Register(catalog.Tool{
		Descriptor: Descriptor("scale_deployment", catalog.CategoryWrite, `{"type":"object","properties":{"namespace":{"type":"string"},"deployment":{"type":"string"},"replicas":{"type":"integer"}},"required":["namespace","deployment","replicas"]}`),
		Invoke:     client.scaleDeployment,
	})
	c.Register(catalog.Tool{
		Descriptor: Descriptor("delete_pod", catalog.CategoryDestructive, `{"type":"object","properties":{"namespace":{"type":"string"},"name":{"type":"string"}},"required":["namespace","name"]}`),
		Invoke:     client.deletePod,
	})
	c.Register(catalog.Tool{
		Descriptor: Descriptor("apply_manifest", catalog.CategoryWrite, `{"type":"object","properties":{"namespace":{"type":"string"},"manifest":{"type":"string"}},"required":["namespace","manifest"]}`),
		Invoke:     client.applyManifest,
	})
}

func (c *Client) rolloutRestart(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Namespace  string `json:"namespace"`
		Deployment string `json:"deployment"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	patch := fmt.Sprintf(
		`{"spec":{"template":{"metadata":{"annotations":{"kubectl.kubernetes.io/restartedAt":%q}}}}}`,
		time.Now().UTC().Format(time.RFC3339),
	)
	dep, err := c.Clientset.AppsV1().Deployments(args.Namespace).Patch(
		ctx, args.Deployment, types.StrategicMergePatchType, []byte(patch), metav1.PatchOptions{})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyK8sErr(err)}
	}
	return payload(dep)
}

func (c *Client) scaleDeployment(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Namespace  string `json:"namespace"`
		Deployment string `json:"deployment"`
		Replicas   int32  `json:"replicas"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}
	if args.Replicas < 0 {
		return catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindValidation, "replicas must be >= 0")}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	scale, err := c.Clientset.AppsV1().Deployments(args.Namespace).GetScale(ctx, args.Deployment, metav1.GetOptions{})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyK8sErr(err)}
	}
	scale.Spec.Replicas = args.Replicas

	updated, err := c.Clientset.AppsV1().Deployments(args.Namespace).UpdateScale(ctx, args.Deployment, scale, metav1.UpdateOptions{})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyK8sErr(err)}
	}
	return payload(updated)
}

func (c *Client) deletePod(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Namespace string `json:"namespace"`
		Name      string `json:"name"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.Clientset.CoreV1().Pods(args.Namespace).Delete(ctx, args.Name, metav1.DeleteOptions{}); err != nil {
		return catalog.Result{OK: false, Err: classifyK8sErr(err)}
	}
	return catalog.Result{OK: true, Payload: fmt.Sprintf(`{"deleted":%q,"namespace":%q}`, args.Name, args.Namespace)}
}

// applyManifest supports the single Deployment-replacement shape the
// remediation playbooks need; it deliberately does not implement a full
// generic server-side-apply for arbitrary kinds, since no remediation
// action needs more than that.
func (c *Client) applyManifest(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Namespace string `json:"namespace"`
		Manifest  string `json:"manifest"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	var dep appsv1.Deployment
	if err := json.Unmarshal([]byte(args.Manifest), &dep); err != nil {
		return catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindValidation, fmt.Sprintf("manifest is not a valid Deployment: %v", err))}
	}
	dep.Namespace = args.Namespace

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	updated, err := c.Clientset.AppsV1().Deployments(args.Namespace).Update(ctx, &dep, metav1.UpdateOptions{})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyK8sErr(err)}
	}
	return payload(updated)
}
