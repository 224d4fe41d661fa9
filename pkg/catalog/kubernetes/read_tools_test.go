package kubernetes

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8sfake "k8s.io/client-go/kubernetes/fake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
)

func testClient(objects ...interface{}) *Client {
	return &Client{
		ClusterName: "dev-eks",
		Clientset:   k8sfake.NewSimpleClientset(toRuntimeObjects(objects)...),
		Timeout:     DefaultTimeout,
	}
}

func TestListPods_ReturnsSummaries(t *testing.T) {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "api-0", Namespace: "prod"},
		Status:     corev1.PodStatus{Phase: corev1.PodRunning},
	}
	c := testClient(pod)

	res := c.listPods(context.Background(), []byte(`{"namespace":"prod"}`))
	require.True(t, res.OK)
	assert.Contains(t, res.Payload, "api-0")
}

func TestListPods_RejectsUnknownField(t *testing.T) {
	c := testClient()
	res := c.listPods(context.Background(), []byte(`{"namespace":"prod","bogus":1}`))
	require.NotNil(t, res.Err)
	assert.Equal(t, catalog.ErrorKindValidation, res.Err.Kind)
}

func TestGetPod_NotFound(t *testing.T) {
	c := testClient()
	res := c.getPod(context.Background(), []byte(`{"namespace":"prod","name":"missing"}`))
	require.NotNil(t, res.Err)
	assert.Equal(t, catalog.ErrorKindNotFound, res.Err.Kind)
}

func TestDeletePod_Succeeds(t *testing.T) {
	pod := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "api-0", Namespace: "prod"}}
	c := testClient(pod)

	res := c.deletePod(context.Background(), []byte(`{"namespace":"prod","name":"api-0"}`))
	require.True(t, res.OK)

	_, err := c.Clientset.CoreV1().Pods("prod").Get(context.Background(), "api-0", metav1.GetOptions{})
	assert.Error(t, err)
}

func TestScaleDeployment_RejectsNegativeReplicas(t *testing.T) {
	c := testClient()
	res := c.scaleDeployment(context.Background(), []byte(`{"namespace":"prod","deployment":"api","replicas":-1}`))
	require.NotNil(t, res.Err)
	assert.Equal(t, catalog.ErrorKindValidation, res.Err.Kind)
}
