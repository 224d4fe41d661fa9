package kubernetes

import "k8s.io/apimachinery/pkg/runtime"

func toRuntimeObjects(objs []interface{}) []runtime.Object {
	out := make([]runtime.Object, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.(runtime.Object))
	}
	return out
}
