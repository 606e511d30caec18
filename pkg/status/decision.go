package status

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Condition reasons surfaced on route and policy resources
const (
	ReasonAccepted         = "Accepted"
	ReasonNoMatchingParent = "NoMatchingParent"
	ReasonConflicted       = "Conflicted"
)

// ParentStatus is the accept/reject decision for one parent reference of
// a resource
type ParentStatus struct {
	Group     string
	Kind      string
	Namespace string
	Name      string
	Port      uint16

	Accepted bool
	Reason   string
	Message  string
}

// Decision is the full status the controller wants written for one
// resource; later decisions for the same resource supersede earlier ones
type Decision struct {
	Resource   schema.GroupVersionResource
	Namespace  string
	Name       string
	Generation int64
	Parents    []ParentStatus
}

// Recorder accepts decisions without blocking; the index update path must
// never wait on a status write
type Recorder interface {
	Record(Decision)
}

// NopRecorder discards decisions; used when status reconciliation is
// disabled
type NopRecorder struct{}

// Record implements Recorder
func (NopRecorder) Record(Decision) {}
