// Package metrics emits the fetch bot's standard metric names.
package metrics

import (
	"time"

	obserrors "github.com/target/adverity-fetchbot/internal/observability/errors"
	"github.com/target/adverity-fetchbot/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Metric names.
const (
	NameTrigger        = "fetch.trigger"
	NamePoll           = "fetch.poll"
	NameDuration       = "fetch.duration"
	NameNotifyDelivery = "notify.delivery"
	NameAuditFailure   = "audit.failure"
	NameResumeRun      = "resume.run"
	NameResumeOpen     = "resume.open"
)

// FetchMetric captures a single step of a fetch request's lifecycle.
type FetchMetric struct {
	// Step is the metric name, one of the Name* constants.
	Step     string
	Stream   string
	Result   string
	Status   string
	Duration time.Duration
	Err      error
}

// EmitFetch emits a counter for the step and a timing when a duration is present.
func EmitFetch(sink statsd.Sink, in FetchMetric) {
	if sink == nil || in.Step == "" {
		return
	}

	tags := map[string]string{"result": in.Result}
	if in.Stream != "" {
		tags["stream"] = in.Stream
	}
	if in.Status != "" {
		tags["status"] = in.Status
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count(in.Step, 1, tags)
	if in.Duration > 0 {
		sink.Timing(in.Step+".duration", in.Duration, CloneTags(tags))
	}
}

// EmitDelivery records which delivery method delivered a notification, or that all failed.
func EmitDelivery(sink statsd.Sink, method string, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"method": method, "result": ResultFor(err)}
	if err != nil {
		tags["error_class"] = obserrors.Classify(err)
	}
	sink.Count(NameNotifyDelivery, 1, tags)
}

// ResultFor maps an error to ResultSuccess or ResultError.
func ResultFor(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
