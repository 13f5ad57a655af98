package metrics

import (
	"maps"
	"time"

	obserrors "github.com/target/stalkcentral/internal/observability/errors"
	"github.com/target/stalkcentral/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess   = "success"
	ResultError     = "error"
	ResultCancelled = "cancelled"
	ResultNoop      = "noop"
	ResultTimeout   = "timeout"
)

// Metric names.
const (
	SignInAttempt     = "auth.signin.attempt"
	SignInDuration    = "auth.signin.duration"
	SessionTransition = "auth.session.transition"
	Logout            = "auth.logout"
	AnonymousLogin    = "auth.anonymous"
)

// SignInMetric captures the outcome of one federated sign-in attempt.
type SignInMetric struct {
	Provider string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitSignIn emits the attempt counter and, when known, its duration.
func EmitSignIn(sink statsd.Sink, in SignInMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"provider": in.Provider,
		"result":   in.Result,
	}
	addErrorClass(tags, in.Result, in.Err)

	sink.Count(SignInAttempt, 1, tags)

	if in.Duration > 0 {
		sink.Timing(SignInDuration, in.Duration, CloneTags(tags))
	}
}

// EmitSessionTransition counts a rendered session change, e.g. login→home.
func EmitSessionTransition(sink statsd.Sink, from, to, transition string) {
	if sink == nil {
		return
	}
	sink.Count(SessionTransition, 1, map[string]string{
		"from":       from,
		"to":         to,
		"transition": transition,
	})
}

// EmitResult counts a session operation such as logout or anonymous login.
func EmitResult(sink statsd.Sink, name, result string, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"result": result}
	addErrorClass(tags, result, err)
	sink.Count(name, 1, tags)
}

func addErrorClass(tags map[string]string, result string, err error) {
	if err == nil || result == ResultSuccess || result == ResultNoop {
		return
	}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	maps.Copy(out, src)
	delete(out, "")
	return out
}
