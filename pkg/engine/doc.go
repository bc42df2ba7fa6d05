// Package engine matches inbound HTTP requests and Kafka messages to stored
// flows and runs them.
//
// # Dispatch
//
// An HTTP request to /<group>/<path> is matched against the group's flows:
// first by exact (method, path) through the static index, then by path
// template through the dynamic index. A Kafka message is matched by
// (broker, topic). When several flows remain, their conditions are evaluated
// in ascending flow id order and the first eligible flow wins. A lone
// candidate is selected without evaluating its condition.
//
// # Execution
//
// A matched HTTP flow runs in phases:
//
//	MATCHED -> PRE_EXECUTING -> RESPONDING -> POST_EXECUTING (async) -> DONE
//
// Steps between the trigger and the response element run synchronously and
// their failures fail the request. The response is rendered after its
// configured latency. Steps after the response run on the worker pool; their
// failures are logged and never reach the caller. Kafka flows have no
// response: every step after the trigger runs on the worker pool.
//
// Each step writes its resolved payload into the execution context under its
// order number so later steps can reference it through placeholders.
package engine
