// Package flow defines the jetmock domain model: flows, their ordered
// elements, the per-element-type schema registry and the typed payloads each
// element produces at execution time.
//
// # Flows and elements
//
// A Flow is an ordered list of typed Elements. Every element carries a type
// (API_TRIGGER_REQUEST, CONDITION, CALLBACK_API, ...), an order number that is
// unique within the flow, and a bag of Attributes whose names and data types
// are fixed by the element type's Schema.
//
// # Payloads
//
// At execution time an element's attributes are turned into a typed Payload
// by a schema-driven constructor (NewPayload). Payloads expose their fields
// as a map so placeholder templates and condition expressions can navigate
// them uniformly, whether the value came from a decoded JSON body or a typed
// struct.
package flow
