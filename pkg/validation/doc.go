// Package validation checks flow step definitions against the element schema
// registry before they are persisted.
//
// A step is a flat JSON object: the element type under "elementName", its
// position under "orderNumber", and one key per schema attribute:
//
//	{"elementName": "API_TRIGGER_RESPONSE", "orderNumber": 2,
//	 "status": 200, "latency": 0, "header": "{}", "body": "ok"}
//
// Every violation across every step is collected into a single Result so a
// caller can report all problems at once.
package validation
