// Package template resolves {{...}} placeholders in flow element text.
//
// A placeholder is resolved, in order, as:
//
//   - a built-in: random.uuid, uuid, now, timestamp, timestamp.unix_ms,
//     random.int
//   - global.<key>: the current value of a global variable
//   - <order>.<path>: a value navigated from the payload an earlier step
//     stored in the execution context, e.g. {{1.body.customer.name}} or
//     {{3.body.items[0].sku}}
//
// Text outside placeholders passes through unchanged. Anything that cannot
// be resolved, including a missing step, a missing field or a malformed
// path, becomes the empty string. Resolution never returns an error.
package template
