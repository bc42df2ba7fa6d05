// Package matching provides the request-side primitives used when selecting
// a flow: structural path template matching and the normalization of headers,
// query parameters and bodies into the trigger payload seen by conditions and
// placeholders.
package matching
