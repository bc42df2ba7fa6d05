// Package id provides identifier generation for flows, flow elements,
// groups, brokers and error correlation.
//
// All identifiers are random (version 4) UUIDs rendered in their canonical
// 36-character form. Flow ids double as the last segment of every match
// index key, so they must never contain a ':' separator; canonical UUIDs
// satisfy that.
package id
