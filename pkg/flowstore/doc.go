// Package flowstore persists flows and their supporting records on top of an
// ordered key-value store.
//
// Each flow is stored once under flow:<id> and projected into match index
// rows so dispatch can select candidates with a single prefix scan:
//
//	flow:<flowId>
//	static_api_match:group:<groupId>:method:<method>:path:<path>:flow:<flowId>
//	dynamic_api_match:group:<groupId>:method:<method>:flow:<flowId>
//	kafka:broker:<brokerId>:topic:<topic>:flow:<flowId>
//
// The key templates are part of the on-disk format and must stay stable.
// Groups, Kafka brokers and global variables live alongside under group:,
// kafka-broker: and global.
package flowstore
