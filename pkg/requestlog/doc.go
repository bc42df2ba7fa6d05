// Package requestlog records the history of dispatched HTTP requests and
// Kafka messages for inspection through the admin API.
//
// It is distinct from operational logging (which uses log/slog). An Entry
// describes one inbound trigger: what arrived, which flow matched and what
// was answered. MemoryStore keeps the most recent entries in a bounded FIFO.
//
//	store := requestlog.NewMemoryStore(1000)
//	store.Log(&requestlog.Entry{
//	    Trigger: requestlog.TriggerHTTP,
//	    Group:   "payments",
//	    Method:  "GET",
//	    Path:    "/orders/42",
//	})
package requestlog
