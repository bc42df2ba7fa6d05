package flowstore

import (
	"strings"

	"github.com/jetmock/jetmock/pkg/flow"
)

const (
	flowPrefix        = "flow:"
	staticPrefix      = "static_api_match:"
	dynamicPrefix     = "dynamic_api_match:"
	kafkaPrefix       = "kafka:"
	groupPrefix       = "group:"
	groupNamePrefix   = "group:name:"
	brokerPrefix      = "kafka-broker:"
	globalVariableKey = "global"
)

func flowKey(id string) string {
	return flowPrefix + id
}

func staticPathPrefix(groupID, method, path string) string {
	return staticPrefix + "group:" + groupID + ":method:" + method + ":path:" + path + ":flow:"
}

func dynamicMethodPrefix(groupID, method string) string {
	return dynamicPrefix + "group:" + groupID + ":method:" + method + ":flow:"
}

func kafkaTopicPrefix(brokerID, topic string) string {
	return kafkaPrefix + "broker:" + brokerID + ":topic:" + topic + ":flow:"
}

func groupKey(id string) string {
	return groupPrefix + id
}

func groupNameKey(name string) string {
	return groupNamePrefix + strings.ToLower(strings.TrimSpace(name))
}

func brokerKey(id string) string {
	return brokerPrefix + id
}

// indexEntries derives the match index rows of f, keyed by store key.
func indexEntries(f *flow.Flow) map[string]flow.MatchEntry {
	out := make(map[string]flow.MatchEntry, 2)
	expr := f.Condition()

	if method, path, ok := f.APITrigger(); ok {
		entry := flow.MatchEntry{FlowID: f.ID, Expression: expr, Method: method, Path: path}
		if flow.IsDynamicPath(path) {
			out[dynamicMethodPrefix(f.GroupID, method)+f.ID] = entry
		} else {
			out[staticPathPrefix(f.GroupID, method, path)+f.ID] = entry
		}
	}

	if brokerID, topic, ok := f.KafkaTrigger(); ok {
		out[kafkaTopicPrefix(brokerID, topic)+f.ID] = flow.MatchEntry{
			FlowID:     f.ID,
			Expression: expr,
			BrokerID:   brokerID,
			Topic:      topic,
		}
	}
	return out
}
