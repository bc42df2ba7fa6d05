// Package config loads and validates the jetmock server configuration.
//
// Configuration is read from a YAML or JSON file, with ${VAR} and
// ${VAR:-default} references expanded from the environment, then
// overridden by JETMOCK_* environment variables:
//
//	JETMOCK_HOST                  host
//	JETMOCK_MOCK_PORT             mockPort
//	JETMOCK_ADMIN_PORT            adminPort
//	JETMOCK_DATA_PATH             dataPath
//	JETMOCK_WORKERS               workers
//	JETMOCK_READ_TIMEOUT          readTimeout
//	JETMOCK_WRITE_TIMEOUT         writeTimeout
//	JETMOCK_REQUEST_LOG_SIZE      requestLogSize
//	JETMOCK_LOG_LEVEL             log.level
//	JETMOCK_LOG_FORMAT            log.format
//	JETMOCK_KAFKA_CONSUMER_GROUP  kafka.consumerGroup
//	JETMOCK_KAFKA_CLIENT_ID       kafka.clientId
package config
