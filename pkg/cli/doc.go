// Package cli implements the jetmock command line.
//
// Commands:
//
//	jetmock serve        run the mock server and the admin API
//	jetmock validate     check flow definitions in a YAML or JSON file
//	jetmock mocks        list, show or delete flows on a running server
//	jetmock groups       list groups on a running server
//	jetmock listeners    list active Kafka listeners on a running server
//	jetmock version      print build information
package cli
