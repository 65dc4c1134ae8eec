// Package cli provides the tally command-line client.
//
// # Overview
//
// This package implements the `tally` CLI for querying a running tally
// server from the terminal: listing registered statistics, evaluating one or
// all of them under a filter context, and reading snapshot history.
//
// # Commands
//
// list: List registered statistic names
//
//	tally list
//
// get: Evaluate one statistic
//
//	tally get \
//		-name message_count \
//		-filters org_id=7,public=true
//
// all: Evaluate every statistic under one filter context
//
//	tally all \
//		-filters org_id=7 \
//		-except amount_total,amount_max
//
// history: Show recorded snapshot history with a distribution summary
//
//	tally history -name message_count -window 168h
//
// # Configuration
//
// Server URL:
//
//	export TALLY_SERVER_URL="https://tally.example.com"
//	# Or use the -server flag
//
// Filter values are passed as strings; the literals true and false select
// boolean filters, and a false filter is treated as absent by the server.
package cli
