// Package snapshots records evaluation results over time.
//
// # Overview
//
// A Recorder evaluates every registered statistic through a stats.Source and
// writes one row per statistic into statistic_snapshots, all rows sharing a
// run id and timestamp. History reads a statistic's recorded values back in
// time order, and Summarize condenses a series into distribution measures
// for reporting. Runs can optionally be archived to S3 as JSON documents
// through an Exporter.
//
// Expected schema:
//
//	CREATE TABLE statistic_snapshots (
//	    id       BIGSERIAL PRIMARY KEY,
//	    run_id   UUID NOT NULL,
//	    name     TEXT NOT NULL,
//	    value    DOUBLE PRECISION NOT NULL,
//	    filters  JSONB NOT NULL DEFAULT '{}',
//	    taken_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX statistic_snapshots_name_taken_at_idx
//	    ON statistic_snapshots (name, taken_at);
//
// cmd/tally-snapshots drives a Recorder on a cron schedule.
package snapshots
