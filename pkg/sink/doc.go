// Package sink delivers a finished collection.
//
// File writes emoji.json (or YAML) atomically, Writer prints to a stream,
// HTTP posts the JSON to an endpoint with retries, and Multi fans out to
// several of them at once. All of them satisfy collector.Sink.
package sink
