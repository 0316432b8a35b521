// Package manifest records what a harvest run did: which modes ran, how
// many cycles and advances each took, how many emoji were found, and how
// the run ended. The manifest is written next to the output file so a
// stalled or partial run can be diagnosed after the fact.
package manifest
