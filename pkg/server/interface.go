/*
Package server implements msgpack IPC for the form filling core.

The server reads a stream of msgpack maps from stdin and writes one msgpack
map per request to stdout. Requests are handled one at a time, in order, so
the model behind the server never sees concurrent calls.

# IPC

Every request carries an id and an op; the other fields depend on the op:

	{"id": "r1", "op": "classify", "f": {"name": "ctl00$Content$tbFirstName"}}
	{"id": "r2", "op": "observe", "t": "email", "v": "anna@example.com", "rel": {"firstName": "Anna"}}
	{"id": "r3", "op": "suggest", "t": "email", "rel": {"firstName": "Anna"}}
	{"id": "r4", "op": "complete", "t": "email", "p": "an", "l": 5}
	{"id": "r5", "op": "fill", "profile": "home", "fs": [{"name": "email"}, {"type": "tel"}]}
	{"id": "r6", "op": "saveProfile", "pe": {"name": "work", "email": "a.k@corp.example"}, "def": true}
	{"id": "r7", "op": "deleteProfile", "profile": "work"}

Suggestions come back ranked, with timing in microseconds:

	{"id": "r3", "s": [{"v": "anna@example.com", "r": 1}], "c": 1, "t": 12}

Failures are reported as {"id", "e", "c"} where c is 400 for a bad request
and 500 when the store could not persist or load data.

Supported ops: health, classify, observe, suggest, predict, complete, known,
last, refresh, fill, profiles, saveProfile, deleteProfile, stats.

saveProfile validates the profile before storing it; both profile edits are
written back to wherever the profiles were loaded from.

Logs go to stderr; stdout carries nothing but responses.
*/
package server

import (
	"github.com/bastiangx/fillserve/pkg/field"
	"github.com/bastiangx/fillserve/pkg/profile"
	"github.com/bastiangx/fillserve/pkg/sequence"
)

// Request is the union of every op's parameters
type Request struct {
	ID      string             `msgpack:"id"`
	Op      string             `msgpack:"op"`
	Type    string             `msgpack:"t,omitempty"`
	Value   string             `msgpack:"v,omitempty"`
	Prefix  string             `msgpack:"p,omitempty"`
	Limit   int                `msgpack:"l,omitempty"`
	Related map[string]string  `msgpack:"rel,omitempty"`
	Field   *field.Descriptor  `msgpack:"f,omitempty"`
	Fields  []field.Descriptor `msgpack:"fs,omitempty"`
	Profile string             `msgpack:"profile,omitempty"`
	Entry   *profile.Profile   `msgpack:"pe,omitempty"`
	Default bool               `msgpack:"def,omitempty"`
}

// StatusResponse answers health and refresh, and announces readiness
type StatusResponse struct {
	ID      string `msgpack:"id"`
	Status  string `msgpack:"status"`
	Session string `msgpack:"session,omitempty"`
}

// ClassifyResponse - field type of one descriptor; empty type when none matched
type ClassifyResponse struct {
	ID       string `msgpack:"id"`
	Type     string `msgpack:"t"`
	Fillable bool   `msgpack:"fillable"`
}

// ObserveResponse - whether the value was learned
type ObserveResponse struct {
	ID       string `msgpack:"id"`
	Accepted bool   `msgpack:"a"`
}

// Suggestion - minimal suggestion entry
type Suggestion struct {
	Value string `msgpack:"v"`
	Rank  uint16 `msgpack:"r"`
}

// SuggestionResponse answers suggest and predict
type SuggestionResponse struct {
	ID          string       `msgpack:"id"`
	Suggestions []Suggestion `msgpack:"s"`
	Count       int          `msgpack:"c"`
	TimeTaken   int64        `msgpack:"t"`
}

// CompletionResponse - prefix completions with their counts
type CompletionResponse struct {
	ID          string                `msgpack:"id"`
	Completions []sequence.Completion `msgpack:"s"`
	Count       int                   `msgpack:"c"`
	TimeTaken   int64                 `msgpack:"t"`
}

// KnownResponse - distinct recent values per field type
type KnownResponse struct {
	ID     string              `msgpack:"id"`
	Values map[string][]string `msgpack:"k"`
}

// LastResponse - most recent value per field type
type LastResponse struct {
	ID     string            `msgpack:"id"`
	Values map[string]string `msgpack:"k"`
}

// FillResponse - profile values for the fillable descriptors
type FillResponse struct {
	ID          string               `msgpack:"id"`
	Profile     string               `msgpack:"profile"`
	Assignments []profile.Assignment `msgpack:"a"`
}

// ProfileEntry - one saved profile as field type -> value
type ProfileEntry struct {
	Name   string            `msgpack:"name"`
	Values map[string]string `msgpack:"v"`
}

// ProfilesResponse lists saved profiles in book order
type ProfilesResponse struct {
	ID       string         `msgpack:"id"`
	Default  string         `msgpack:"default"`
	Profiles []ProfileEntry `msgpack:"p"`
}

// StatsResponse - model table sizes
type StatsResponse struct {
	ID    string         `msgpack:"id"`
	Stats map[string]int `msgpack:"stats"`
}

// ErrorResponse holds basic error information for any request
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
