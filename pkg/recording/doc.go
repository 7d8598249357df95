// Package recording holds the in-memory form of a FIT file.
//
// A Recording is an ordered event log of definitions and messages. The log
// is the only thing that gets encoded. Messages are also grouped by global
// message number in an Index, which is a cache over the log.
//
// Edits normally go through the log (Append, Filter, Normalize). Code that
// prefers to work on the grouped lists calls BeginIndexEdit, which moves the
// recording to IndicesAuthoritative. While in that state the log cannot be
// appended to or encoded. BackFill writes the edited lists into the log and
// ForwardFill throws them away; both return to LogAuthoritative.
package recording
