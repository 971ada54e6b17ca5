// Package session drives one survey attempt end to end: it walks an
// ordered question list, merges answers, forwards each answer to the
// verification recorder, and on completion assembles the final packet for
// the local store.
//
// The question list is supplied by the caller; the controller never
// generates questions. Answer capture is deliberately resilient: recorder
// problems are logged and swallowed so a verification hiccup can never
// lose an answer. Completion failures keep session state intact so the
// caller may retry.
package session
