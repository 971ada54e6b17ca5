// Command fieldwork is the offline-first survey collector CLI: it runs
// scripted collection sessions, inspects the local packet store, drains
// pending packets to the configured destination, and hosts the background
// collector daemon.
package main
