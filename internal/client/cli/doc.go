// Package cli provides the AideMoi command-line client.
//
// Commands run against the auth API and keep the session in the local SQLite
// database, so a later invocation sees the same login:
//
//	aidemoi login | register | logout | profile | status | refresh | watch
//
// watch runs the token expiry watcher in the foreground until interrupted;
// pressing Enter forces an immediate check.
package cli
