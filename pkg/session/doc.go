/*
Package session implements session management and persistence orchestration.

A Manager serialises load/mutate/save cycles per session id, locally with
reference counted mutexes and, when a DistributedLocker is configured, across
replicas. Stores only see whole domain.Session records.
*/
package session
