/*
Package session coordinates access to stored pages.

It serializes read-modify-write cycles per page within a process, and across
replicas when a distributed locker is configured, so that concurrent
designers and persistence replays never lose each other's changes.
*/
package session
