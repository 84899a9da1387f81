/*
Package session serializes access to stored runs.

A respondent can submit twice in quick succession, or from two replicas
behind a load balancer. The Manager guards each run id with a local
ref-counted mutex and, when configured, a distributed lock, so that a
load-step-save cycle never interleaves with another on the same run.
*/
package session
