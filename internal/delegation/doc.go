// Package delegation runs sub-tasks in child agent sessions.
//
// A child session receives the base capability set, which has no
// delegateTask function, so a child can never delegate further. Each call
// owns its own session and sandbox runtimes; the child's budget is whatever
// remains of the caller's deadline.
package delegation
