// Package node is the application-facing stack controller: it owns the
// single-threaded deferred work queue, wraps a mac.Engine with the
// send/receive/channel-management API an application calls directly, and
// translates mac.Event into the node.Event stream plus the node.Error
// taxonomy.
package node
