// Package lifecycle tracks foreground/background transitions of the host
// application and reflects them on the current transaction.
//
// A Source delivers "change" events carrying an AppState. Sources provided
// here are the in-process Emitter (DefaultSource), FileSource, which watches
// a state file written by the host shell, and BridgeSource, which reads
// {"type":"change","status":...} messages from a native host over a
// websocket.
//
// The Reconciler records when the application goes to the background and,
// on return to the foreground, adds an "app.background" span covering the
// interval to the transaction in scope. The first such span on a
// transaction also registers a finish hook that removes the trailing span
// if it is a background span.
package lifecycle
