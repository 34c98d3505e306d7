// Beacon is the command-line companion of the beacon error-reporting client.
//
// It normalizes error payloads captured by host shells, replays lifecycle
// sequences through the span reconciler, and runs a long-lived client that
// reports lifecycle-aware transactions.
//
// Usage:
//
//	# Normalize a captured error object and print its cause chain
//	beacon normalize crash.json
//
//	# Replay a background/foreground cycle inside a transaction
//	beacon simulate --step background@2s --step active@5s --finish 8s
//
//	# Run the client with lifecycle tracking and the metrics endpoint
//	beacon run --config /etc/beacon/config.yaml
//
//	# Check a configuration file
//	beacon validate --config config.yaml
package main

func main() {
	Execute()
}
