// Package client assembles Beacon's error-reporting client from its
// configuration.
//
// A Client owns a sentry-go client with the NativeLinkedErrors integration,
// so every captured exception gets its cause chain attached before it is
// sent. It also owns the transaction scope read by the lifecycle
// reconciler, the prometheus collector, and the tracer that re-emits
// events as OpenTelemetry spans.
//
//	c, err := client.New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer c.Close(context.Background())
//
//	tx := c.StartTransaction("checkout", "ui.action")
//	defer tx.Finish()
//	c.CaptureException(err)
package client
