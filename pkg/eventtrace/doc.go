// Package eventtrace provides semantic event tracing: typed trace events
// that are logged and delivered asynchronously to registered consumers.
//
// # Overview
//
//   - Contract and Event define the events of one tracing domain, with
//     per-event options (severity, formatting) resolved at definition
//   - Proxy turns an Emit call into a Record, optionally logs it on the
//     calling goroutine, and offers it to a bounded queue
//   - A single dispatch goroutine drains the queue and fans each record out
//     to consumers: generic Consumers see every record, Listeners only
//     the events of contracts their Handlers table implements
//   - System holds all of it: switches, catalog, consumers, queue, counters
//
// # Defining Events
//
//	var (
//	    ConnContract = eventtrace.NewContract("net.Conn", eventtrace.WithSeverity(eventtrace.Info))
//	    EvConnected  = ConnContract.Event("connected", []string{"addr"})
//	    EvClosed     = ConnContract.Event("closed", []string{"addr", "err"},
//	        eventtrace.WithSeverity(eventtrace.Warn))
//	)
//
//	type ConnTracer struct{ *eventtrace.Proxy }
//
//	func (t ConnTracer) Connected(ctx context.Context, addr string) { t.Emit(ctx, EvConnected, addr) }
//	func (t ConnTracer) Closed(ctx context.Context, addr string, err error) { t.Emit(ctx, EvClosed, addr, err) }
//
// # Consuming Events
//
//	sys := eventtrace.New()
//	defer sys.Close(context.Background())
//
//	h := eventtrace.NewHandlers(ConnContract)
//	eventtrace.On1(h, EvConnected, func(addr string) { ... })
//	eventtrace.On2(h, EvClosed, func(addr string, err error) { ... })
//	sys.AddListener(h, eventtrace.WithFilter(".*main.*"))
//
//	tracer := ConnTracer{sys.NewProxy(ConnContract, conn,
//	    eventtrace.WithContextLabel("the main conn"), eventtrace.WithCallerSkip(1))}
//	tracer.Connected(ctx, "10.0.0.1:80")
//
// # Delivery
//
// Emit never blocks. When the queue is full the record is dropped and
// counted (see LostEvents), and a WARN line is logged. Records from one
// goroutine reach each consumer in emission order. A failing consumer is
// logged at ERROR and does not affect other consumers.
//
// # Logging
//
// In synchronous mode (the default) each record is written to the sink by
// the emitting goroutine. In asynchronous mode nothing is logged by Emit;
// register a LogConsumer to log from the dispatch goroutine instead.
package eventtrace
