// Package httpclient issues the live GET requests of a benchmark run.
//
// # Request Building
//
// [NewRequestBuilder] validates the static headers once; [RequestBuilder.Build]
// then produces a fresh GET request per call:
//
//	builder, err := httpclient.NewRequestBuilder(cfg.Headers)
//	if err != nil {
//		return err
//	}
//	req, err := builder.Build(ctx, target)
//
// # Requesters
//
// [Requester] implements runner.Requester on top of an *http.Client. The
// response body is drained so the socket stays alive for the next request,
// and the raw status code is returned whatever its value. Transport errors
// are returned unchanged; the runner wraps them.
//
// [NewFactory] builds one client per logical connection, optionally wrapped
// with failure logging and [WithTracing]:
//
//	factory, err := httpclient.NewFactory(httpclient.FactoryOptions{
//		Timeout:   cfg.Timeout,
//		Headers:   cfg.Headers,
//		Tracer:    provider.Tracer(),
//		Propagate: provider.ShouldPropagate(),
//	})
package httpclient
