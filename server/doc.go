// Package server runs a Gin engine behind net/http with graceful shutdown,
// a small middleware stack and health endpoints.
//
//	srv := server.New(cfg, log)
//	srv.ApplyMiddleware()
//	srv.RegisterHealthEndpoints("pageiter", version, store)
//	httpapi.Register(srv.GinEngine(), items, httpapi.Options{})
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	defer srv.Stop(context.Background())
//
// Middleware (server/middleware): Recovery, RequestID and RequestLogger.
// Endpoints (server/endpoint): /health aggregates store checks and answers
// 503 when any is down; /alive always answers 200.
package server
