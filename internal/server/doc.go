// Package server exposes staymap snapshots over HTTP.
//
// Reads come from the last cycle's snapshot while it is younger than the
// cache TTL. Past that, or with ?fresh=true, the request runs a new cycle.
// POST /sync runs a cycle and writes the units and categories tables.
// Snapshot reads carry X-Snapshot-ID and X-Cache (HIT or MISS).
//
//	cfg := server.DefaultConfig()
//	cfg.AuthEnabled, cfg.APIKey = true, os.Getenv("STAYMAP_API_KEY")
//
//	srv, err := server.New(client, cfg, logging.Default())
//	if err != nil {
//	    return err
//	}
//	defer srv.Shutdown(ctx)
//	return srv.HTTPServer().ListenAndServe()
package server
