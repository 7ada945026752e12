// Package app assembles the doccontext components from a config.Config.
//
//	a, err := app.New(cfg, app.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	stats, err := a.Index(ctx, "/path/to/kb", false)
//	resp, err := a.Search(ctx, app.SearchParams{Root: "/path/to/kb", Query: "retry policy"})
//
// Setting the embedding provider to "none" yields an App that indexes chunks
// without vectors and answers every query with keyword search.
package app
