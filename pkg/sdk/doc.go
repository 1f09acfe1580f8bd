// Package semdex embeds the semdex search and recommendation engine in a Go
// program, without the HTTP server.
//
// Items are stored with a typed descriptor and embedded on write. Search and
// recommendations fall back from vectors to keywords and heuristics, so they
// keep answering when no embedding provider is reachable.
//
//	client, _ := semdex.New(ctx, semdex.WithInMemory())
//	defer client.Close()
//
//	_, _ = client.Put(ctx, "q3-report.pdf", semdex.KindDocument, semdex.Descriptor{
//	    Summary: "Quarterly revenue report",
//	    Tags:    []string{"finance", "revenue"},
//	}, true)
//
//	resp, _ := client.Search(ctx, "revenue", 10)
//	recs, _ := client.Recommend(ctx, "q3-report.pdf", true)
//
// A remote OpenAI-compatible provider is opt-in with WithOpenAI; the built-in
// on-device model stays the fallback.
package semdex
