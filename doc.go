// Package veckey is a vector-search adapter for a Valkey instance running
// the valkey-search and valkey-json modules.
//
// A Client manages one lazily-dialed connection, creates tag + HNSW cosine
// indexes per collection, embeds records through a pluggable gateway, and
// runs KNN queries with score-threshold filtering for batches.
//
//	client, _ := veckey.New(
//	    veckey.WithURL("valkey://localhost:6379"),
//	    veckey.WithEmbeddingGateway(gw), // your EmbeddingGateway
//	)
//	defer client.Close()
//
//	_ = client.CreateCollection(ctx, "notes")
//	_ = client.CreateDataPoints(ctx, "notes", []veckey.DataPoint{
//	    {ID: "a", Text: "Hello Valkey", Payload: veckey.Payload{"lang": "en"}},
//	})
//
//	limit := 10
//	hits, _ := client.Search(ctx, "notes", veckey.SearchRequest{
//	    QueryText: "hello",
//	    Limit:     &limit,
//	})
//
// Scores are cosine distances: lower means more similar. Typed records with
// `veckey` struct tags convert through PointsFrom.
package veckey
