// Package consdex indexes Korean sell-side analyst reports and serves
// consensus analytics over them, backed by Redis or Valkey.
//
// Reports carry a security code, the publishing firm, a free-form rating
// label, a target price and a report date. Consdex normalizes rating labels
// into buy/hold/sell buckets, aggregates per-security consensus (rating
// distribution, mean target price, latest report date) and ranks report
// narratives against free-text queries by embedding cosine similarity.
//
// This package is the embedded client: it runs the whole engine in-process.
//
//	client, err := consdex.New(ctx,
//	    consdex.WithRedis("localhost:6379", ""),
//	    consdex.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	_, _ = client.IngestReport(ctx, consdex.ReportInput{
//	    SecurityCode: "005930",
//	    Firm:         "미래에셋증권",
//	    Rating:       "매수",
//	    TargetPrice:  95000,
//	    ReportDate:   time.Now(),
//	    Narrative:    "반도체 업황 반등 전망",
//	})
//
//	consensus, _ := client.Consensus(ctx, "005930")
//	hits, _ := client.Search(ctx, consdex.SearchRequest{Query: "반도체 수요"})
//
// The same engine is served over HTTP by cmd/consdex; pkg/sdk holds the
// matching REST client.
package consdex
