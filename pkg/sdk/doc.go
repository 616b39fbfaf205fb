// Package sdk provides an HTTP client for the consdex REST API.
//
// Unlike the root consdex package, which runs the consensus engine
// in-process against a database, this client talks to a running consdex
// service over its /api/v1 surface and mirrors its wire types.
//
//	client := sdk.New("http://localhost:8080",
//	    sdk.WithAPIKey(os.Getenv("CONSDEX_API_KEY")),
//	)
//
//	res, err := client.CreateReport(ctx, sdk.ReportInput{
//	    SecurityCode: "005930",
//	    Firm:         "미래에셋증권",
//	    Rating:       "매수",
//	    TargetPrice:  95000,
//	    ReportDate:   "2024-03-15",
//	})
//
// Service errors carry the wire error code and map onto the package
// sentinels, so both styles work:
//
//	_, err := client.Consensus(ctx, "999999")
//	if errors.Is(err, sdk.ErrNotFound) { ... }
//
//	var apiErr *sdk.APIError
//	if errors.As(err, &apiErr) { log.Println(apiErr.Code, apiErr.StatusCode) }
package sdk
