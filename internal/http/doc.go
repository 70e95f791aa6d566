// Package http is the probe's HTTP session: a pooled client with functional
// options and per-call timing.
//
// A single Client is shared by every call in a run so that connections are
// reused across concurrent requests:
//
//	client := http.NewClient(
//	    http.WithTimeout(0),
//	    http.WithMaxIdleConnsPerHost(50),
//	)
//	defer client.CloseIdleConnections()
//
//	resp, err := client.Do(ctx, http.NewRequest("GET", endpoint).WithDiscardBody())
//	if err != nil {
//	    var reqErr *http.RequestError
//	    errors.As(err, &reqErr) // reqErr.Elapsed is how long the call ran
//	}
//	fmt.Println(resp.StatusCode, resp.Timing.TotalTime)
//
// Timing.TotalTime ends when the response headers arrive. Body transfer is
// reported separately in Timing.ContentTransferTime.
package http
