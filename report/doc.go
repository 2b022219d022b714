// Package report turns health check results into human-presentable and
// machine-readable reports.
//
// The reporter is a pure transformation of checker output: it holds no
// state, performs no I/O, and produces byte-identical output for identical
// input. Entries are grouped by status and ordered so the most actionable
// information (unhealthy, then degraded) surfaces first.
//
//	summary := svc.CheckAll(ctx, "agent")
//	rep := report.FromSummary(summary)
//	fmt.Print(rep.Render())
package report
