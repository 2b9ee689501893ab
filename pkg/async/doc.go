// Package async offers a small generic Future type for fan-out/fan-in work.
//
// Async starts a function in a goroutine and returns a Future. Settle and Map
// wait for every future and report each outcome, so partial failures can be
// tolerated:
//
//	results := async.Map(ctx, users, issueInvitation)
//	for _, r := range results {
//		if r.Err != nil {
//			log.WarnContext(ctx, "invitation failed", logger.Error(r.Err))
//		}
//	}
package async
