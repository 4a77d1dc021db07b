// Package pending tracks outstanding remote calls by correlation id.
//
// A Table hands out a Call for every outbound request and resolves it when
// the matching reply arrives. Each Call resolves exactly once: with a
// result, with an error, or with the teardown error passed to DrainAll.
//
//	tbl := pending.NewTable(pending.NewSequentialIDs())
//	call := tbl.Register("system.info")
//	// ... send the request carrying call.ID ...
//	tbl.Resolve(call.ID, pending.Outcome{Value: v})
//	v, err := call.Wait(ctx)
package pending
