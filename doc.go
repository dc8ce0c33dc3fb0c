// Package swapcycle is a Go client for the SwapCycle bartering marketplace.
//
// It wraps the marketplace REST API (auth, products, services, trades,
// search) and the live browse controller that keeps search results and map
// markers in sync with the current filter and viewport.
//
// # Accounts and listings
//
//	client, _ := swapcycle.New(ctx,
//	    swapcycle.WithBaseURL("http://localhost:5001/api"),
//	    swapcycle.WithSessionFile("~/.config/swapcycle/session.yaml"),
//	)
//	defer client.Close()
//
//	_, _ = client.Auth().Login(ctx, "ana@example.com", "secret")
//	bike, _ := client.Products().Create(ctx, swapcycle.Draft{
//	    Name: "Bike", EstimatedValue: 120, CategoryID: 3,
//	    Condition: "good", Address: "Main St 1",
//	})
//
// # Browsing
//
//	b := client.Browse()
//	_ = b.Start(ctx)
//	_ = b.ApplyFilter(ctx, map[string]string{"keyword": "guitar", "type": "services"})
//	snap := b.Snapshot()
//	for _, it := range snap.Search.Results {
//	    fmt.Println(it.Name, it.Price())
//	}
package swapcycle
