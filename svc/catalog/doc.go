// Package catalog holds the local record of sellable subscription plans.
//
// Plans are priced in currency minor units and carry references to the
// payment processor's product and price objects. Those refs may be absent or
// stale; the billing provisioner heals them lazily and writes them back
// through a compare-and-swap update so concurrent provisioners cannot
// clobber a fresher result.
package catalog
