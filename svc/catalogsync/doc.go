// Package catalogsync wires the catalog, mirror and snapshot packages into
// the catalogsync command line tool.
//
// Settings come from the environment (see Config), optionally seeded from
// .env.<environment> and .env files, and can be overridden with the global
// -env, -adapter and -plans flags. The billing provider and the local store
// are built on first use, so commands that need neither (diff needs no store,
// purge needs no provider) run without their credentials.
//
// Commands:
//
//	create                       create missing products and prices
//	update                       push mutable fields of declared plans
//	archive <product-id>...      deactivate products and their prices
//	sync                         mirror the managed catalog into the store
//	purge [-yes]                 delete every mirrored row
//	list [-all] products|prices  print the remote catalog
//	diff [-json] [-fail-on-drift] compare plans with the remote catalog
//	export [-o destination]      write the managed catalog as JSON
//
// Exit codes: 0 on success, 1 on failure, 2 on usage errors.
package catalogsync
