// Package catalog reconciles declared subscription plans with a billing
// provider's product catalog.
//
// Identity is carried in provider metadata: every product and price created
// here is tagged with its internal id and an owner value (see MetadataKeys
// and CorrelationTag). Objects without an internal id are invisible to every
// component.
//
// The components are:
//
//   - Fetcher drains the paginated listings and keeps tagged objects.
//   - Matcher finds the active remote object for an internal id.
//   - Reconciler creates missing products and prices, never updating.
//   - Updater pushes name, description, active and metadata to existing objects.
//   - Archiver deactivates products and their prices, never deleting.
//   - Compare reports drift between plans and a snapshot without writing.
//
// Each component takes Options; WithContinueOnItemError selects between
// fail-fast and best-effort processing. Reconciler and Updater default to
// fail-fast, Archiver to best-effort.
//
// Provider has three implementations: StripeProvider, PaddleProvider and the
// in-memory MemoryProvider used by tests.
package catalog
