// Package driven defines the outbound ports of the sync core: interfaces the
// business logic calls and adapters implement (token storage, configuration,
// the OAuth transport and the provider mailbox).
package driven
