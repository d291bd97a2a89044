// Package cli implements verifyctl, the admin command-line client for the
// vendorverify server.
//
// Each invocation runs one command taken from the positional arguments:
//
//	verifyctl [flags] verify <token>
//	verifyctl [flags] create
//	verifyctl [flags] get <id|token>
//	verifyctl [flags] list [vendor-id]
//	verifyctl [flags] rotate <product-id>
//	verifyctl [flags] set-state <id|token> <state> [flag|unflag]
//	verifyctl [flags] scans <product-id> [limit]
//	verifyctl [flags] audit [vendor-id] [limit]
//	verifyctl [flags] token-scans <token> [limit]
//	verifyctl [flags] stats [vendor-id]
//	verifyctl [flags] reports [status] [page]
//	verifyctl [flags] review <report-id> <status>
//	verifyctl [flags] token <user-id> <vendor|admin|proxy>
//
// Commands that need an access token prompt for one (without echo) when it
// was not configured.
package cli
