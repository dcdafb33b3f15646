// Package main provides the entry point for sdncli.
//
// sdncli drives an SDN controller: every resource operation is sent as one
// JSON envelope over HTTP, authenticated with a Keystone token.
//
// Usage:
//
//	sdncli [global flags] RESOURCE VERB [flags] [NAMES...]
//	sdncli net list --field id,name
//	sdncli -o json lbm show --pool web-pool member1
//	sdncli request --uri /neutron/network --data '{"data":{}}'
//	sdncli shell
package main
