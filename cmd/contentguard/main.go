// contentguard is the command-line front end of the content protection
// policy engine: local checks and settings, history reports, the gRPC
// protection server and the MCP tool server.
package main

import "github.com/ppiankov/contentguard/internal/cli"

func main() {
	cli.Execute()
}
