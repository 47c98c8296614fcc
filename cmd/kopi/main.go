// Command kopi is the management CLI: install/uninstall/list/use/
// global/cache/shim/config/init. It is the full cobra command tree
// built in internal/cmd; per spec.md §1 the CLI surface itself is an
// external collaborator of the core, so this binary is deliberately
// thin.
package main

import (
	"os"

	"github.com/kopi-vm/kopi/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
