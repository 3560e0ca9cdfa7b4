// Command geoobject works with typed geoscience object documents: it checks
// documents and their bulk data, prints summaries, and stores objects in the
// configured object store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
)

func main() {
	if err := run(context.Background(), os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the command line in args.
func run(ctx context.Context, out, errOut io.Writer, args []string) error {
	root := newRootCmd(out, errOut)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
